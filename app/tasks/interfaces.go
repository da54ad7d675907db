package tasks

import (
	"context"
	"io"

	"github.com/lysyi3m/regcheck/app/registry"
	"github.com/lysyi3m/regcheck/app/source"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API to run reconciliations off the
// request goroutine.
// Example usage:
//
//	scheduler := NewScheduler(configCache, deps)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewReconcileTask(run, config, deps, nil))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// Acquirer loads the inputs of a reconciliation run.
type Acquirer interface {
	Banks(ctx context.Context, config *source.Config) (registry.Grid, registry.Grid, error)
	MFO(ctx context.Context, config *source.Config) (registry.MFOSheets, registry.Grid, error)
	Watchlist(config *source.Config, document io.Reader) (*registry.WatchlistDocument, registry.Grid, error)
}

var _ Acquirer = (*source.Acquirer)(nil)
