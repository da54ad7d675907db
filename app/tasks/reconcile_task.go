package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/regcheck/app/database"
	"github.com/lysyi3m/regcheck/app/metrics"
	"github.com/lysyi3m/regcheck/app/registry"
	"github.com/lysyi3m/regcheck/app/source"
)

// Deps are the collaborators shared by every reconciliation task.
type Deps struct {
	SourceRepo database.SourceRepository
	RunRepo    database.RunRepository
	Acquirer   Acquirer
	Metrics    *metrics.Metrics
}

// ReconcileTask acquires the inputs of one run, classifies the local book
// and stores the report. A run either completes with all of its rows or
// fails with none.
type ReconcileTask struct {
	Task
	RunID         string
	ReferenceDate string
	SourceConfig  *source.Config
	document      []byte
	deps          Deps
}

// NewReconcileTask builds the task for an already created run. document is
// the uploaded watchlist and is ignored for registry-backed domains.
func NewReconcileTask(run *database.Run, config *source.Config, deps Deps, document []byte) *ReconcileTask {
	return &ReconcileTask{
		Task:          NewTask(TaskTypeReconcile, config.Name),
		RunID:         run.ID,
		ReferenceDate: run.ReferenceDate,
		SourceConfig:  config,
		document:      document,
		deps:          deps,
	}
}

func (t *ReconcileTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.deps.RunRepo.MarkRunning(t.RunID); err != nil {
		return fmt.Errorf("failed to mark run running: %w", err)
	}

	started := time.Now()
	domain := t.SourceConfig.Domain

	report, err := t.reconcile(ctx)
	if err != nil {
		if !isTransient(err) {
			t.StopRetrying()
		}
		if !t.CanRetry() {
			t.fail(err, started)
		}
		return err
	}

	if err := t.deps.RunRepo.CompleteRun(t.RunID, report); err != nil {
		t.fail(err, started)
		return fmt.Errorf("failed to store report: %w", err)
	}

	t.scheduleNext()

	if t.deps.Metrics != nil {
		t.deps.Metrics.ObserveReport(report, started)
	}

	slog.Info("Task completed",
		"type", "Reconcile",
		"source", t.SourceName,
		"domain", domain,
		"run_id", t.RunID,
		"duration", t.GetDuration(),
		"rows", len(report.Rows))

	return nil
}

func (t *ReconcileTask) reconcile(ctx context.Context) (*registry.Report, error) {
	config := t.SourceConfig
	acquired := time.Now()

	switch config.Domain {
	case registry.DomainBanks:
		registrySheet, book, err := t.deps.Acquirer.Banks(ctx, config)
		if err != nil {
			return nil, err
		}
		t.observeAcquisition(acquired)
		return registry.CheckBanks(registrySheet, book), nil

	case registry.DomainMFO:
		sheets, book, err := t.deps.Acquirer.MFO(ctx, config)
		if err != nil {
			return nil, err
		}
		t.observeAcquisition(acquired)
		return registry.CheckMFO(sheets, book), nil

	case registry.DomainWatchlist:
		if t.ReferenceDate == "" {
			return nil, &source.AcquisitionError{Domain: config.Domain, Source: source.OriginDocument, Err: errors.New("reference date is required")}
		}
		doc, book, err := t.deps.Acquirer.Watchlist(config, bytes.NewReader(t.document))
		if err != nil {
			return nil, err
		}
		t.observeAcquisition(acquired)
		return registry.CheckWatchlist(doc, book, t.ReferenceDate), nil
	}

	return nil, fmt.Errorf("unsupported domain: %s", config.Domain)
}

func (t *ReconcileTask) observeAcquisition(start time.Time) {
	if t.deps.Metrics != nil {
		t.deps.Metrics.ObserveAcquisition(t.SourceConfig.Domain, start)
	}
}

// Abandon fails the run when its pending retry is dropped.
func (t *ReconcileTask) Abandon(err error) {
	started := time.Now()
	if t.StartedAt != nil {
		started = *t.StartedAt
	}
	t.fail(fmt.Errorf("retry abandoned: %w", err), started)
}

func (t *ReconcileTask) fail(cause error, started time.Time) {
	if err := t.deps.RunRepo.FailRun(t.RunID, cause.Error()); err != nil {
		slog.Error("Failed to mark run failed", "run_id", t.RunID, "error", err)
	}
	if t.deps.Metrics != nil {
		t.deps.Metrics.ObserveFailure(t.SourceConfig.Domain, started)
	}

	slog.Error("Task failed",
		"type", "Reconcile",
		"source", t.SourceName,
		"run_id", t.RunID,
		"error", cause)
}

func (t *ReconcileTask) scheduleNext() {
	now := time.Now().UTC()

	var next *time.Time
	if t.SourceConfig.Scheduled() {
		n := now.Add(time.Duration(t.SourceConfig.Settings.RefreshInterval) * time.Second)
		next = &n
	}

	if err := t.deps.SourceRepo.UpdateNextRun(t.SourceName, now, next); err != nil {
		slog.Warn("Failed to update next run", "source", t.SourceName, "error", err)
	}
}

// Only registry downloads are worth another attempt; a broken upload or a
// missing local book fails the same way every time.
func isTransient(err error) bool {
	var acqErr *source.AcquisitionError
	if errors.As(err, &acqErr) {
		return acqErr.Source == source.OriginRegistry
	}
	return false
}
