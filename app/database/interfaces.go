package database

import (
	"time"

	"github.com/lysyi3m/regcheck/app/registry"
)

type SourceRepository interface {
	GetSource(name string) (*Source, error)
	GetSources() ([]Source, error)
	GetSourceCount() (int, error)

	UpsertSource(name string, domain registry.Domain, url string) error
	UpdateNextRun(name string, lastRun time.Time, nextRun *time.Time) error
}

type RunRepository interface {
	CreateRun(sourceName string, domain registry.Domain, referenceDate string) (*Run, error)
	GetRun(id string) (*Run, error)
	GetRecentRuns(limit int) ([]Run, error)
	GetLastRun(sourceName string) (*Run, error)
	GetRunStats() (RunStats, error)

	MarkRunning(id string) error
	CompleteRun(id string, report *registry.Report) error
	FailRun(id string, message string) error
	FailStaleRuns(message string) (int, error)

	GetResults(id string) ([]registry.Result, error)
}
