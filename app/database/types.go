package database

import (
	"time"

	"github.com/lysyi3m/regcheck/app/registry"
)

type Source struct {
	ID        string // Database UUID
	Name      string // Configuration source identifier derived from filename
	Domain    registry.Domain
	URL       string // Registry URL template from configuration, empty for upload-only sources
	LastRunAt *time.Time
	NextRunAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type RunState string

const (
	RunStatePending   RunState = "pending"
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
)

type Run struct {
	ID            string
	SourceName    string // Empty for ad-hoc comparisons
	Domain        registry.Domain
	State         RunState
	ReferenceDate string
	Error         string
	Counts        map[registry.Status]int
	RowCount      int
	CreatedAt     time.Time
	StartedAt     *time.Time
	FinishedAt    *time.Time
}

type RunStats struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
}
