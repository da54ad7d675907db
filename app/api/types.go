package api

import (
	"time"

	"github.com/lysyi3m/regcheck/app/database"
	"github.com/lysyi3m/regcheck/app/metrics"
	"github.com/lysyi3m/regcheck/app/registry"
	"github.com/lysyi3m/regcheck/app/source"
	"github.com/lysyi3m/regcheck/app/tasks"
)

// RunSubmitter creates a run for a source and queues its reconciliation.
type RunSubmitter interface {
	Submit(config *source.Config, referenceDate string, document []byte) (*database.Run, error)
	EnqueueTask(task tasks.TaskInterface) error
}

var _ RunSubmitter = (*tasks.Scheduler)(nil)

type Handler struct {
	configCache *source.ConfigCache
	sourceRepo  database.SourceRepository
	runRepo     database.RunRepository
	scheduler   RunSubmitter
	metrics     *metrics.Metrics
	uploadLimit int64
}

type RowResponse struct {
	Values []string        `json:"values"`
	Status registry.Status `json:"status"`
	Flag   string          `json:"flag,omitempty"`
}

type RunResponse struct {
	ID            string                  `json:"id"`
	Source        string                  `json:"source,omitempty"`
	Domain        registry.Domain         `json:"domain"`
	State         database.RunState       `json:"state"`
	ReferenceDate string                  `json:"reference_date,omitempty"`
	Error         string                  `json:"error,omitempty"`
	Counts        map[registry.Status]int `json:"counts,omitempty"`
	RowCount      int                     `json:"row_count"`
	CreatedAt     time.Time               `json:"created_at"`
	StartedAt     *time.Time              `json:"started_at,omitempty"`
	FinishedAt    *time.Time              `json:"finished_at,omitempty"`
}

func newRunResponse(run *database.Run) RunResponse {
	return RunResponse{
		ID:            run.ID,
		Source:        run.SourceName,
		Domain:        run.Domain,
		State:         run.State,
		ReferenceDate: run.ReferenceDate,
		Error:         run.Error,
		Counts:        run.Counts,
		RowCount:      run.RowCount,
		CreatedAt:     run.CreatedAt,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
	}
}

func newRowResponses(rows []registry.Result) []RowResponse {
	out := make([]RowResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, RowResponse{Values: r.Values, Status: r.Status, Flag: r.Flag.String()})
	}
	return out
}
