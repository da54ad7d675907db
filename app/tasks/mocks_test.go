package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/lysyi3m/regcheck/app/database"
	"github.com/lysyi3m/regcheck/app/registry"
	"github.com/lysyi3m/regcheck/app/source"
)

type mockSourceRepo struct {
	mu       sync.Mutex
	sources  map[string]*database.Source
	upserts  []string
	nextRuns map[string]*time.Time
}

func newMockSourceRepo() *mockSourceRepo {
	return &mockSourceRepo{
		sources:  make(map[string]*database.Source),
		nextRuns: make(map[string]*time.Time),
	}
}

func (m *mockSourceRepo) GetSource(name string) (*database.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sources[name], nil
}

func (m *mockSourceRepo) GetSources() ([]database.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sources []database.Source
	for _, s := range m.sources {
		sources = append(sources, *s)
	}
	return sources, nil
}

func (m *mockSourceRepo) GetSourceCount() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources), nil
}

func (m *mockSourceRepo) UpsertSource(name string, domain registry.Domain, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts = append(m.upserts, name)
	if _, ok := m.sources[name]; !ok {
		m.sources[name] = &database.Source{ID: name, Name: name}
	}
	m.sources[name].Domain = domain
	m.sources[name].URL = url
	return nil
}

func (m *mockSourceRepo) UpdateNextRun(name string, lastRun time.Time, nextRun *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRuns[name] = nextRun
	if s, ok := m.sources[name]; ok {
		s.LastRunAt = &lastRun
		s.NextRunAt = nextRun
	}
	return nil
}

type mockRunRepo struct {
	mu      sync.Mutex
	runs    map[string]*database.Run
	results map[string][]registry.Result
	seq     int
}

func newMockRunRepo() *mockRunRepo {
	return &mockRunRepo{
		runs:    make(map[string]*database.Run),
		results: make(map[string][]registry.Result),
	}
}

func (m *mockRunRepo) CreateRun(sourceName string, domain registry.Domain, referenceDate string) (*database.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	run := &database.Run{
		ID:            fmt.Sprintf("run-%d", m.seq),
		SourceName:    sourceName,
		Domain:        domain,
		State:         database.RunStatePending,
		ReferenceDate: referenceDate,
		CreatedAt:     time.Now().UTC(),
	}
	m.runs[run.ID] = run
	copied := *run
	return &copied, nil
}

func (m *mockRunRepo) GetRun(id string) (*database.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, nil
	}
	copied := *run
	return &copied, nil
}

func (m *mockRunRepo) GetRecentRuns(limit int) ([]database.Run, error) {
	return nil, nil
}

func (m *mockRunRepo) GetLastRun(sourceName string) (*database.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last *database.Run
	for _, run := range m.runs {
		if run.SourceName != sourceName {
			continue
		}
		if last == nil || run.ID > last.ID {
			last = run
		}
	}
	if last == nil {
		return nil, nil
	}
	copied := *last
	return &copied, nil
}

func (m *mockRunRepo) GetRunStats() (database.RunStats, error) {
	return database.RunStats{}, nil
}

func (m *mockRunRepo) setState(id string, state database.RunState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return errors.New("run not found")
	}
	run.State = state
	return nil
}

func (m *mockRunRepo) MarkRunning(id string) error {
	return m.setState(id, database.RunStateRunning)
}

func (m *mockRunRepo) CompleteRun(id string, report *registry.Report) error {
	if err := m.setState(id, database.RunStateCompleted); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[id].Counts = report.Counts
	m.runs[id].RowCount = len(report.Rows)
	m.results[id] = report.Rows
	return nil
}

func (m *mockRunRepo) FailRun(id string, message string) error {
	if err := m.setState(id, database.RunStateFailed); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[id].Error = message
	delete(m.results, id)
	return nil
}

func (m *mockRunRepo) FailStaleRuns(message string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, run := range m.runs {
		if run.State == database.RunStatePending || run.State == database.RunStateRunning {
			run.State = database.RunStateFailed
			run.Error = message
			delete(m.results, id)
			n++
		}
	}
	return n, nil
}

func (m *mockRunRepo) GetResults(id string) ([]registry.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[id], nil
}

type mockAcquirer struct {
	registrySheet registry.Grid
	mfo           registry.MFOSheets
	doc           *registry.WatchlistDocument
	book          registry.Grid
	err           error
	calls         int
}

func (m *mockAcquirer) Banks(ctx context.Context, config *source.Config) (registry.Grid, registry.Grid, error) {
	m.calls++
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.registrySheet, m.book, nil
}

func (m *mockAcquirer) MFO(ctx context.Context, config *source.Config) (registry.MFOSheets, registry.Grid, error) {
	m.calls++
	if m.err != nil {
		return registry.MFOSheets{}, nil, m.err
	}
	return m.mfo, m.book, nil
}

func (m *mockAcquirer) Watchlist(config *source.Config, document io.Reader) (*registry.WatchlistDocument, registry.Grid, error) {
	m.calls++
	if m.err != nil {
		return nil, nil, m.err
	}
	if _, err := io.ReadAll(document); err != nil {
		return nil, nil, err
	}
	return m.doc, m.book, nil
}
