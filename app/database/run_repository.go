package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/regcheck/app/registry"
)

var _ RunRepository = (*RunRepo)(nil)

// RunRepo handles database operations for reconciliation runs and their result rows
type RunRepo struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

const runColumns = `id, source_name, domain, state, reference_date, error, counts, row_count, created_at, started_at, finished_at`

func (r *RunRepo) CreateRun(sourceName string, domain registry.Domain, referenceDate string) (*Run, error) {
	run := &Run{
		ID:            uuid.NewString(),
		SourceName:    sourceName,
		Domain:        domain,
		State:         RunStatePending,
		ReferenceDate: referenceDate,
		Counts:        map[registry.Status]int{},
		CreatedAt:     time.Now().UTC(),
	}

	_, err := r.db.Exec(`
		INSERT INTO runs (id, source_name, domain, state, reference_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.SourceName, string(run.Domain), string(run.State), run.ReferenceDate, run.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

func (r *RunRepo) GetRun(id string) (*Run, error) {
	run, err := scanRun(r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

func (r *RunRepo) GetLastRun(sourceName string) (*Run, error) {
	run, err := scanRun(r.db.QueryRow(`
		SELECT `+runColumns+` FROM runs
		WHERE source_name = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, sourceName))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}
	return run, nil
}

func (r *RunRepo) GetRecentRuns(limit int) ([]Run, error) {
	rows, err := r.db.Query(`
		SELECT `+runColumns+` FROM runs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

func (r *RunRepo) GetRunStats() (RunStats, error) {
	rows, err := r.db.Query(`SELECT state, COUNT(*) FROM runs GROUP BY state`)
	if err != nil {
		return RunStats{}, fmt.Errorf("failed to query run stats: %w", err)
	}
	defer rows.Close()

	var stats RunStats
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return RunStats{}, fmt.Errorf("failed to scan run stats: %w", err)
		}

		stats.Total += count
		switch RunState(state) {
		case RunStatePending:
			stats.Pending = count
		case RunStateRunning:
			stats.Running = count
		case RunStateCompleted:
			stats.Completed = count
		case RunStateFailed:
			stats.Failed = count
		}
	}

	return stats, rows.Err()
}

func (r *RunRepo) MarkRunning(id string) error {
	return r.updateState(`
		UPDATE runs SET state = ?, started_at = ? WHERE id = ?
	`, string(RunStateRunning), time.Now().UTC(), id)
}

// CompleteRun stores every result row of report and marks the run completed
// in one transaction.
func (r *RunRepo) CompleteRun(id string, report *registry.Report) error {
	counts, err := json.Marshal(report.Counts)
	if err != nil {
		return fmt.Errorf("failed to encode counts: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM results WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear results: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO results (run_id, position, status, flag, "values") VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range report.Rows {
		values, err := json.Marshal(row.Values)
		if err != nil {
			return fmt.Errorf("failed to encode result values: %w", err)
		}
		if _, err := stmt.Exec(id, i, string(row.Status), int(row.Flag), string(values)); err != nil {
			return fmt.Errorf("failed to insert result: %w", err)
		}
	}

	result, err := tx.Exec(`
		UPDATE runs
		SET state = ?, reference_date = ?, error = '', counts = ?, row_count = ?, finished_at = ?
		WHERE id = ?
	`, string(RunStateCompleted), report.ReferenceDate, string(counts), len(report.Rows), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run '%s' not found", id)
	}

	return tx.Commit()
}

// FailRun marks the run failed and drops any rows stored for it.
func (r *RunRepo) FailRun(id string, message string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM results WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear results: %w", err)
	}

	result, err := tx.Exec(`
		UPDATE runs
		SET state = ?, error = ?, counts = '{}', row_count = 0, finished_at = ?
		WHERE id = ?
	`, string(RunStateFailed), message, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run '%s' not found", id)
	}

	return tx.Commit()
}

// FailStaleRuns fails every run still pending or running, e.g. after the
// process stopped mid-run, and returns how many were changed.
func (r *RunRepo) FailStaleRuns(message string) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM results
		WHERE run_id IN (SELECT id FROM runs WHERE state IN (?, ?))
	`, string(RunStatePending), string(RunStateRunning)); err != nil {
		return 0, fmt.Errorf("failed to clear results: %w", err)
	}

	result, err := tx.Exec(`
		UPDATE runs
		SET state = ?, error = ?, counts = '{}', row_count = 0, finished_at = ?
		WHERE state IN (?, ?)
	`, string(RunStateFailed), message, time.Now().UTC(), string(RunStatePending), string(RunStateRunning))
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale runs: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count stale runs: %w", err)
	}

	return int(n), tx.Commit()
}

func (r *RunRepo) GetResults(id string) ([]registry.Result, error) {
	rows, err := r.db.Query(`
		SELECT status, flag, "values" FROM results
		WHERE run_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := []registry.Result{}
	for rows.Next() {
		var status, values string
		var flag int
		if err := rows.Scan(&status, &flag, &values); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}

		result := registry.Result{Status: registry.Status(status), Flag: registry.Flag(flag)}
		if err := json.Unmarshal([]byte(values), &result.Values); err != nil {
			return nil, fmt.Errorf("failed to decode result values: %w", err)
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

func (r *RunRepo) updateState(query string, args ...any) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run not found")
	}
	return nil
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var domain, state, counts string
	var startedAt, finishedAt sql.NullTime

	err := s.Scan(&run.ID, &run.SourceName, &domain, &state, &run.ReferenceDate, &run.Error,
		&counts, &run.RowCount, &run.CreatedAt, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	run.Domain = registry.Domain(domain)
	run.State = RunState(state)
	run.StartedAt = nullTimePtr(startedAt)
	run.FinishedAt = nullTimePtr(finishedAt)

	run.Counts = map[registry.Status]int{}
	if err := json.Unmarshal([]byte(counts), &run.Counts); err != nil {
		return nil, fmt.Errorf("failed to decode counts: %w", err)
	}

	return &run, nil
}
