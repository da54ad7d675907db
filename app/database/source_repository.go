package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/regcheck/app/registry"
)

var _ SourceRepository = (*SourceRepo)(nil)

// SourceRepo handles database operations for configured registry sources
type SourceRepo struct {
	db *DB
}

func NewSourceRepository(db *DB) *SourceRepo {
	return &SourceRepo{db: db}
}

// UpsertSource registers a source or refreshes its domain and URL
func (r *SourceRepo) UpsertSource(name string, domain registry.Domain, url string) error {
	now := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO sources (id, name, domain, url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			domain = excluded.domain,
			url = excluded.url,
			updated_at = excluded.updated_at
	`, uuid.NewString(), name, string(domain), url, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}

	return nil
}

// UpdateNextRun records a finished run and when the source is due again.
// A nil nextRun clears the schedule.
func (r *SourceRepo) UpdateNextRun(name string, lastRun time.Time, nextRun *time.Time) error {
	var next sql.NullTime
	if nextRun != nil {
		next = sql.NullTime{Time: nextRun.UTC(), Valid: true}
	}

	result, err := r.db.Exec(`
		UPDATE sources
		SET last_run_at = ?, next_run_at = ?, updated_at = ?
		WHERE name = ?
	`, lastRun.UTC(), next, time.Now().UTC(), name)
	if err != nil {
		return fmt.Errorf("failed to update next run: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("source '%s' not found", name)
	}

	return nil
}

func (r *SourceRepo) GetSource(name string) (*Source, error) {
	row := r.db.QueryRow(`
		SELECT id, name, domain, url, last_run_at, next_run_at, created_at, updated_at
		FROM sources
		WHERE name = ?
	`, name)

	source, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return source, nil
}

func (r *SourceRepo) GetSources() ([]Source, error) {
	rows, err := r.db.Query(`
		SELECT id, name, domain, url, last_run_at, next_run_at, created_at, updated_at
		FROM sources
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, *source)
	}

	return sources, rows.Err()
}

func (r *SourceRepo) GetSourceCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM sources`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sources: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSource(s scanner) (*Source, error) {
	var source Source
	var domain string
	var lastRun, nextRun sql.NullTime

	err := s.Scan(&source.ID, &source.Name, &domain, &source.URL, &lastRun, &nextRun, &source.CreatedAt, &source.UpdatedAt)
	if err != nil {
		return nil, err
	}

	source.Domain = registry.Domain(domain)
	source.LastRunAt = nullTimePtr(lastRun)
	source.NextRunAt = nullTimePtr(nextRun)

	return &source, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
