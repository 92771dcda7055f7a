// Package results persists per-combination sweep outcomes so runs can be
// compared after the fact without re-reading archive directories.
package results

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"mibisweep/internal/config"
)

// Run statuses.
const (
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusCollision = "collision"
)

// Run records one sweep combination outcome.
type Run struct {
	ID              int64
	SweepID         string
	Identifier      string
	Methods         string
	EventsThreshold sql.NullFloat64
	AuThreshold     sql.NullFloat64
	TaThreshold     sql.NullFloat64
	Status          string
	ArtifactPath    string
	ArtifactSize    int64
	Duration        time.Duration
	Error           string
	CreatedAt       time.Time
}

// Summary aggregates outcomes across a sweep.
type Summary struct {
	Total      int
	Done       int
	Failed     int
	Collisions int
}

// Store manages results persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the results database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "results.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// RecordRun inserts one combination outcome.
func (s *Store) RecordRun(ctx context.Context, run Run) (int64, error) {
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sweep_runs (
            sweep_id, identifier, methods,
            events_threshold, au_threshold, ta_threshold,
            status, artifact_path, artifact_size, duration_ms, error, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.SweepID,
		run.Identifier,
		run.Methods,
		run.EventsThreshold,
		run.AuThreshold,
		run.TaThreshold,
		run.Status,
		run.ArtifactPath,
		run.ArtifactSize,
		run.Duration.Milliseconds(),
		run.Error,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// List returns runs for one sweep in insertion order, or all runs when
// sweepID is empty.
func (s *Store) List(ctx context.Context, sweepID string) ([]Run, error) {
	query := `SELECT id, sweep_id, identifier, methods,
        events_threshold, au_threshold, ta_threshold,
        status, artifact_path, artifact_size, duration_ms, error, created_at
        FROM sweep_runs`
	args := []any{}
	if sweepID != "" {
		query += " WHERE sweep_id = ?"
		args = append(args, sweepID)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			durationMS int64
			createdAt  string
		)
		if err := rows.Scan(
			&run.ID, &run.SweepID, &run.Identifier, &run.Methods,
			&run.EventsThreshold, &run.AuThreshold, &run.TaThreshold,
			&run.Status, &run.ArtifactPath, &run.ArtifactSize,
			&durationMS, &run.Error, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		if parsed, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			run.CreatedAt = parsed
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Summarize counts outcomes for one sweep, or across all sweeps when sweepID
// is empty.
func (s *Store) Summarize(ctx context.Context, sweepID string) (Summary, error) {
	query := "SELECT status, COUNT(1) FROM sweep_runs"
	args := []any{}
	if sweepID != "" {
		query += " WHERE sweep_id = ?"
		args = append(args, sweepID)
	}
	query += " GROUP BY status"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize runs: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return Summary{}, fmt.Errorf("scan summary: %w", err)
		}
		summary.Total += count
		switch status {
		case StatusDone:
			summary.Done += count
		case StatusFailed:
			summary.Failed += count
		case StatusCollision:
			summary.Collisions += count
		}
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("iterate summary: %w", err)
	}
	return summary, nil
}
