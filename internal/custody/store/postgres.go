package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"jailcheck/internal/custody/models"
	"jailcheck/pkg/platform/sentinel"
)

// Schema creates the runs table. EnsureSchema applies it; deployments with
// managed migrations can run it themselves.
const Schema = `
CREATE TABLE IF NOT EXISTS custody_runs (
    id           UUID PRIMARY KEY,
    status       TEXT NOT NULL,
    source_file  TEXT NOT NULL DEFAULT '',
    started_at   TIMESTAMPTZ NOT NULL,
    finished_at  TIMESTAMPTZ NOT NULL,
    roster_size  INTEGER NOT NULL DEFAULT 0,
    error        TEXT NOT NULL DEFAULT '',
    error_reason TEXT NOT NULL DEFAULT '',
    result       JSONB
);
CREATE INDEX IF NOT EXISTS custody_runs_started_at_idx ON custody_runs (started_at DESC);
`

// PostgresStore persists runs in PostgreSQL. The verdict list is stored as
// JSONB alongside the run columns.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed run store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the runs table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure custody_runs schema: %w", err)
	}
	return nil
}

// Save upserts the run.
func (s *PostgresStore) Save(ctx context.Context, run *models.Run) error {
	if run == nil {
		return errRunRequired
	}
	var result []byte
	if run.Result != nil {
		var err error
		if result, err = json.Marshal(run.Result); err != nil {
			return fmt.Errorf("encode run result: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO custody_runs (id, status, source_file, started_at, finished_at, roster_size, error, error_reason, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			source_file = EXCLUDED.source_file,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			roster_size = EXCLUDED.roster_size,
			error = EXCLUDED.error,
			error_reason = EXCLUDED.error_reason,
			result = EXCLUDED.result`,
		run.ID, string(run.Status), run.SourceFile, run.StartedAt, run.FinishedAt,
		run.RosterSize, run.Error, run.ErrorReason, nullableJSON(result),
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// Find returns the run with id or sentinel.ErrNotFound.
func (s *PostgresStore) Find(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = $1`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	return run, nil
}

// List returns up to limit runs, most recently started first.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]*models.Run, error) {
	if limit < 1 {
		limit = 1
	}
	rows, err := s.db.QueryContext(ctx, selectRuns+` ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

const selectRuns = `SELECT id, status, source_file, started_at, finished_at, roster_size, error, error_reason, result FROM custody_runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var (
		run    models.Run
		status string
		result []byte
	)
	if err := row.Scan(&run.ID, &status, &run.SourceFile, &run.StartedAt, &run.FinishedAt,
		&run.RosterSize, &run.Error, &run.ErrorReason, &result); err != nil {
		return nil, err
	}
	run.Status = models.RunStatus(status)
	if len(result) > 0 {
		var r models.Result
		if err := json.Unmarshal(result, &r); err != nil {
			return nil, fmt.Errorf("decode run result: %w", err)
		}
		run.Result = &r
	}
	run.StartedAt = run.StartedAt.UTC()
	run.FinishedAt = run.FinishedAt.UTC()
	return &run, nil
}

func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
