// Package postgres stores benchmark results in PostgreSQL through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/casualjim/swekit/store"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const schema = `
CREATE TABLE IF NOT EXISTS attempts (
	id           BIGSERIAL PRIMARY KEY,
	run_id       TEXT NOT NULL,
	instance_id  TEXT NOT NULL,
	workspace_id TEXT NOT NULL,
	status       TEXT NOT NULL,
	patch        TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	duration_ms  BIGINT NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS attempts_run_instance_idx ON attempts (run_id, instance_id);

CREATE TABLE IF NOT EXISTS selections (
	id           BIGSERIAL PRIMARY KEY,
	run_id       TEXT NOT NULL,
	instance_id  TEXT NOT NULL,
	patch        TEXT NOT NULL DEFAULT '',
	chosen_index INTEGER NOT NULL DEFAULT 0,
	fallback     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL,
	UNIQUE (run_id, instance_id)
);
`

// Open connects to dsn and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate creates the attempts and selections tables when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

type resultStore struct {
	db *sql.DB
}

// New returns a store writing to db. The caller runs Migrate first.
func New(db *sql.DB) store.Store {
	return &resultStore{db: db}
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func (r *resultStore) SaveAttempt(ctx context.Context, a store.Attempt) error {
	query := `
		INSERT INTO attempts (run_id, instance_id, workspace_id, status, patch, error, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.RunID, a.InstanceID, a.WorkspaceID, a.Status, a.Patch, a.Error,
		a.Duration.Milliseconds(), createdAt(time.Time(a.CreatedAt)),
	)
	if err != nil {
		return fmt.Errorf("save attempt %s/%s: %w", a.InstanceID, a.WorkspaceID, err)
	}
	return nil
}

// SaveSelection keeps the latest selection of an instance within a run.
func (r *resultStore) SaveSelection(ctx context.Context, s store.Selection) error {
	query := `
		INSERT INTO selections (run_id, instance_id, patch, chosen_index, fallback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id, instance_id) DO UPDATE
		SET patch = EXCLUDED.patch, chosen_index = EXCLUDED.chosen_index,
			fallback = EXCLUDED.fallback, created_at = EXCLUDED.created_at
	`
	_, err := r.db.ExecContext(ctx, query,
		s.RunID, s.InstanceID, s.Patch, s.ChosenIndex, s.Fallback, createdAt(time.Time(s.CreatedAt)),
	)
	if err != nil {
		return fmt.Errorf("save selection %s: %w", s.InstanceID, err)
	}
	return nil
}

func (r *resultStore) Close() error {
	return r.db.Close()
}
