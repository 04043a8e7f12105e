package store

import (
	"context"
	"fmt"

	"github.com/AdwayB/dtqs/pkg/log"
)

// schema is the full store schema. Every statement is idempotent, so
// re-running the migrator against an up-to-date database is a no-op.
const schema = `
CREATE TABLE IF NOT EXISTS tasks (
    id         UUID PRIMARY KEY,
    task_type  TEXT NOT NULL,
    payload    JSONB NOT NULL DEFAULT '{}'::jsonb,
    status     TEXT NOT NULL DEFAULT 'pending',
    priority   INTEGER NOT NULL DEFAULT 5,
    progress   INTEGER NOT NULL DEFAULT 0,
    attempts   INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tasks_status_created ON tasks (status, created_at);

CREATE TABLE IF NOT EXISTS worker_nodes (
    node_id           TEXT PRIMARY KEY,
    status            TEXT NOT NULL DEFAULT 'active',
    last_health_check TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    current_task_id   UUID
);

CREATE TABLE IF NOT EXISTS logs (
    id             BIGSERIAL PRIMARY KEY,
    timestamp      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    worker_node_id TEXT NOT NULL,
    message        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON logs (timestamp DESC);
`

// Migrate applies the store schema. Safe to run at every process start.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	logger := log.WithComponent("store")
	logger.Info().Msg("Database migrations complete")
	return nil
}
