/*
Package store persists tasks, worker nodes, and execution logs in
PostgreSQL.

The store is the shared state every process reads and writes: the API
server inserts tasks and reads them for the SSE feed, workers write
status, progress, attempts and logs, and the dashboard reads everything.
All writes are single statements so that concurrent workers never need
store-level coordination.

# Architecture

	 API server          workers (N)            dashboard
	 insert, read        status/progress/        read-only
	 for the feed        attempts/logs/node      snapshots
	      │                    │                     │
	      └──────────┬─────────┴─────────┬──────────┘
	                 ▼                   ▼
	        ┌──────────────────────────────────┐
	        │        Store interface           │
	        │  (pkg/store, one impl: pgx pool) │
	        └────────────────┬─────────────────┘
	                         ▼
	                 PostgreSQL (DATABASE_URL)

# Schema

Three tables, created idempotently by Migrate:

	tasks         id UUID PK, task_type, payload JSONB, status,
	              priority, progress, attempts, created_at, updated_at
	worker_nodes  node_id PK, status, last_health_check, current_task_id
	logs          id BIGSERIAL PK, timestamp, worker_node_id, message

Indexes cover the two hot reads: pending tasks by age and the newest log
lines.

# Write Semantics

Concurrent workers and broker redeliveries make some writes race-prone;
the SQL is shaped to absorb that:

Progress never decreases:

	UPDATE tasks SET progress = GREATEST(progress, $2) ...

Out-of-order progress writes converge upward instead of flapping.

Terminal states stick:

	UPDATE tasks SET status = $2 ...
	WHERE status NOT IN ('completed', 'failed')

A redelivered duplicate of an already-settled task cannot resurrect it.
CompleteTask sets status completed and progress 100 under the same guard.

Attempt counting is atomic:

	UPDATE tasks SET attempts = attempts + 1 ... RETURNING attempts

The caller gets the post-increment value and compares it against the
attempt cap without a read-modify-write window.

# Usage

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	task, err := st.GetTask(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		// unknown ID, not a failure
	}

Connect retries with exponential backoff from 100 ms, five attempts, so
processes survive a database that is still starting.

# Integration Points

  - pkg/types: row types and the status enum
  - pkg/worker: every execution writes through this package
  - pkg/api: task insertion and the feed's task reads
  - pkg/dashboard: worker/pending/log snapshot queries

# Testing

Consumers depend on the Store interface, so package tests use in-memory
fakes. The Postgres implementation's own tests run only when
DATABASE_URL is set, against a disposable database.

# See Also

  - pkg/worker for how the write semantics are exercised under retry
  - cmd/dtqs migrate for applying the schema standalone
*/
package store
