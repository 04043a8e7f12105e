package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AdwayB/dtqs/pkg/log"
	"github.com/AdwayB/dtqs/pkg/types"
)

// Connection retry budget: 5 attempts, exponential from 100 ms. The same
// budget applies to the broker; a process that cannot reach either after
// the budget exits non-zero.
const (
	connectRetryDelay = 100 * time.Millisecond
	connectAttempts   = 5
)

// PostgresStore implements Store over a pgx connection pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect opens a connection pool against databaseURL, retrying with
// exponential backoff before giving up.
func Connect(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	logger := log.WithComponent("store")

	var pool *pgxpool.Pool
	operation := func() error {
		p, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			logger.Warn().Err(err).Msg("Database not reachable, retrying")
			return err
		}
		pool = p
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(backoff.WithInitialInterval(connectRetryDelay)),
			connectAttempts-1,
		),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info().Msg("Database connection established")
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the pool is healthy
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateTask inserts a new task row with status pending, progress 0 and
// attempts 0.
func (s *PostgresStore) CreateTask(ctx context.Context, task *types.Task) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tasks (id, task_type, payload, status, priority, progress, attempts, created_at, updated_at)
		 VALUES ($1, $2, $3, 'pending', $4, 0, 0, $5, $5)`,
		task.ID, task.TaskType, task.Payload, task.Priority, task.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// GetTask reads one task by ID. Returns ErrNotFound when no row matches.
func (s *PostgresStore) GetTask(ctx context.Context, id string) (*types.Task, error) {
	var task types.Task
	err := s.pool.QueryRow(ctx,
		`SELECT id, task_type, payload, status, priority, progress, attempts, created_at, updated_at
		 FROM tasks WHERE id::text = $1`, id).
		Scan(&task.ID, &task.TaskType, &task.Payload, &task.Status,
			&task.Priority, &task.Progress, &task.Attempts, &task.CreatedAt, &task.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read task: %w", err)
	}
	return &task, nil
}

// SetTaskProgress writes a progress value in [0,100]. Stored progress never
// decreases: out-of-order writers are clamped against the current value.
func (s *PostgresStore) SetTaskProgress(ctx context.Context, id string, progress int) error {
	if progress < 0 || progress > 100 {
		return fmt.Errorf("progress %d out of range [0,100]", progress)
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE tasks SET progress = GREATEST(progress, $2), updated_at = NOW() WHERE id::text = $1`,
		id, progress)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

// SetTaskStatus transitions a task's status. Rows already in a terminal
// state are left alone so redelivered duplicates converge instead of
// flapping.
func (s *PostgresStore) SetTaskStatus(ctx context.Context, id string, status types.TaskStatus) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = $2, updated_at = NOW()
		 WHERE id::text = $1 AND status NOT IN ('completed', 'failed')`,
		id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

// CompleteTask marks a task completed with progress 100 in one statement.
func (s *PostgresStore) CompleteTask(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = 'completed', progress = 100, updated_at = NOW()
		 WHERE id::text = $1 AND status NOT IN ('completed', 'failed')`,
		id)
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	return nil
}

// BumpTaskAttempts atomically increments the attempt counter and returns
// the post-increment value.
func (s *PostgresStore) BumpTaskAttempts(ctx context.Context, id string) (int, error) {
	var attempts int
	err := s.pool.QueryRow(ctx,
		`UPDATE tasks SET attempts = attempts + 1, updated_at = NOW()
		 WHERE id::text = $1 RETURNING attempts`, id).
		Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to bump attempts: %w", ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to bump attempts: %w", err)
	}
	return attempts, nil
}

// AppendLog inserts one log line for a worker. Log rows are never mutated.
func (s *PostgresStore) AppendLog(ctx context.Context, workerID, message string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO logs (worker_node_id, message) VALUES ($1, $2)`,
		workerID, message)
	if err != nil {
		return fmt.Errorf("failed to append log: %w", err)
	}
	return nil
}

// TailLogs returns the newest log entries, most recent first.
func (s *PostgresStore) TailLogs(ctx context.Context, limit int) ([]*types.LogEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT timestamp, worker_node_id, message
		 FROM logs ORDER BY timestamp DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read logs: %w", err)
	}
	defer rows.Close()

	var entries []*types.LogEntry
	for rows.Next() {
		var entry types.LogEntry
		if err := rows.Scan(&entry.Timestamp, &entry.WorkerNodeID, &entry.Message); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// UpsertWorkerNode registers a worker node or refreshes its heartbeat.
func (s *PostgresStore) UpsertWorkerNode(ctx context.Context, node *types.WorkerNode) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO worker_nodes (node_id, status, last_health_check, current_task_id)
		 VALUES ($1, $2, NOW(), $3)
		 ON CONFLICT (node_id) DO UPDATE
		 SET status = EXCLUDED.status, last_health_check = NOW(), current_task_id = EXCLUDED.current_task_id`,
		node.NodeID, node.Status, node.CurrentTaskID)
	if err != nil {
		return fmt.Errorf("failed to upsert worker node: %w", err)
	}
	return nil
}

// ListWorkerNodes returns every worker node joined with its currently
// assigned task, freshest heartbeat first.
func (s *PostgresStore) ListWorkerNodes(ctx context.Context) ([]*types.WorkerSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT wn.node_id, wn.status, wn.last_health_check,
		        t.id, t.task_type, t.status, t.progress
		 FROM worker_nodes wn
		 LEFT JOIN tasks t ON wn.current_task_id = t.id
		 ORDER BY wn.last_health_check DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list worker nodes: %w", err)
	}
	defer rows.Close()

	var workers []*types.WorkerSummary
	for rows.Next() {
		var w types.WorkerSummary
		var taskID *uuid.UUID
		var taskType, taskStatus *string
		var progress *int
		if err := rows.Scan(&w.NodeID, &w.Status, &w.LastHealthCheck,
			&taskID, &taskType, &taskStatus, &progress); err != nil {
			return nil, fmt.Errorf("failed to scan worker node: %w", err)
		}
		if taskID != nil {
			ref := &types.TaskRef{ID: *taskID}
			if taskType != nil {
				ref.TaskType = *taskType
			}
			if taskStatus != nil {
				ref.Status = types.TaskStatus(*taskStatus)
			}
			if progress != nil {
				ref.Progress = *progress
			}
			w.CurrentTask = ref
		}
		workers = append(workers, &w)
	}
	return workers, rows.Err()
}

// ListPendingTasks returns up to limit pending tasks, oldest first.
func (s *PostgresStore) ListPendingTasks(ctx context.Context, limit int) ([]*types.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, task_type, payload, status, priority, progress, attempts, created_at, updated_at
		 FROM tasks WHERE status = 'pending' ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*types.Task
	for rows.Next() {
		var task types.Task
		if err := rows.Scan(&task.ID, &task.TaskType, &task.Payload, &task.Status,
			&task.Priority, &task.Progress, &task.Attempts, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, &task)
	}
	return tasks, rows.Err()
}
