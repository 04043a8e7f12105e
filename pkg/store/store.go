package store

import (
	"context"
	"errors"

	"github.com/AdwayB/dtqs/pkg/types"
)

// ErrNotFound is returned by point reads when no row matches.
var ErrNotFound = errors.New("not found")

// Store defines the interface for canonical task state.
// Every method is a single atomic statement against the backing database;
// no multi-statement transactions cross method boundaries.
type Store interface {
	// Tasks
	CreateTask(ctx context.Context, task *types.Task) error
	GetTask(ctx context.Context, id string) (*types.Task, error)
	SetTaskProgress(ctx context.Context, id string, progress int) error
	SetTaskStatus(ctx context.Context, id string, status types.TaskStatus) error
	CompleteTask(ctx context.Context, id string) error
	BumpTaskAttempts(ctx context.Context, id string) (int, error)

	// Logs
	AppendLog(ctx context.Context, workerID, message string) error
	TailLogs(ctx context.Context, limit int) ([]*types.LogEntry, error)

	// Worker nodes
	UpsertWorkerNode(ctx context.Context, node *types.WorkerNode) error
	ListWorkerNodes(ctx context.Context) ([]*types.WorkerSummary, error)

	// Dashboard reads
	ListPendingTasks(ctx context.Context, limit int) ([]*types.Task, error)

	// Utility
	Ping(ctx context.Context) error
	Close()
}
