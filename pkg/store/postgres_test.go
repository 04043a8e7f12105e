package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdwayB/dtqs/pkg/types"
)

func TestSetTaskProgressRange(t *testing.T) {
	s := &PostgresStore{}

	tests := []struct {
		name     string
		progress int
		wantErr  bool
	}{
		{name: "negative", progress: -1, wantErr: true},
		{name: "over 100", progress: 101, wantErr: true},
		{name: "far over", progress: 900, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.SetTaskProgress(context.Background(), uuid.NewString(), tt.progress)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// newTestStore connects to the database named by DATABASE_URL and applies
// the schema. Tests that need a live database are skipped when the
// variable is unset.
func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping database tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Migrate(ctx))
	return s
}

func newTestTask(taskType string) *types.Task {
	return &types.Task{
		ID:        uuid.New(),
		TaskType:  taskType,
		Payload:   map[string]any{"from": "a@b.c", "to": "d@e.f", "subject": "hi", "content": "hello"},
		Status:    types.TaskStatusPending,
		Priority:  types.DefaultPriority,
		CreatedAt: time.Now().UTC(),
	}
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := newTestTask(types.TaskTypeEmail)
	require.NoError(t, s.CreateTask(ctx, task))

	got, err := s.GetTask(ctx, task.ID.String())
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, types.TaskStatusPending, got.Status)
	assert.Equal(t, 0, got.Progress)
	assert.Equal(t, 0, got.Attempts)
	assert.Equal(t, types.DefaultPriority, got.Priority)

	require.NoError(t, s.SetTaskStatus(ctx, task.ID.String(), types.TaskStatusRunning))
	require.NoError(t, s.SetTaskProgress(ctx, task.ID.String(), 40))

	got, err = s.GetTask(ctx, task.ID.String())
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusRunning, got.Status)
	assert.Equal(t, 40, got.Progress)

	require.NoError(t, s.CompleteTask(ctx, task.ID.String()))
	got, err = s.GetTask(ctx, task.ID.String())
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
}

func TestGetTaskNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetTask(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProgressNeverDecreases(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := newTestTask(types.TaskTypeVideo)
	require.NoError(t, s.CreateTask(ctx, task))

	require.NoError(t, s.SetTaskProgress(ctx, task.ID.String(), 75))
	require.NoError(t, s.SetTaskProgress(ctx, task.ID.String(), 50))

	got, err := s.GetTask(ctx, task.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 75, got.Progress)
}

func TestTerminalStatusIsSticky(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := newTestTask(types.TaskTypeImage)
	require.NoError(t, s.CreateTask(ctx, task))
	require.NoError(t, s.SetTaskStatus(ctx, task.ID.String(), types.TaskStatusFailed))

	// A redelivered duplicate must not resurrect the task.
	require.NoError(t, s.SetTaskStatus(ctx, task.ID.String(), types.TaskStatusRunning))
	require.NoError(t, s.CompleteTask(ctx, task.ID.String()))

	got, err := s.GetTask(ctx, task.ID.String())
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusFailed, got.Status)
}

func TestBumpTaskAttempts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := newTestTask(types.TaskTypeEmail)
	require.NoError(t, s.CreateTask(ctx, task))

	for want := 1; want <= 3; want++ {
		attempts, err := s.BumpTaskAttempts(ctx, task.ID.String())
		require.NoError(t, err)
		assert.Equal(t, want, attempts)
	}
}

func TestTailLogsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	workerID := fmt.Sprintf("test-worker-%s", uuid.NewString())
	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendLog(ctx, workerID, fmt.Sprintf("line %d", i)))
	}

	entries, err := s.TailLogs(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].Timestamp.After(entries[i-1].Timestamp))
	}
}

func TestWorkerNodeUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := newTestTask(types.TaskTypeEmail)
	require.NoError(t, s.CreateTask(ctx, task))

	nodeID := fmt.Sprintf("test-node-%s", uuid.NewString())
	node := &types.WorkerNode{NodeID: nodeID, Status: types.WorkerStatusActive}
	require.NoError(t, s.UpsertWorkerNode(ctx, node))

	node.CurrentTaskID = &task.ID
	require.NoError(t, s.UpsertWorkerNode(ctx, node))

	workers, err := s.ListWorkerNodes(ctx)
	require.NoError(t, err)

	var found *types.WorkerSummary
	for _, w := range workers {
		if w.NodeID == nodeID {
			found = w
			break
		}
	}
	require.NotNil(t, found, "upserted node missing from listing")
	assert.Equal(t, types.WorkerStatusActive, found.Status)
	require.NotNil(t, found.CurrentTask)
	assert.Equal(t, task.ID, found.CurrentTask.ID)
	assert.Equal(t, types.TaskTypeEmail, found.CurrentTask.TaskType)
}

func TestListPendingTasksOldestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := newTestTask(types.TaskTypeEmail)
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := newTestTask(types.TaskTypeEmail)
	require.NoError(t, s.CreateTask(ctx, older))
	require.NoError(t, s.CreateTask(ctx, newer))

	tasks, err := s.ListPendingTasks(ctx, 100)
	require.NoError(t, err)

	posOlder, posNewer := -1, -1
	for i, task := range tasks {
		switch task.ID {
		case older.ID:
			posOlder = i
		case newer.ID:
			posNewer = i
		}
	}
	require.NotEqual(t, -1, posOlder)
	require.NotEqual(t, -1, posNewer)
	assert.Less(t, posOlder, posNewer)
}
