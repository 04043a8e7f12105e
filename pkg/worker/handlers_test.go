package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdwayB/dtqs/pkg/types"
)

func TestHandlerMilestones(t *testing.T) {
	tests := []struct {
		taskType     string
		wantProgress []int
		wantPauses   int
	}{
		{
			taskType:     types.TaskTypeEmail,
			wantProgress: []int{20, 40, 60, 80, 100, 100},
			wantPauses:   5,
		},
		{
			taskType:     types.TaskTypeVideo,
			wantProgress: []int{25, 50, 75, 100, 100},
			wantPauses:   4,
		},
		{
			taskType:     types.TaskTypeImage,
			wantProgress: []int{50, 100, 100},
			wantPauses:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.taskType, func(t *testing.T) {
			st := newRecordingStore()
			registry := NewRegistry(st, "worker-1")

			pauses := 0
			registry.sleep = func(ctx context.Context, d time.Duration) error {
				assert.Equal(t, stepPause, d)
				pauses++
				return nil
			}

			handler, ok := registry.Lookup(tt.taskType)
			require.True(t, ok)

			id := uuid.NewString()
			err := handler(context.Background(), &types.TaskMessage{TaskID: id, TaskType: tt.taskType})
			require.NoError(t, err)

			assert.Equal(t, tt.wantProgress, st.progressFor(id))
			assert.Equal(t, tt.wantPauses, pauses)
		})
	}
}

func TestHandlerLogLines(t *testing.T) {
	st := newRecordingStore()
	registry := NewRegistry(st, "worker-1")
	registry.sleep = instantSleep

	handler, ok := registry.Lookup(types.TaskTypeImage)
	require.True(t, ok)

	id := uuid.NewString()
	require.NoError(t, handler(context.Background(), &types.TaskMessage{TaskID: id, TaskType: types.TaskTypeImage}))

	want := []string{
		"Started image task " + id,
		"Image task " + id + " progress 50%",
		"Image task " + id + " progress 100%",
		"Completed image task " + id,
	}
	assert.Equal(t, want, st.logLines())
}

func TestHandlerMissingTaskID(t *testing.T) {
	st := newRecordingStore()
	registry := NewRegistry(st, "worker-1")
	registry.sleep = instantSleep

	handler, ok := registry.Lookup(types.TaskTypeEmail)
	require.True(t, ok)

	err := handler(context.Background(), &types.TaskMessage{TaskType: types.TaskTypeEmail})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing task_id")
	assert.Empty(t, st.logLines())
}

func TestHandlerStoreErrorAborts(t *testing.T) {
	st := newRecordingStore()
	st.progressErr = errors.New("connection reset")
	registry := NewRegistry(st, "worker-1")
	registry.sleep = instantSleep

	handler, ok := registry.Lookup(types.TaskTypeVideo)
	require.True(t, ok)

	id := uuid.NewString()
	err := handler(context.Background(), &types.TaskMessage{TaskID: id, TaskType: types.TaskTypeVideo})
	require.Error(t, err)

	// The run stops at the first failed write: only the start line landed.
	assert.Equal(t, []string{"Started video task " + id}, st.logLines())
	assert.Empty(t, st.progressFor(id))
}

func TestLookupUnknownType(t *testing.T) {
	registry := NewRegistry(newRecordingStore(), "worker-1")

	for _, tag := range []string{"audio", "", "EMAIL", "pdf"} {
		_, ok := registry.Lookup(tag)
		assert.False(t, ok, "tag %q must not resolve", tag)
	}
}

func TestSleepCtxCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleepCtx(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)

	start := time.Now()
	require.NoError(t, sleepCtx(context.Background(), time.Millisecond))
	assert.Less(t, time.Since(start), time.Second)
}
