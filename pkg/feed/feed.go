package feed

import (
	"context"
	"errors"
	"time"

	"github.com/AdwayB/dtqs/pkg/log"
	"github.com/AdwayB/dtqs/pkg/store"
	"github.com/AdwayB/dtqs/pkg/types"
)

// pollInterval is the cadence of task state reads behind a stream.
const pollInterval = 2 * time.Second

// Event is one progress notification for a watched task. It is the exact
// document serialized onto the SSE wire.
type Event struct {
	TaskID   string           `json:"task_id"`
	Status   types.TaskStatus `json:"status"`
	Progress int              `json:"progress"`
}

// TaskReader is the single store read the watcher depends on.
type TaskReader interface {
	GetTask(ctx context.Context, id string) (*types.Task, error)
}

// Watcher polls task state and emits change events for subscribers.
// Streams are long-lived; the subscriber decides when to stop by
// cancelling its context.
type Watcher struct {
	store TaskReader

	// Interval is the poll cadence. NewWatcher sets the 2 s default;
	// tests shorten it.
	Interval time.Duration
}

// NewWatcher creates a watcher polling at the standard feed cadence
func NewWatcher(st TaskReader) *Watcher {
	return &Watcher{store: st, Interval: pollInterval}
}

// Watch returns a stream of events for one task. Each interval the task
// is read once: while it is still pending, or when it does not exist,
// nothing is emitted. Read errors are logged and the stream keeps going.
// The channel closes when ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context, taskID string) <-chan *Event {
	out := make(chan *Event, 1)

	go func() {
		defer close(out)

		logger := log.WithComponent("feed")
		ticker := time.NewTicker(w.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			task, err := w.store.GetTask(ctx, taskID)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				logger.Error().Err(err).Str("task_id", taskID).Msg("Failed to read task state")
				continue
			}
			if task.Status == types.TaskStatusPending {
				continue
			}

			event := &Event{TaskID: taskID, Status: task.Status, Progress: task.Progress}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
