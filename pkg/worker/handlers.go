package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AdwayB/dtqs/pkg/log"
	"github.com/AdwayB/dtqs/pkg/store"
	"github.com/AdwayB/dtqs/pkg/types"
)

// ErrUnknownTaskType marks an execution that failed because no handler is
// registered for the message's tag. It counts against the task's attempts
// like any other failure.
var ErrUnknownTaskType = errors.New("unknown task type")

// stepPause separates consecutive progress milestones inside a handler.
const stepPause = 3 * time.Second

// milestones lists the progress values each task family walks through.
// Every family ends at 100; the families differ only in granularity.
var milestones = map[string][]int{
	types.TaskTypeEmail: {20, 40, 60, 80, 100},
	types.TaskTypeVideo: {25, 50, 75, 100},
	types.TaskTypeImage: {50, 100},
}

// Handler executes one decoded task message to completion. A non-nil
// error tells the supervisor the execution failed and is retryable.
type Handler func(ctx context.Context, msg *types.TaskMessage) error

// SleepFunc pauses between milestones. Production uses a context-aware
// sleep; tests swap in a no-op to run handlers instantly.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Registry maps task-type tags to handlers bound to this worker's store
// handle and identity.
type Registry struct {
	store    store.Store
	workerID string
	sleep    SleepFunc
}

// NewRegistry creates a handler registry for one worker process
func NewRegistry(st store.Store, workerID string) *Registry {
	return &Registry{store: st, workerID: workerID, sleep: sleepCtx}
}

// Lookup returns the handler for a task-type tag. A miss means the tag is
// not one of the supported task families.
func (r *Registry) Lookup(taskType string) (Handler, bool) {
	steps, ok := milestones[taskType]
	if !ok {
		return nil, false
	}
	return func(ctx context.Context, msg *types.TaskMessage) error {
		return r.run(ctx, taskType, steps, msg)
	}, true
}

// run walks a task through its progress milestones, mirroring each store
// progress write with an execution log line. Any store error aborts the
// run and surfaces to the supervisor as an execution failure.
func (r *Registry) run(ctx context.Context, taskType string, steps []int, msg *types.TaskMessage) error {
	if msg.TaskID == "" {
		return fmt.Errorf("missing task_id in %s task", taskType)
	}

	logger := log.WithWorkerID(r.workerID)
	logger.Info().Str("task_id", msg.TaskID).Msgf("Processing %s task", taskType)

	if err := r.store.AppendLog(ctx, r.workerID, fmt.Sprintf("Started %s task %s", taskType, msg.TaskID)); err != nil {
		return err
	}

	display := strings.ToUpper(taskType[:1]) + taskType[1:]
	for _, v := range steps {
		if err := r.sleep(ctx, stepPause); err != nil {
			return err
		}
		if err := r.store.SetTaskProgress(ctx, msg.TaskID, v); err != nil {
			return err
		}
		line := fmt.Sprintf("%s task %s progress %d%%", display, msg.TaskID, v)
		if err := r.store.AppendLog(ctx, r.workerID, line); err != nil {
			return err
		}
	}

	if err := r.store.SetTaskProgress(ctx, msg.TaskID, 100); err != nil {
		return err
	}
	return r.store.AppendLog(ctx, r.workerID, fmt.Sprintf("Completed %s task %s", taskType, msg.TaskID))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
