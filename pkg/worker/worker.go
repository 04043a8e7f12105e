package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/AdwayB/dtqs/pkg/broker"
	"github.com/AdwayB/dtqs/pkg/log"
	"github.com/AdwayB/dtqs/pkg/metrics"
	"github.com/AdwayB/dtqs/pkg/scheduler"
	"github.com/AdwayB/dtqs/pkg/store"
	"github.com/AdwayB/dtqs/pkg/types"
)

// idlePoll is how long the dispatch loop sleeps when the scheduler has
// nothing buffered.
const idlePoll = 100 * time.Millisecond

// Supervisor drives the worker pipeline: consume, classify, schedule,
// admit, execute, finalize. One supervisor runs per worker process.
type Supervisor struct {
	store     store.Store
	sched     *scheduler.Scheduler
	registry  *Registry
	gate      *semaphore.Weighted
	heartbeat *Heartbeat
	workerID  string

	running sync.WaitGroup
}

// NewSupervisor creates a supervisor with a fresh scheduler and an
// admission gate sized to the global concurrency cap.
func NewSupervisor(st store.Store, registry *Registry, workerID string) *Supervisor {
	return &Supervisor{
		store:    st,
		sched:    scheduler.NewScheduler(),
		registry: registry,
		gate:     semaphore.NewWeighted(types.Concurrency),
		workerID: workerID,
	}
}

// SetHeartbeat attaches a heartbeat so executions are reflected in the
// worker's current-task column.
func (s *Supervisor) SetHeartbeat(h *Heartbeat) {
	s.heartbeat = h
}

// Run consumes deliveries until ctx is cancelled. Shutdown is graceful:
// no new executions start, buffered deliveries are nacked back to the
// queue, and in-flight executions run to completion before Run returns.
func (s *Supervisor) Run(ctx context.Context, deliveries <-chan broker.Delivery) {
	logger := log.WithWorkerID(s.workerID)
	logger.Info().Int("concurrency", types.Concurrency).Msg("Worker supervisor started")

	ingestDone := make(chan struct{})
	go func() {
		defer close(ingestDone)
		s.ingest(ctx, deliveries)
	}()

	s.dispatch(ctx)
	<-ingestDone

	// Deliveries still parked in the scheduler belong to no execution;
	// return them promptly instead of waiting for connection teardown.
	for st := s.sched.Poll(); st != nil; st = s.sched.Poll() {
		_ = st.Delivery.Nack()
	}
	metrics.SchedulerDepth.Set(0)

	s.running.Wait()
	logger.Info().Msg("Worker drained, shutting down")
}

// ingest pulls deliveries, decodes them, and offers them to the
// scheduler. Un-parsable messages are acked and dropped: nacking them
// would redeliver them forever.
func (s *Supervisor) ingest(ctx context.Context, deliveries <-chan broker.Delivery) {
	logger := log.WithWorkerID(s.workerID)

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			msg, err := types.DecodeTaskMessage(d.Body())
			if err != nil {
				logger.Error().Err(err).Msg("Failed to parse task")
				metrics.DeliveriesDropped.Inc()
				if ackErr := d.Ack(); ackErr != nil {
					logger.Error().Err(ackErr).Msg("Failed to ack poison message")
				}
				continue
			}
			s.sched.Offer(&scheduler.ScheduledTask{
				Priority: msg.Priority,
				Delivery: d,
				Message:  msg,
			})
			metrics.SchedulerDepth.Set(float64(s.sched.Len()))
		}
	}
}

// dispatch polls the scheduler and spawns one execution unit per task,
// blocking on the admission gate when the pool is saturated.
func (s *Supervisor) dispatch(ctx context.Context) {
	for {
		st := s.sched.Poll()
		if st == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(idlePoll):
			}
			continue
		}
		metrics.SchedulerDepth.Set(float64(s.sched.Len()))

		if err := s.gate.Acquire(ctx, 1); err != nil {
			// Shutdown while waiting for a permit; the polled delivery
			// returns to the queue.
			_ = st.Delivery.Nack()
			return
		}

		s.running.Add(1)
		// Executions outlive cancellation: graceful shutdown lets
		// in-flight tasks finish rather than aborting their writes.
		go s.execute(context.WithoutCancel(ctx), st)
	}
}

// execute owns one delivery from admission to settlement. Every exit
// path releases the permit and acks or nacks the delivery exactly once,
// including panics.
func (s *Supervisor) execute(ctx context.Context, st *scheduler.ScheduledTask) {
	msg := st.Message
	logger := log.WithWorkerID(s.workerID)
	settled := false

	metrics.ExecutionsInFlight.Inc()
	s.trackStart(msg.TaskID)

	defer s.running.Done()
	defer s.gate.Release(1)
	defer func() {
		s.trackFinish(msg.TaskID)
		metrics.ExecutionsInFlight.Dec()
		if r := recover(); r != nil {
			logger.Error().Str("task_id", msg.TaskID).Interface("panic", r).Msg("Handler panicked")
			if !settled {
				_ = st.Delivery.Nack()
			}
		}
	}()

	timer := metrics.NewTimer()
	err := s.runHandler(ctx, msg)
	timer.ObserveDurationVec(metrics.HandlerDuration, msg.TaskType)

	if err == nil {
		logger.Info().Str("task_id", msg.TaskID).Msg("Task processed successfully")
		if storeErr := s.store.CompleteTask(ctx, msg.TaskID); storeErr != nil {
			logger.Error().Err(storeErr).Str("task_id", msg.TaskID).Msg("Failed to record completion")
			settled = true
			_ = st.Delivery.Nack()
			return
		}
		metrics.TasksCompleted.WithLabelValues(msg.TaskType).Inc()
		settled = true
		_ = st.Delivery.Ack()
		return
	}

	logger.Error().Err(err).Str("task_id", msg.TaskID).Msg("Processing failed")

	attempts, bumpErr := s.store.BumpTaskAttempts(ctx, msg.TaskID)
	if bumpErr != nil {
		// Can't count the failure; let redelivery retry the whole
		// execution.
		logger.Error().Err(bumpErr).Str("task_id", msg.TaskID).Msg("Failed to update attempt count")
		settled = true
		_ = st.Delivery.Nack()
		return
	}

	if attempts < types.MaxAttempts {
		logger.Error().Str("task_id", msg.TaskID).Int("attempt", attempts).Msg("Retrying task")
		metrics.TasksRetried.WithLabelValues(msg.TaskType).Inc()
		settled = true
		_ = st.Delivery.Nack()
		return
	}

	logger.Error().Str("task_id", msg.TaskID).Msg("Max attempts reached, marking task as failed")
	if storeErr := s.store.SetTaskStatus(ctx, msg.TaskID, types.TaskStatusFailed); storeErr != nil {
		logger.Error().Err(storeErr).Str("task_id", msg.TaskID).Msg("Failed to mark task as failed")
		settled = true
		_ = st.Delivery.Nack()
		return
	}
	metrics.TasksFailed.WithLabelValues(msg.TaskType).Inc()
	settled = true
	_ = st.Delivery.Ack()
}

// runHandler resolves and runs the handler for one message. The running
// status is written only after the tag resolves; an unknown tag must not
// touch the task row.
func (s *Supervisor) runHandler(ctx context.Context, msg *types.TaskMessage) error {
	handler, ok := s.registry.Lookup(msg.TaskType)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTaskType, msg.TaskType)
	}
	if err := s.store.SetTaskStatus(ctx, msg.TaskID, types.TaskStatusRunning); err != nil {
		return err
	}
	return handler(ctx, msg)
}

func (s *Supervisor) trackStart(taskID string) {
	if s.heartbeat == nil {
		return
	}
	if id, err := uuid.Parse(taskID); err == nil {
		s.heartbeat.TaskStarted(id)
	}
}

func (s *Supervisor) trackFinish(taskID string) {
	if s.heartbeat == nil {
		return
	}
	if id, err := uuid.Parse(taskID); err == nil {
		s.heartbeat.TaskFinished(id)
	}
}
