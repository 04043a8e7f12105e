package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AdwayB/dtqs/pkg/log"
	"github.com/AdwayB/dtqs/pkg/store"
	"github.com/AdwayB/dtqs/pkg/types"
)

// heartbeatInterval is how often the worker refreshes its row in the
// store. The dashboard reads last_health_check as liveness.
const heartbeatInterval = 10 * time.Second

// Heartbeat keeps this worker registered in the store. It reports status
// active while running and flips the row to offline on shutdown. With
// several executions in flight, the oldest one is reported as the node's
// current task.
type Heartbeat struct {
	store    store.Store
	workerID string
	interval time.Duration

	mu       sync.Mutex
	inflight []uuid.UUID

	stopCh chan struct{}
	done   chan struct{}
}

// NewHeartbeat creates a heartbeat for one worker process
func NewHeartbeat(st store.Store, workerID string) *Heartbeat {
	return &Heartbeat{
		store:    st,
		workerID: workerID,
		interval: heartbeatInterval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start registers the worker as active and begins the refresh loop. The
// first upsert is synchronous so a worker that cannot register fails
// fast.
func (h *Heartbeat) Start(ctx context.Context) error {
	if err := h.beat(ctx); err != nil {
		return err
	}
	logger := log.WithWorkerID(h.workerID)
	logger.Info().Msg("Worker registered")
	go h.loop()
	return nil
}

// Stop halts the refresh loop and marks the worker offline
func (h *Heartbeat) Stop(ctx context.Context) {
	close(h.stopCh)
	<-h.done

	node := &types.WorkerNode{NodeID: h.workerID, Status: types.WorkerStatusOffline}
	if err := h.store.UpsertWorkerNode(ctx, node); err != nil {
		logger := log.WithWorkerID(h.workerID)
		logger.Error().Err(err).Msg("Failed to mark worker offline")
	}
}

// TaskStarted records an execution start
func (h *Heartbeat) TaskStarted(id uuid.UUID) {
	h.mu.Lock()
	h.inflight = append(h.inflight, id)
	h.mu.Unlock()
}

// TaskFinished clears a finished execution
func (h *Heartbeat) TaskFinished(id uuid.UUID) {
	h.mu.Lock()
	for i, v := range h.inflight {
		if v == id {
			h.inflight = append(h.inflight[:i], h.inflight[i+1:]...)
			break
		}
	}
	h.mu.Unlock()
}

func (h *Heartbeat) loop() {
	defer close(h.done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := h.beat(context.Background()); err != nil {
				logger := log.WithWorkerID(h.workerID)
				logger.Error().Err(err).Msg("Heartbeat failed")
			}
		case <-h.stopCh:
			return
		}
	}
}

func (h *Heartbeat) beat(ctx context.Context) error {
	return h.store.UpsertWorkerNode(ctx, &types.WorkerNode{
		NodeID:        h.workerID,
		Status:        types.WorkerStatusActive,
		CurrentTaskID: h.currentTask(),
	})
}

func (h *Heartbeat) currentTask() *uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.inflight) == 0 {
		return nil
	}
	id := h.inflight[0]
	return &id
}
