package dashboard

import (
	"context"
	"time"

	"github.com/AdwayB/dtqs/pkg/log"
	"github.com/AdwayB/dtqs/pkg/metrics"
	"github.com/AdwayB/dtqs/pkg/types"
)

// Snapshot cadence and section sizes.
const (
	refreshInterval   = 2 * time.Second
	pendingTasksShown = 5
	logLinesShown     = 20
)

// StoreReader is the slice of the store the collector reads.
type StoreReader interface {
	ListWorkerNodes(ctx context.Context) ([]*types.WorkerSummary, error)
	ListPendingTasks(ctx context.Context, limit int) ([]*types.Task, error)
	TailLogs(ctx context.Context, limit int) ([]*types.LogEntry, error)
}

// DepthReader reports how many messages the broker still holds.
type DepthReader interface {
	QueueDepth() (int, error)
}

// Collector periodically assembles dashboard snapshots. Each snapshot is
// one atomic value; consumers never see a half-updated view.
type Collector struct {
	store    StoreReader
	broker   DepthReader
	interval time.Duration
}

// NewCollector creates a collector on the standard refresh cadence
func NewCollector(st StoreReader, br DepthReader) *Collector {
	return &Collector{store: st, broker: br, interval: refreshInterval}
}

// Run emits snapshots until ctx is cancelled, starting with an immediate
// one so the UI never opens empty. The channel closes on cancellation.
func (c *Collector) Run(ctx context.Context) <-chan *types.Snapshot {
	out := make(chan *types.Snapshot, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			snap := c.collect(ctx)
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}

// collect reads each section independently: a failing section degrades to
// empty rather than poisoning the whole snapshot.
func (c *Collector) collect(ctx context.Context) *types.Snapshot {
	logger := log.WithComponent("dashboard")
	snap := &types.Snapshot{CollectedAt: time.Now()}

	workers, err := c.store.ListWorkerNodes(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list worker nodes")
	} else {
		snap.Workers = workers
	}

	pending, err := c.store.ListPendingTasks(ctx, pendingTasksShown)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list pending tasks")
	} else {
		snap.QueuedTasks = pending
	}

	logs, err := c.store.TailLogs(ctx, logLinesShown)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read logs")
	} else {
		snap.Logs = logs
	}

	depth, err := c.broker.QueueDepth()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read queue depth")
	} else {
		snap.BrokerDepth = depth
		metrics.QueueDepth.Set(float64(depth))
	}

	return snap
}
