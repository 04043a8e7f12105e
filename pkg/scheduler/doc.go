/*
Package scheduler reorders consumed deliveries by priority before they
reach the execution pool.

The queue itself is FIFO; priorities are honored in-process. The worker's
ingest goroutine offers every decoded delivery to the scheduler, and the
dispatch loop polls the highest-priority one whenever an execution slot
frees up. Everything buffered stays unacked at the broker, so nothing is
lost if the worker dies while messages wait their turn.

# Ordering

Two rules, applied in order:

 1. Higher priority first (0 is lowest, 255 highest)
 2. Equal priorities in arrival order

The tie-break uses a monotonically increasing sequence number assigned
at Offer time, so a given backlog always dispatches the same way within
one run. Arrival order restarts at zero with each new scheduler; it is
not preserved across worker restarts.

# Usage

	sched := scheduler.NewScheduler()

	// ingest side
	sched.Offer(&scheduler.ScheduledTask{
		Priority: msg.Priority,
		Delivery: d,
		Message:  msg,
	})

	// dispatch side
	if st := sched.Poll(); st != nil {
		// st's delivery is now owned by the caller, settle it
	}

Offer never blocks beyond the internal lock and never rejects; the
buffer is unbounded because the broker already bounds what a worker can
be holding unacked. Poll returns nil on empty, and the dispatch loop
sleeps briefly before polling again.

# Concurrency

One mutex guards the heap. Offer and Poll are safe to call from
different goroutines, which is exactly how the worker uses them: one
ingest goroutine feeding, one dispatch loop draining.

# Integration Points

  - pkg/worker: the only producer and consumer of scheduled tasks
  - pkg/broker: the Delivery riding inside each ScheduledTask
  - pkg/metrics: dtqs_scheduler_depth gauge tracks the buffer size

# See Also

  - pkg/worker for what happens after Poll
*/
package scheduler
