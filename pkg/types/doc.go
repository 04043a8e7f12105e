/*
Package types defines the core data structures shared across the system.

The domain model mirrors the store schema: Task is the central record, a
WorkerNode row represents one worker process, and LogEntry rows are the
append-only execution trail. TaskMessage is the broker wire format. All
lifecycle and capacity constants live here so the worker, API, and store
packages agree on them without import cycles.

# Core Types

Task:
  - One unit of submitted work and its current state
  - Status, Priority, Progress and Attempts evolve as workers run it
  - Payload is an opaque document only the handler interprets

TaskMessage:
  - The JSON published to the queue: {task_id, task_type, payload,
    priority}
  - Payload stays raw bytes end to end; the broker path never parses it

WorkerNode / WorkerSummary / Snapshot:
  - The dashboard's view of the cluster: node health, current task,
    pending backlog, recent logs, broker depth

# State Machine

	pending ──▶ running ──▶ completed
	               │
	               └──────▶ failed   (after 5 attempts)

Completed and failed are terminal; TaskStatus.Terminal reports that.
A retried task moves back through running on each redelivery, but a
terminal row never transitions again.

# Wire Format Tolerance

DecodeTaskMessage accepts what well-behaved and not-so-well-behaved
producers publish:

  - missing priority: defaults to 5
  - non-integer or negative priority: defaults to 5
  - priority above 255: clamped to 255
  - anything else malformed: an error, the consumer's poison-pill signal

ClampPriority applies the same 0..255 rule at submission.

# Constants

	DefaultPriority  5     assigned when a submission omits priority
	MaxPriority      255   top of the priority range
	MaxAttempts      5     executions before a task is marked failed
	Concurrency      4     simultaneous executions per worker
	QueueName        task_queue

# Integration Points

  - pkg/store: rows scan into these structs
  - pkg/broker, pkg/worker: TaskMessage rides every delivery
  - pkg/api: Task and TaskMessage bridge HTTP to store and queue
  - pkg/dashboard: Snapshot is the collector's output type
*/
package types
