/*
Package worker implements the task execution side of the queue: delivery
intake, priority scheduling, bounded concurrent execution, retries, and
the worker-node heartbeat.

One worker process runs one Supervisor. The supervisor consumes broker
deliveries, orders them by priority, and executes up to four tasks at a
time through handlers that write progress and log rows to the store.

# Architecture

	┌──────────────── RabbitMQ (task_queue) ─────────────────┐
	│   manual-ack deliveries, redelivery on nack              │
	└──────────────────────────┬──────────────────────────────┘
	                           │ broker.Delivery
	┌──────────────────────────▼───── Supervisor ─────────────┐
	│                                                          │
	│  ingest goroutine          dispatch loop                 │
	│  ┌──────────────┐         ┌──────────────────────┐      │
	│  │ decode       │  Offer  │ Poll highest priority │      │
	│  │ poison-ack   ├────────▶│ acquire gate permit   │      │
	│  └──────────────┘         │ spawn execution       │      │
	│                           └──────────┬───────────┘      │
	│     scheduler (max-heap)             │ go execute()      │
	│                                      ▼                   │
	│  ┌──────────────────────────────────────────────┐       │
	│  │ execution unit (one per task, max 4)          │       │
	│  │  running → handler → completed / retry / fail │       │
	│  │  ack or nack exactly once, panics recovered   │       │
	│  └──────────────────────────────────────────────┘       │
	└──────────────────────────┬──────────────────────────────┘
	                           │ progress, status, logs
	                     Postgres (pkg/store)

# Core Components

Supervisor:
  - Owns the pipeline from delivery to settlement
  - One scheduler, one admission gate, one handler registry
  - Run blocks until the context is cancelled and the pool drains

Registry:
  - Maps task type tags to handlers (email, image, video)
  - Handlers walk fixed progress milestones with a pause per step
  - Each milestone writes a progress row and a log row

Heartbeat:
  - Registers the worker node on start, marks it offline on stop
  - Updates last_health_check every 10 seconds
  - Tracks the node's current task for the dashboard

# Task Execution

Each admitted task runs through one execution unit:

 1. Set status to running (skipped when the tag is unknown)
 2. Run the handler: milestones, 3 s pause per step, progress writes
 3. Settle the delivery based on the outcome

Settlement matrix:

	handler succeeded, completion written    → ack
	handler succeeded, completion write lost → nack (redeliver)
	handler failed, attempts < 5             → nack (redeliver)
	handler failed, attempts = 5             → mark failed, ack
	attempt count could not be updated       → nack (uncounted retry)
	handler panicked                         → recover, nack
	body not JSON                            → ack, drop (poison pill)

The broker redelivers nacked messages, so a task is retried until its
attempt count reaches five. Marking the row failed happens before the
final ack; if that write fails the message is nacked and the terminal
write is retried on redelivery.

# Worker Lifecycle

	cfg, _ := config.LoadWorker()
	st, _ := store.Connect(ctx, cfg.DatabaseURL)
	br, _ := broker.Connect(ctx, cfg.RabbitMQURL)

	deliveries, _ := br.Consume(ctx, cfg.WorkerID)

	hb := worker.NewHeartbeat(st, cfg.WorkerID)
	hb.Start(ctx)

	sup := worker.NewSupervisor(st, worker.NewRegistry(st, cfg.WorkerID), cfg.WorkerID)
	sup.SetHeartbeat(hb)
	sup.Run(ctx, deliveries) // blocks until ctx cancel + drain

	hb.Stop(stopCtx) // marks the node offline

Cancelling the context triggers a graceful shutdown: intake stops, the
dispatch loop exits, deliveries still parked in the scheduler are nacked
back to the queue, and in-flight executions finish under a detached
context so their final writes are not aborted mid-flight.

# Failure Scenarios

Store unreachable during execution:
  - Progress writes fail; the handler aborts with the error
  - The attempt bump fails too, so the delivery is nacked uncounted
  - Redelivery retries once the store recovers

Unknown task type:
  - Counted as a normal execution failure (attempt bump, retry, cap)
  - The task row is never moved to running by an unknown tag

Worker crash mid-task:
  - The unacked delivery returns to the queue automatically
  - The task row may be left in running; the redelivered execution
    rewrites it

# Integration Points

  - pkg/broker: delivery source and ack/nack settlement
  - pkg/scheduler: priority ordering between intake and admission
  - pkg/store: status, progress, attempts, logs, worker node row
  - pkg/types: message codec, constants, status enum
  - pkg/metrics: in-flight gauge, retry/fail counters, duration histogram

# Monitoring

Key metrics for worker health:

	dtqs_executions_in_flight      0..4, stuck at 4 means saturation
	dtqs_scheduler_depth           buffered backlog on this worker
	dtqs_tasks_retried_total       redeliveries caused by failures
	dtqs_tasks_failed_total        tasks that exhausted their attempts
	dtqs_handler_duration_seconds  execution time by task type

# See Also

  - pkg/scheduler for the ordering rules
  - pkg/store for the exact SQL semantics behind the writes
  - cmd/dtqs worker subcommand for process wiring
*/
package worker
