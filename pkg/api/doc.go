/*
Package api implements the HTTP API server for task submission and progress streaming.

The api package is the front door of the queue: clients POST task manifests to
it, it validates and persists them, publishes them to the broker for the worker
fleet, and streams per-task progress back over Server-Sent Events. It also
exposes the health and Prometheus endpoints for the server process.

# Architecture

The server sits between clients and the queue infrastructure:

	┌────────────────────── CLIENT ──────────────────────┐
	│                                                     │
	│   POST /submit                GET /sse?task_id=X    │
	│   {task_type, payload,        (Server-Sent Events)  │
	│    priority}                                        │
	└─────────┬───────────────────────────┬───────────────┘
	          │                           │
	┌─────────▼───────────────────────────▼───────────────┐
	│                 HTTP API (pkg/api)                   │
	│                                                      │
	│  ┌────────────┐  ┌─────────────┐  ┌──────────────┐  │
	│  │  validate  │  │    store    │  │  feed.Watcher │ │
	│  │  payload   │  │  CreateTask │  │  poll + emit  │ │
	│  └─────┬──────┘  └──────┬──────┘  └──────┬───────┘  │
	│        │                │                │          │
	│  ┌─────▼────────────────▼─────┐          │          │
	│  │   broker.Publish(message)  │          │          │
	│  └────────────────────────────┘          │          │
	└──────────┬────────────────────────────────┬─────────┘
	           │                                │
	      RabbitMQ queue                   Postgres tasks

# Endpoints

	POST /submit    Validate, persist, and enqueue a task.
	GET  /sse       Stream status/progress events for one task.
	GET  /healthz   Aggregate health of database and broker.
	GET  /metrics   Prometheus metrics.

Submit accepts a JSON body:

	{
	  "task_type": "email",
	  "payload": {"recipient": "a@b.c", "subject": "hi", "content": "..."},
	  "priority": 7
	}

and answers with the task ID and the SSE URL to follow:

	{
	  "task_id": "6fa1...",
	  "status": "submitted",
	  "sse_url": "/sse?task_id=6fa1..."
	}

Priority is optional; absent or out-of-range values are normalized before
the task is enqueued.

# Validation

Requests are rejected at the boundary, before anything is persisted:

  - Unknown task_type: 400 "Unsupported task type"
  - Missing payload field: 400 "Missing field '<name>'"
  - Unsafe payload value: 400 "Invalid or unsafe value for field '<name>'"
  - Malformed JSON: 400 "Invalid JSON body"

Error responses carry a JSON body:

	{"error": "Missing field 'subject'"}

Validation rules live in pkg/validate so the worker side can share them.

# SSE Streaming

GET /sse?task_id=<uuid> holds the connection open and writes one event per
observed change:

	data: {"task_id":"6fa1...","status":"running","progress":40}

	data: {"task_id":"6fa1...","status":"completed","progress":100}

The stream is backed by feed.Watcher, which polls the store and emits only
on change. The stream ends when the client disconnects; a completed or
failed task keeps emitting its terminal state so late subscribers still
see the outcome. WriteTimeout is disabled on the underlying http.Server
because SSE connections are intentionally long-lived.

# Usage

Creating and starting the server:

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("store")
	}
	br, err := broker.Connect(ctx, cfg.RabbitMQURL)
	if err != nil {
		log.Fatal().Err(err).Msg("broker")
	}

	srv := api.NewServer(st, br, feed.NewWatcher(st))
	if err := srv.Start(cfg.ServerPort); err != nil {
		log.Fatal().Err(err).Msg("api server")
	}

Start blocks until Shutdown is called; Shutdown drains in-flight requests:

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)

# Metrics Instrumentation

Every route is wrapped by middleware recording:

	dtqs_api_requests_total{method, path, status}
	dtqs_api_request_duration_seconds{method, path}
	dtqs_sse_streams_active

plus dtqs_tasks_submitted_total{task_type} on successful submission.

# Integration Points

This package integrates with:

  - pkg/store: task persistence and health probe
  - pkg/broker: message publication and queue depth probe
  - pkg/feed: change detection behind the SSE stream
  - pkg/validate: payload validation rules
  - pkg/metrics: request metrics and component health registry
  - pkg/client: Go client for the submit endpoint

# See Also

  - pkg/worker for what happens to a task after publication
  - pkg/client for programmatic submission
*/
package api
