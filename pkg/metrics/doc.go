/*
Package metrics provides Prometheus instrumentation and the component
health registry shared by every process.

All collectors are package-level, registered once in init(), and safe
for concurrent use, so any package can increment a counter without
wiring. The API server mounts Handler() at /metrics and the health
registry behind /healthz.

# Metrics Catalog

Task lifecycle:

	dtqs_tasks_submitted_total{task_type}   accepted by POST /submit
	dtqs_tasks_completed_total{task_type}   reached completed
	dtqs_tasks_failed_total{task_type}      exhausted their attempts
	dtqs_tasks_retried_total{task_type}     nacked back for another run
	dtqs_deliveries_dropped_total           poison messages acked away

Worker:

	dtqs_executions_in_flight               permits currently held (0..4)
	dtqs_scheduler_depth                    deliveries buffered in the heap
	dtqs_handler_duration_seconds{task_type} execution time histogram

Queue and API:

	dtqs_queue_depth                        broker-reported backlog
	dtqs_api_requests_total{method,path,status}
	dtqs_api_request_duration_seconds{method,path}
	dtqs_sse_streams_active                 open event streams

# Health Registry

Processes register named components and update them as dependency checks
run:

	metrics.RegisterComponent("database", true, "")
	metrics.UpdateComponent("broker", false, "channel closed")

GetHealth folds the registry into one status: unhealthy when any
component is. HealthHandler serves it as JSON, 200 when healthy and 503
otherwise, which is what the API server's /healthz delegates to.

# Usage

Counters and gauges are used inline:

	metrics.TasksCompleted.WithLabelValues(msg.TaskType).Inc()
	metrics.ExecutionsInFlight.Inc()
	defer metrics.ExecutionsInFlight.Dec()

Durations go through the Timer helper:

	timer := metrics.NewTimer()
	err := runHandler(ctx, msg)
	timer.ObserveDurationVec(metrics.HandlerDuration, msg.TaskType)

# Integration Points

  - pkg/api: request middleware, /metrics and /healthz endpoints
  - pkg/worker: execution counters, gauges, duration histogram
  - pkg/dashboard: feeds dtqs_queue_depth from its broker probe
  - cmd/dtqs: sets the version string reported by /healthz

# See Also

  - pkg/api/middleware.go for how HTTP requests are instrumented
*/
package metrics
