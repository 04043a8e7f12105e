package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Task lifecycle metrics
	TasksSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dtqs_tasks_submitted_total",
			Help: "Total number of tasks accepted for execution by task type",
		},
		[]string{"task_type"},
	)

	TasksCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dtqs_tasks_completed_total",
			Help: "Total number of tasks that reached the completed state",
		},
		[]string{"task_type"},
	)

	TasksFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dtqs_tasks_failed_total",
			Help: "Total number of tasks that exhausted their retry budget",
		},
		[]string{"task_type"},
	)

	TasksRetried = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dtqs_tasks_retried_total",
			Help: "Total number of executions nacked back to the queue for retry",
		},
		[]string{"task_type"},
	)

	DeliveriesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dtqs_deliveries_dropped_total",
			Help: "Total number of un-parsable deliveries acked and dropped",
		},
	)

	// Worker metrics
	ExecutionsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dtqs_executions_in_flight",
			Help: "Number of task executions currently holding an admission permit",
		},
	)

	SchedulerDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dtqs_scheduler_depth",
			Help: "Number of deliveries buffered in the priority scheduler",
		},
	)

	HandlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dtqs_handler_duration_seconds",
			Help:    "Handler execution time in seconds by task type",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		},
		[]string{"task_type"},
	)

	// Queue metrics
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dtqs_queue_depth",
			Help: "Broker-reported number of messages waiting in the task queue",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dtqs_api_requests_total",
			Help: "Total number of API requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dtqs_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SSEStreamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dtqs_sse_streams_active",
			Help: "Number of server-sent-event streams currently open",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(TasksSubmitted)
	prometheus.MustRegister(TasksCompleted)
	prometheus.MustRegister(TasksFailed)
	prometheus.MustRegister(TasksRetried)
	prometheus.MustRegister(DeliveriesDropped)
	prometheus.MustRegister(ExecutionsInFlight)
	prometheus.MustRegister(SchedulerDepth)
	prometheus.MustRegister(HandlerDuration)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(SSEStreamsActive)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
