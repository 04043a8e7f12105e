package types

import (
	"time"

	"github.com/google/uuid"
)

// System-wide constants. MaxAttempts and Concurrency bound the retry and
// execution behavior of every worker process.
const (
	// DefaultPriority is assigned when a submission or broker message
	// carries no usable priority.
	DefaultPriority = 5

	// MaxPriority is the upper bound of the priority range (0-255).
	MaxPriority = 255

	// MaxAttempts is the number of executions a task is allowed before it
	// is marked failed and permanently removed from the queue.
	MaxAttempts = 5

	// Concurrency is the number of task executions a single worker process
	// runs at once.
	Concurrency = 4

	// QueueName is the broker queue all task messages flow through.
	QueueName = "task_queue"
)

// TaskStatus represents the lifecycle state of a task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Terminal reports whether the status is final. Terminal tasks never
// transition again.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Task type tags. Each tag maps to a registered handler on the worker.
const (
	TaskTypeEmail = "email"
	TaskTypeImage = "image"
	TaskTypeVideo = "video"
)

// KnownTaskType reports whether the tag names one of the supported task
// families.
func KnownTaskType(tag string) bool {
	switch tag {
	case TaskTypeEmail, TaskTypeImage, TaskTypeVideo:
		return true
	}
	return false
}

// ClampPriority forces a priority into the valid 0-255 range.
func ClampPriority(p int) int {
	if p < 0 {
		return 0
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}

// Task is the central record: one unit of submitted work and its current
// state in the store.
type Task struct {
	ID        uuid.UUID      `json:"id"`
	TaskType  string         `json:"task_type"`
	Payload   map[string]any `json:"payload"`
	Status    TaskStatus     `json:"status"`
	Priority  int            `json:"priority"`
	Progress  int            `json:"progress"`
	Attempts  int            `json:"attempts"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// WorkerNode is one worker process as seen from the store. A node owns at
// most one current task at a time.
type WorkerNode struct {
	NodeID          string     `json:"node_id"`
	Status          string     `json:"status"`
	LastHealthCheck time.Time  `json:"last_health_check"`
	CurrentTaskID   *uuid.UUID `json:"current_task_id,omitempty"`
}

// Worker node statuses written by the heartbeat loop.
const (
	WorkerStatusActive  = "active"
	WorkerStatusOffline = "offline"
)

// LogEntry is one append-only log line written by a worker during task
// execution. The dashboard tails these.
type LogEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	WorkerNodeID string    `json:"worker_node_id"`
	Message      string    `json:"message"`
}

// TaskRef is the compact task view embedded in dashboard rows.
type TaskRef struct {
	ID       uuid.UUID  `json:"id"`
	TaskType string     `json:"task_type"`
	Status   TaskStatus `json:"status"`
	Progress int        `json:"progress"`
}

// WorkerSummary pairs a worker node with its currently assigned task, if
// any, for the dashboard overview.
type WorkerSummary struct {
	NodeID          string    `json:"node_id"`
	Status          string    `json:"status"`
	LastHealthCheck time.Time `json:"last_health_check"`
	CurrentTask     *TaskRef  `json:"current_task,omitempty"`
}

// Snapshot is one atomic dashboard view: every worker node, the oldest
// pending tasks, the newest log lines, and the broker's own count of
// messages still sitting in the queue.
type Snapshot struct {
	Workers     []*WorkerSummary `json:"workers"`
	QueuedTasks []*Task          `json:"queued_tasks"`
	Logs        []*LogEntry      `json:"logs"`
	BrokerDepth int              `json:"broker_depth"`
	CollectedAt time.Time        `json:"collected_at"`
}
