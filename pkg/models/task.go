package models

import "time"

// TaskStatus is the lifecycle state of a durable queue task.
type TaskStatus string

// Recognized task statuses.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusDeadLetter TaskStatus = "dead_letter"
)

// TaskType enumerates the task payloads the worker loop dispatches on.
type TaskType string

// Recognized task types.
const (
	TaskTypeGraphRun        TaskType = "graph_run"
	TaskTypeMissionContinue TaskType = "mission_continue"
)

// Task is a durable queue task record.
type Task struct {
	TaskID      string                 `json:"task_id"`
	TaskType    TaskType               `json:"task_type"`
	Payload     map[string]interface{} `json:"payload"`
	Status      TaskStatus             `json:"status"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
	Error       string                 `json:"error,omitempty"`
	Result      map[string]interface{} `json:"result,omitempty"`
	Domain      string                 `json:"domain,omitempty"`
	Source      string                 `json:"source,omitempty"`
	Agent       string                 `json:"agent,omitempty"`
	HeartbeatAt *time.Time             `json:"heartbeat_at,omitempty"`
}

// EnqueueOptions configures Enqueue.
type EnqueueOptions struct {
	Domain     string
	Source     string
	Agent      string
	MaxRetries int
}

// DefaultMaxRetries is used by Enqueue when EnqueueOptions.MaxRetries is unset.
const DefaultMaxRetries = 3
