// Package queue implements the durable task queue: a Postgres-backed store
// with enqueue/dequeue/complete/fail/heartbeat operations, a fixed-interval
// worker loop that dispatches by task type, and a stuck-task monitor. Tasks
// survive process restarts; the in-memory store exists only for tests.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/cmeth990/kgctl/pkg/models"
)

// Sentinel errors for queue operations.
var (
	// ErrNoTasksAvailable indicates no pending tasks matched the dequeue filter.
	ErrNoTasksAvailable = errors.New("no tasks available")

	// ErrTaskNotFound indicates the referenced task_id has no record.
	ErrTaskNotFound = errors.New("task not found")
)

// Store is the durable task queue backend. Implementations must make
// Dequeue safe for concurrent callers racing to claim the same pending
// rows (e.g. SELECT ... FOR UPDATE SKIP LOCKED).
type Store interface {
	// Enqueue inserts a new pending task and returns its generated task_id.
	Enqueue(ctx context.Context, taskType models.TaskType, payload map[string]interface{}, opts models.EnqueueOptions) (string, error)

	// Dequeue claims up to limit oldest pending tasks (optionally filtered
	// by taskType) and marks them in_progress. Returns ErrNoTasksAvailable
	// (not an error) when nothing is claimable.
	Dequeue(ctx context.Context, taskType models.TaskType, limit int) ([]models.Task, error)

	// Complete marks a task completed and stores its result.
	Complete(ctx context.Context, taskID string, result map[string]interface{}) error

	// Fail marks a task failed. If retry is true and the task hasn't
	// exhausted max_retries, it's reset to pending for another attempt;
	// otherwise it moves to dead_letter.
	Fail(ctx context.Context, taskID string, errMsg string, retry bool) error

	// Heartbeat refreshes heartbeat_at for an in_progress task so the
	// stuck-task monitor doesn't reclaim it mid-flight.
	Heartbeat(ctx context.Context, taskID string) error

	// StuckTasks returns in_progress tasks whose heartbeat is older than
	// threshold (or was never set).
	StuckTasks(ctx context.Context, threshold time.Duration) ([]models.Task, error)

	// DeadLetterTasks returns up to limit dead_letter tasks, newest first,
	// for triage/inspection.
	DeadLetterTasks(ctx context.Context, limit int) ([]models.Task, error)

	// Triage applies an admin decision to a task (normally dead_letter):
	// TriageRetry resets it to pending for one more attempt regardless of
	// retry_count/max_retries; TriageUpdatePayload additionally replaces its
	// payload first; TriageSkip marks it completed with a skipped marker
	// instead of retrying. Returns ErrTaskNotFound if taskID has no record.
	Triage(ctx context.Context, taskID string, action TriageAction, updatedPayload map[string]interface{}) error
}

// TriageAction is an admin decision applied to a dead-lettered task.
type TriageAction string

// Recognized triage actions.
const (
	TriageRetry         TriageAction = "retry"
	TriageUpdatePayload TriageAction = "update_payload"
	TriageSkip          TriageAction = "skip"
)

// errorTail caps how much of an error string a Store persists in its
// column; the chat-facing copy is truncated shorter still.
const errorTail = 1000

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
