package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cmeth990/kgctl/pkg/models"
)

// MemoryStore is an in-process Store, for tests and for running the worker
// loop without a database during local development. It is not durable:
// restarting the process loses all tasks.
type MemoryStore struct {
	mu    sync.Mutex
	tasks map[string]*models.Task
	order []string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]*models.Task)}
}

func (s *MemoryStore) Enqueue(ctx context.Context, taskType models.TaskType, payload map[string]interface{}, opts models.EnqueueOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = models.DefaultMaxRetries
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	s.tasks[id] = &models.Task{
		TaskID:     id,
		TaskType:   taskType,
		Payload:    payload,
		Status:     models.TaskStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
		MaxRetries: maxRetries,
		Domain:     opts.Domain,
		Source:     opts.Source,
		Agent:      opts.Agent,
	}
	s.order = append(s.order, id)
	return id, nil
}

func (s *MemoryStore) Dequeue(ctx context.Context, taskType models.TaskType, limit int) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var claimed []models.Task
	now := time.Now().UTC()
	for _, id := range s.order {
		if len(claimed) >= limit {
			break
		}
		t := s.tasks[id]
		if t == nil || t.Status != models.TaskStatusPending {
			continue
		}
		if taskType != "" && t.TaskType != taskType {
			continue
		}
		t.Status = models.TaskStatusInProgress
		t.UpdatedAt = now
		if t.StartedAt == nil {
			started := now
			t.StartedAt = &started
		}
		hb := now
		t.HeartbeatAt = &hb
		claimed = append(claimed, *t)
	}
	if len(claimed) == 0 {
		return nil, ErrNoTasksAvailable
	}
	return claimed, nil
}

func (s *MemoryStore) Complete(ctx context.Context, taskID string, result map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	now := time.Now().UTC()
	t.Status = models.TaskStatusCompleted
	t.UpdatedAt = now
	t.CompletedAt = &now
	t.Result = result
	return nil
}

func (s *MemoryStore) Fail(ctx context.Context, taskID string, errMsg string, retry bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	now := time.Now().UTC()
	msg := truncate(errMsg, errorTail)

	if retry && t.RetryCount < t.MaxRetries {
		t.Status = models.TaskStatusPending
		t.UpdatedAt = now
		t.RetryCount++
		t.Error = msg
		t.StartedAt = nil
		t.HeartbeatAt = nil
		return nil
	}

	t.Status = models.TaskStatusDeadLetter
	t.UpdatedAt = now
	t.Error = msg
	t.CompletedAt = &now
	return nil
}

func (s *MemoryStore) Triage(ctx context.Context, taskID string, action TriageAction, updatedPayload map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	now := time.Now().UTC()

	switch action {
	case TriageSkip:
		t.Status = models.TaskStatusCompleted
		t.UpdatedAt = now
		t.CompletedAt = &now
		t.Result = map[string]interface{}{"skipped": true}
		t.Error = ""
		return nil

	case TriageUpdatePayload:
		t.Payload = updatedPayload
		fallthrough

	case TriageRetry:
		t.Status = models.TaskStatusPending
		t.UpdatedAt = now
		t.Error = ""
		t.StartedAt = nil
		t.HeartbeatAt = nil
		t.CompletedAt = nil
		return nil

	default:
		return fmt.Errorf("unrecognized triage action: %q", action)
	}
}

func (s *MemoryStore) Heartbeat(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok || t.Status != models.TaskStatusInProgress {
		return nil
	}
	now := time.Now().UTC()
	t.HeartbeatAt = &now
	t.UpdatedAt = now
	return nil
}

func (s *MemoryStore) StuckTasks(ctx context.Context, threshold time.Duration) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-threshold)
	var stuck []models.Task
	for _, id := range s.order {
		t := s.tasks[id]
		if t == nil || t.Status != models.TaskStatusInProgress {
			continue
		}
		if t.HeartbeatAt == nil || t.HeartbeatAt.Before(cutoff) {
			stuck = append(stuck, *t)
		}
	}
	return stuck, nil
}

func (s *MemoryStore) DeadLetterTasks(ctx context.Context, limit int) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dead []models.Task
	for i := len(s.order) - 1; i >= 0 && len(dead) < limit; i-- {
		t := s.tasks[s.order[i]]
		if t != nil && t.Status == models.TaskStatusDeadLetter {
			dead = append(dead, *t)
		}
	}
	return dead, nil
}

// ResetForRetry moves a stuck task back to pending for another attempt.
func (s *MemoryStore) ResetForRetry(ctx context.Context, taskID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	t.Status = models.TaskStatusPending
	t.RetryCount++
	t.Error = truncate(reason, errorTail)
	t.StartedAt = nil
	t.HeartbeatAt = nil
	t.UpdatedAt = time.Now().UTC()
	return nil
}
