package supervisor

import (
	"context"
	"sync"

	"github.com/cmeth990/kgctl/pkg/models"
)

// CheckpointStore persists the latest AgentState per conversation thread.
// A Postgres-backed implementation serves production; MemoryCheckpointStore
// backs tests and single-process local runs.
type CheckpointStore interface {
	Load(ctx context.Context, threadID string) (models.AgentState, bool, error)
	Save(ctx context.Context, threadID string, state models.AgentState) error
}

// MemoryCheckpointStore is an in-memory CheckpointStore, one entry per
// thread_id, overwritten on every Save. It keeps only the latest state per
// thread and never diffs history.
type MemoryCheckpointStore struct {
	mu   sync.Mutex
	byID map[string]models.AgentState
}

// NewMemoryCheckpointStore constructs an empty store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{byID: make(map[string]models.AgentState)}
}

func (s *MemoryCheckpointStore) Load(ctx context.Context, threadID string) (models.AgentState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.byID[threadID]
	return state, ok, nil
}

func (s *MemoryCheckpointStore) Save(ctx context.Context, threadID string, state models.AgentState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[threadID] = state
	return nil
}
