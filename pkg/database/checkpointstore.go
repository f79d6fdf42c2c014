package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmeth990/kgctl/pkg/models"
)

// CheckpointStore is the Postgres-backed pkg/supervisor.CheckpointStore
// implementation: a single upserted row per thread holding the full
// AgentState as JSONB.
type CheckpointStore struct {
	db *sql.DB
}

// NewCheckpointStore wraps db as a CheckpointStore.
func NewCheckpointStore(db *sql.DB) *CheckpointStore { return &CheckpointStore{db: db} }

// Load returns the persisted state for threadID, or ok=false if none exists.
func (c *CheckpointStore) Load(ctx context.Context, threadID string) (models.AgentState, bool, error) {
	var stateJSON []byte
	err := c.db.QueryRowContext(ctx, `SELECT state FROM checkpoints WHERE thread_id = $1`, threadID).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AgentState{}, false, nil
	}
	if err != nil {
		return models.AgentState{}, false, fmt.Errorf("loading checkpoint for %s: %w", threadID, err)
	}

	var state models.AgentState
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return models.AgentState{}, false, fmt.Errorf("unmarshaling checkpoint state for %s: %w", threadID, err)
	}
	return state, true, nil
}

// Save upserts the checkpoint row for threadID.
func (c *CheckpointStore) Save(ctx context.Context, threadID string, state models.AgentState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling checkpoint state for %s: %w", threadID, err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO checkpoints (thread_id, state, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (thread_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at
	`, threadID, stateJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving checkpoint for %s: %w", threadID, err)
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
