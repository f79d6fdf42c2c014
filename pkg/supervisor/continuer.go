package supervisor

import (
	"context"
	"fmt"
)

// RunMissionContinue drives one autonomous expansion step for chatID while
// its proposed diff still awaits approval, satisfying queue.MissionContinuer.
// It is a no-op once the decision resolves: the next ordinary RunGraph call
// for this thread routes straight to commit or handle_reject and this has
// nothing left to do.
func (s *Supervisor) RunMissionContinue(ctx context.Context, chatID string) (map[string]interface{}, error) {
	if s.Checkpoints == nil {
		return map[string]interface{}{"skipped": "no checkpoint store configured"}, nil
	}

	state, ok, err := s.Checkpoints.Load(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("supervisor: loading checkpoint for mission continue: %w", err)
	}
	if !ok || !state.ApprovalRequired || state.ApprovalDecision != "" {
		return map[string]interface{}{"skipped": "no pending approval for this thread"}, nil
	}

	update, err := scoutDomainsNode(ctx, s, state)
	if err != nil {
		return nil, fmt.Errorf("supervisor: mission continue step: %w", err)
	}

	next, err := ApplyStateUpdate(state, update)
	if err != nil {
		return nil, fmt.Errorf("supervisor: applying mission continue update: %w", err)
	}

	if err := s.Checkpoints.Save(ctx, chatID, next); err != nil {
		return nil, fmt.Errorf("supervisor: saving checkpoint after mission continue: %w", err)
	}

	return map[string]interface{}{"working_notes": next.WorkingNotes}, nil
}
