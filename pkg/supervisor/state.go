package supervisor

import (
	"github.com/cmeth990/kgctl/pkg/models"
	"github.com/cmeth990/kgctl/pkg/validation"
)

// ApplyStateUpdate validates update against models.StateUpdateAllowlist and,
// if it passes, merges it onto state and returns the result. On validation
// failure the original state is returned unchanged alongside the error —
// callers must never apply a half-merged update.
func ApplyStateUpdate(state models.AgentState, update map[string]interface{}) (models.AgentState, error) {
	if err := validation.ValidateStateUpdate(update); err != nil {
		return state, err
	}

	out := state
	for key, value := range update {
		switch key {
		case "user_input":
			out.UserInput, _ = value.(string)
		case "chat_id":
			out.ChatID, _ = value.(string)
		case "intent":
			if s, ok := value.(string); ok {
				out.Intent = models.Intent(s)
			}
		case "task_queue":
			out.TaskQueue = toStringSlice(value)
		case "working_notes":
			out.WorkingNotes = toMap(value)
		case "proposed_diff":
			if value == nil {
				out.ProposedDiff = nil
			} else if d, ok := value.(*models.Diff); ok {
				out.ProposedDiff = d
			} else if d, ok := value.(models.Diff); ok {
				out.ProposedDiff = &d
			}
		case "diff_id":
			out.DiffID, _ = value.(string)
		case "approval_required":
			if b, ok := value.(bool); ok {
				out.ApprovalRequired = b
			}
		case "approval_decision":
			if s, ok := value.(string); ok {
				out.ApprovalDecision = models.ApprovalDecision(s)
			}
		case "final_response":
			out.FinalResponse, _ = value.(string)
		case "error":
			out.Error, _ = value.(string)
		case "crucial_decision_type":
			if value == nil {
				out.CrucialDecisionType = ""
			} else if s, ok := value.(string); ok {
				out.CrucialDecisionType = models.CrucialDecisionType(s)
			}
		case "crucial_decision_context":
			if value == nil {
				out.CrucialDecisionContext = nil
			} else {
				out.CrucialDecisionContext = toMap(value)
			}
		}
	}
	return out, nil
}

func toStringSlice(value interface{}) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toMap(value interface{}) map[string]interface{} {
	if m, ok := value.(map[string]interface{}); ok {
		return m
	}
	return nil
}
