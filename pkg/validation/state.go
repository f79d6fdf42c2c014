package validation

import (
	"errors"
	"fmt"

	"github.com/cmeth990/kgctl/pkg/models"
)

// ErrUnknownStateKey is returned when a state update merge references a key
// outside models.StateUpdateAllowlist.
var ErrUnknownStateKey = errors.New("validation: state key not in allowlist")

// MaxFinalResponseLength bounds AgentState.FinalResponse.
const MaxFinalResponseLength = 50_000

// ValidateStateUpdate checks a proposed partial state update (as a raw
// key→value map, the shape a node return value takes before merging into
// AgentState) against models.StateUpdateAllowlist and per-key typing rules.
// It returns the first violation found; callers reject the whole update on
// any error, never a half-applied merge.
func ValidateStateUpdate(update map[string]interface{}) error {
	for key, value := range update {
		if !models.StateUpdateAllowlist[key] {
			return fmt.Errorf("%w: %q", ErrUnknownStateKey, key)
		}
		if err := validateStateKey(key, value); err != nil {
			return newValidationError("state_update", key, err)
		}
	}
	return nil
}

func validateStateKey(key string, value interface{}) error {
	switch key {
	case "approval_decision":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("approval_decision must be a string")
		}
		d := models.ApprovalDecision(s)
		if d != models.ApprovalApprove && d != models.ApprovalReject && d != "" {
			return fmt.Errorf("approval_decision must be approve or reject, got %q", s)
		}
	case "approval_required":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("approval_required must be a bool")
		}
	case "final_response":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("final_response must be a string")
		}
		if len(s) > MaxFinalResponseLength {
			return fmt.Errorf("final_response exceeds %d characters", MaxFinalResponseLength)
		}
	case "intent":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("intent must be a string")
		}
	case "crucial_decision_type":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("crucial_decision_type must be a string")
		}
	}
	return nil
}
