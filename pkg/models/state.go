package models

// Intent is the routed user intent.
type Intent string

// Recognized intents.
const (
	IntentHelp           Intent = "help"
	IntentStatus         Intent = "status"
	IntentCancel         Intent = "cancel"
	IntentGatherSources  Intent = "gather_sources"
	IntentFetchContent   Intent = "fetch_content"
	IntentScoutDomains   Intent = "scout_domains"
	IntentParallelTest   Intent = "parallel_test"
	IntentExtractLinkWrite Intent = "extract_link_write"
	IntentQuery          Intent = "query"
	IntentUnknown        Intent = ""
)

// ApprovalDecision is the user's response to a pending approval prompt.
type ApprovalDecision string

// Recognized approval decisions.
const (
	ApprovalApprove ApprovalDecision = "approve"
	ApprovalReject  ApprovalDecision = "reject"
)

// CrucialDecisionType enumerates the points at which the supervisor must
// surface a choice to the user.
type CrucialDecisionType string

// Recognized crucial decision types.
const (
	DecisionKGWrite      CrucialDecisionType = "kg_write"
	DecisionCodeChange   CrucialDecisionType = "code_change"
	DecisionContradiction CrucialDecisionType = "contradiction"
	DecisionPriority     CrucialDecisionType = "priority"
	DecisionBudget       CrucialDecisionType = "budget"
	DecisionStuckTasks   CrucialDecisionType = "stuck_tasks"
)

// AgentState is the supervisor's per-turn state, checkpointed per
// conversation.
type AgentState struct {
	UserInput              string                 `json:"user_input"`
	ChatID                 string                 `json:"chat_id"`
	Intent                 Intent                 `json:"intent,omitempty"`
	TaskQueue              []string               `json:"task_queue,omitempty"`
	WorkingNotes           map[string]interface{} `json:"working_notes,omitempty"`
	ProposedDiff           *Diff                  `json:"proposed_diff,omitempty"`
	DiffID                 string                 `json:"diff_id,omitempty"`
	ApprovalRequired       bool                   `json:"approval_required"`
	ApprovalDecision       ApprovalDecision       `json:"approval_decision,omitempty"`
	FinalResponse          string                 `json:"final_response,omitempty"`
	Error                  string                 `json:"error,omitempty"`
	CrucialDecisionType    CrucialDecisionType    `json:"crucial_decision_type,omitempty"`
	CrucialDecisionContext map[string]interface{} `json:"crucial_decision_context,omitempty"`
}

// Checkpoint is the persisted latest AgentState for a conversation thread.
type Checkpoint struct {
	ThreadID string     `json:"thread_id"`
	State    AgentState `json:"state"`
}

// StateUpdateAllowlist lists the only AgentState keys a state update merge
// may touch. Enforced by pkg/validation.
var StateUpdateAllowlist = map[string]bool{
	"user_input":               true,
	"chat_id":                  true,
	"intent":                   true,
	"task_queue":               true,
	"working_notes":            true,
	"proposed_diff":            true,
	"diff_id":                  true,
	"approval_required":        true,
	"approval_decision":        true,
	"final_response":           true,
	"error":                    true,
	"crucial_decision_type":    true,
	"crucial_decision_context": true,
}
