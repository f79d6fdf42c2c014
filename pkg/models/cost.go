package models

import "time"

// CostCallRecord is a single tracked model call.
type CostCallRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Model        string    `json:"model"`
	Provider     string    `json:"provider"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CostUSD      float64   `json:"cost_usd"`
	Domain       string    `json:"domain,omitempty"`
	Queue        string    `json:"queue,omitempty"`
	Agent        string    `json:"agent,omitempty"`
	DurationMS   float64   `json:"duration_ms"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
}

// CircuitFSMState is one of closed/open/half_open.
type CircuitFSMState string

// Recognized circuit states.
const (
	CircuitClosed   CircuitFSMState = "closed"
	CircuitOpen     CircuitFSMState = "open"
	CircuitHalfOpen CircuitFSMState = "half_open"
)

// CircuitStatus is a point-in-time snapshot of a circuit (domain or source).
type CircuitStatus struct {
	Key           string          `json:"key"`
	State         CircuitFSMState `json:"state"`
	FailureCount  int             `json:"failure_count"`
	LastFailureAt *time.Time      `json:"last_failure_at,omitempty"`
	OpenedAt      *time.Time      `json:"opened_at,omitempty"`
}
