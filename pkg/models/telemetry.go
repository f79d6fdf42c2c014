package models

import "time"

// AgentHealthSnapshot summarizes circuit breaker state across every known
// domain and source.
type AgentHealthSnapshot struct {
	Domains CircuitGroupSnapshot `json:"domains"`
	Sources CircuitGroupSnapshot `json:"sources"`
	Error   string               `json:"error,omitempty"`
}

// CircuitGroupSnapshot is the per-group rollup inside AgentHealthSnapshot.
type CircuitGroupSnapshot struct {
	Total    int            `json:"total"`
	ByState  map[string]int `json:"by_state"`
	Open     []string       `json:"open,omitempty"`
	HalfOpen []string       `json:"half_open,omitempty"`
}

// CostTrackingSnapshot summarizes cost/budget state.
type CostTrackingSnapshot struct {
	TotalCostUSD      float64         `json:"total_cost_usd"`
	TotalCalls        int             `json:"total_calls"`
	SuccessfulCalls   int             `json:"successful_calls"`
	FailedCalls       int             `json:"failed_calls"`
	TotalTokens       int             `json:"total_tokens"`
	TopDomains        []TopCostEntry  `json:"top_domains,omitempty"`
	TopQueues         []TopCostEntry  `json:"top_queues,omitempty"`
	GlobalDailyLimit  *float64        `json:"global_daily_limit,omitempty"`
	GlobalDailySpent  float64         `json:"global_daily_spent"`
	GlobalDailyRemain *float64        `json:"global_daily_remaining,omitempty"`
	DomainLimitCount  int             `json:"domain_limits"`
	QueueLimitCount   int             `json:"queue_limits"`
	Error             string          `json:"error,omitempty"`
}

// TopCostEntry is one ranked row of CostTrackingSnapshot's top_domains/top_queues.
type TopCostEntry struct {
	Key  string  `json:"key"`
	Cost float64 `json:"cost"`
}

// QueueHealthSnapshot reports the durable queue's dead-letter and stuck
// backlogs; task status lives on the Task record itself rather than a
// separate registry.
type QueueHealthSnapshot struct {
	DeadLetterCount int                `json:"dead_letter_count"`
	StuckCount      int                `json:"stuck_count"`
	RecentFailures  []TaskFailureEntry `json:"recent_failures,omitempty"`
	Error           string             `json:"error,omitempty"`
}

// TaskFailureEntry is one row of QueueHealthSnapshot's recent_failures.
type TaskFailureEntry struct {
	TaskID    string    `json:"task_id"`
	Agent     string    `json:"agent,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrorRateSnapshot reports the error rate over the most recent model calls.
type ErrorRateSnapshot struct {
	RecentCalls       int               `json:"recent_calls"`
	Errors            int               `json:"errors"`
	ErrorRate         float64           `json:"error_rate"`
	ErrorsByProvider  map[string]int    `json:"errors_by_provider,omitempty"`
	RecentErrors      []ModelCallError  `json:"recent_errors,omitempty"`
	Error             string            `json:"error,omitempty"`
}

// ModelCallError is one row of ErrorRateSnapshot's recent_errors.
type ModelCallError struct {
	Model     string    `json:"model"`
	Provider  string    `json:"provider"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// KGStatisticsSnapshot reports the knowledge graph's changelog state.
type KGStatisticsSnapshot struct {
	CurrentVersion int64           `json:"current_version"`
	RecentChanges  int             `json:"recent_changes"`
	LatestChange   *ChangelogEntry `json:"latest_change,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// SystemStateSnapshot is the full telemetry surface returned by
// pkg/telemetry.Aggregator.Snapshot.
type SystemStateSnapshot struct {
	Timestamp   time.Time            `json:"timestamp"`
	AgentHealth AgentHealthSnapshot  `json:"agent_health"`
	CostTrack   CostTrackingSnapshot `json:"cost_tracking"`
	QueueHealth QueueHealthSnapshot  `json:"queue_health"`
	ErrorRates  ErrorRateSnapshot    `json:"error_rates"`
	KGStats     KGStatisticsSnapshot `json:"kg_statistics"`
}
