package api

import "github.com/cmeth990/kgctl/pkg/models"

// HealthResponse is the liveness probe body returned by GET / and GET
// /health.
type HealthResponse struct {
	Status   string             `json:"status"`
	Version  string             `json:"version"`
	Database *DatabaseHealth    `json:"database,omitempty"`
	Queue    *QueueHealthCounts `json:"queue,omitempty"`
}

// DatabaseHealth mirrors database.HealthStatus's JSON shape so the API
// doesn't need to import database-internal field names into its own
// response type.
type DatabaseHealth struct {
	Status          string `json:"status"`
	OpenConnections int    `json:"open_connections"`
}

// QueueHealthCounts gives a cheap dead-letter/stuck summary on the health
// endpoint without pulling in the full telemetry snapshot.
type QueueHealthCounts struct {
	DeadLetterCount int `json:"dead_letter_count"`
	StuckCount      int `json:"stuck_count"`
}

// WebhookAck is the body returned to Telegram for a received update. Telegram
// does not require a meaningful response body; this exists for debuggability.
type WebhookAck struct {
	Accepted bool   `json:"accepted"`
	TaskID   string `json:"task_id,omitempty"`
	Reply    string `json:"reply,omitempty"`
}

// ChangelogListResponse wraps a page of changelog entries returned by GET
// /kg/versions?limit=N.
type ChangelogListResponse struct {
	Entries []models.ChangelogEntry `json:"entries"`
}

// DeadLetterResponse wraps a page of dead-letter tasks returned by GET
// /queue/dead-letter?limit=N.
type DeadLetterResponse struct {
	Tasks []models.Task `json:"tasks"`
}

// StuckTasksResponse wraps the stuck-task scan returned by GET
// /queue/stuck?threshold_minutes=N.
type StuckTasksResponse struct {
	Tasks []models.Task `json:"tasks"`
}

// TriageRequest is the body for POST /queue/triage/{task_id}.
type TriageRequest struct {
	Action         string                 `json:"action" binding:"required,oneof=retry update_payload skip"`
	UpdatedPayload map[string]interface{} `json:"updated_payload,omitempty"`
}

// RecursionDiagnosticsResponse is the body for GET /diagnostics/recursion.
type RecursionDiagnosticsResponse struct {
	RecursionCap int `json:"recursion_cap"`
}
