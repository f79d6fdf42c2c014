package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cmeth990/kgctl/pkg/telemetry"
)

const defaultTaskLimit = 20

// telemetryStateHandler handles GET /telemetry/state: the full system-state
// snapshot as JSON.
func (s *Server) telemetryStateHandler(c *gin.Context) {
	if s.aggregator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "telemetry aggregator not configured"})
		return
	}
	c.JSON(http.StatusOK, s.aggregator.Snapshot(c.Request.Context()))
}

// telemetrySummaryHandler handles GET /telemetry/summary: the chat-facing
// text rendering of the same snapshot, useful for a human glancing at the
// admin endpoint directly.
func (s *Server) telemetrySummaryHandler(c *gin.Context) {
	if s.aggregator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "telemetry aggregator not configured"})
		return
	}
	snapshot := s.aggregator.Snapshot(c.Request.Context())
	c.String(http.StatusOK, telemetry.Summarize(snapshot))
}

// telemetryTasksHandler handles GET /telemetry/tasks?limit=N: the
// dead-letter backlog, reused from the queue store rather than duplicating
// a separate task-status registry.
func (s *Server) telemetryTasksHandler(c *gin.Context) {
	if s.queueStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue store not configured"})
		return
	}
	limit := parseLimit(c, defaultTaskLimit)
	tasks, err := s.queueStore.DeadLetterTasks(c.Request.Context(), limit)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, DeadLetterResponse{Tasks: tasks})
}

func parseLimit(c *gin.Context, def int) int {
	raw := c.Query("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
