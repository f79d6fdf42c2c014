package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cmeth990/kgctl/pkg/queue"
)

const defaultStuckThresholdMinutes = 30

// queueDeadLetterHandler handles GET /queue/dead-letter?limit=N.
func (s *Server) queueDeadLetterHandler(c *gin.Context) {
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

// queueStuckHandler handles GET /queue/stuck?threshold_minutes=N.
func (s *Server) queueStuckHandler(c *gin.Context) {
	if s.queueStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue store not configured"})
		return
	}

	thresholdMinutes := defaultStuckThresholdMinutes
	if raw := c.Query("threshold_minutes"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			thresholdMinutes = n
		}
	}

	tasks, err := s.queueStore.StuckTasks(c.Request.Context(), time.Duration(thresholdMinutes)*time.Minute)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, StuckTasksResponse{Tasks: tasks})
}

// queueTriageHandler handles POST /queue/triage/{task_id} with a body of
// {action: "retry"|"update_payload"|"skip", updated_payload?}.
func (s *Server) queueTriageHandler(c *gin.Context) {
	if s.queueStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue store not configured"})
		return
	}

	var req TriageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Action == string(queue.TriageUpdatePayload) && req.UpdatedPayload == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "updated_payload is required for action=update_payload"})
		return
	}

	taskID := c.Param("task_id")
	err := s.queueStore.Triage(c.Request.Context(), taskID, queue.TriageAction(req.Action), req.UpdatedPayload)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": taskID, "action": req.Action})
}
