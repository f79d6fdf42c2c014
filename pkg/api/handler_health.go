package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cmeth990/kgctl/pkg/database"
	"github.com/cmeth990/kgctl/pkg/version"
)

// healthHandler handles GET / and GET /health. Only this
// module's own components (database, queue) are checked; external
// collaborators (model providers, the chat transport itself) are excluded
// so an outage there doesn't flip this process's own liveness probe.
func (s *Server) healthHandler(c *gin.Context) {
	resp := &HealthResponse{Status: "healthy", Version: version.Full()}

	if s.dbClient != nil {
		reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		dbHealth, err := database.Health(reqCtx, s.dbClient.DB())
		if err != nil {
			resp.Status = "unhealthy"
			resp.Database = &DatabaseHealth{Status: "unhealthy"}
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		resp.Database = &DatabaseHealth{Status: dbHealth.Status, OpenConnections: dbHealth.OpenConnections}
	}

	if s.queueStore != nil {
		deadLetter, err := s.queueStore.DeadLetterTasks(c.Request.Context(), 1000)
		if err == nil {
			stuck, stuckErr := s.queueStore.StuckTasks(c.Request.Context(), 30*time.Minute)
			if stuckErr == nil {
				resp.Queue = &QueueHealthCounts{DeadLetterCount: len(deadLetter), StuckCount: len(stuck)}
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}
