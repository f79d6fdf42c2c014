package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cmeth990/kgctl/pkg/supervisor"
)

// diagnosticsRecursionHandler handles GET /diagnostics/recursion, returning
// the current recursion limit configuration.
func (s *Server) diagnosticsRecursionHandler(c *gin.Context) {
	recursionCap := supervisor.DefaultRecursionCap
	if s.supervisor != nil {
		recursionCap = s.supervisor.RecursionCap
	}
	c.JSON(http.StatusOK, RecursionDiagnosticsResponse{RecursionCap: recursionCap})
}
