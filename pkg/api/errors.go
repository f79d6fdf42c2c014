package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cmeth990/kgctl/pkg/cost"
	"github.com/cmeth990/kgctl/pkg/queue"
	"github.com/cmeth990/kgctl/pkg/validation"
)

// mapServiceError maps a component-layer error to an HTTP status and JSON
// body: validation errors are 400s, budget errors are 429s, known queue
// sentinel errors map to their own statuses, everything else is a 500.
func mapServiceError(c *gin.Context, err error) {
	var validErr *validation.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var budgetErr *cost.BudgetExceededError
	if errors.As(err, &budgetErr) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		return
	}

	if errors.Is(err, queue.ErrTaskNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if errors.Is(err, queue.ErrNoTasksAvailable) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no tasks available"})
		return
	}

	slog.Error("unexpected api error", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
