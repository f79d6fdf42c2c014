package cost

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetCheckPassesWithNoLimitsSet(t *testing.T) {
	tr := NewTracker()
	b := NewBudget(tr)
	allowed, _ := b.Check("Algebra", "ingestion", 5.0)
	assert.True(t, allowed)
}

func TestBudgetGlobalDailyLimitBlocksOverspend(t *testing.T) {
	tr := NewTracker()
	b := NewBudget(tr)
	b.SetGlobalDailyLimit(1.0)

	tr.RecordCall(RecordCallParams{Model: "gpt-4-turbo", InputTokens: 1_000_000, OutputTokens: 0})

	allowed, reason := b.Check("", "", 0.5)
	assert.False(t, allowed)
	assert.Contains(t, reason, "global daily budget exceeded")
}

func TestBudgetDomainLimitBlocksOverspend(t *testing.T) {
	tr := NewTracker()
	b := NewBudget(tr)
	b.SetDomainLimit("Algebra", 0.01)

	tr.RecordCall(RecordCallParams{Model: "gpt-4o", InputTokens: 100_000, OutputTokens: 0, Domain: "Algebra"})

	allowed, reason := b.Check("Algebra", "", 0.01)
	assert.False(t, allowed)
	assert.Contains(t, reason, "Algebra")
}

func TestBudgetQueueLimitBlocksOverspend(t *testing.T) {
	tr := NewTracker()
	b := NewBudget(tr)
	b.SetQueueLimit("ingestion", 0.001)

	tr.RecordCall(RecordCallParams{Model: "gpt-4o", InputTokens: 100_000, OutputTokens: 0, Queue: "ingestion"})

	allowed, _ := b.Check("", "ingestion", 0.01)
	assert.False(t, allowed)
}

func TestBudgetEnforceReturnsBudgetExceededError(t *testing.T) {
	tr := NewTracker()
	b := NewBudget(tr)
	b.SetGlobalDailyLimit(0)

	err := b.Enforce("", "", 1.0)
	require.Error(t, err)
	var bee *BudgetExceededError
	require.ErrorAs(t, err, &bee)
	assert.True(t, errors.Is(err, ErrBudgetExceeded))
}

func TestBudgetStatusReportsRemaining(t *testing.T) {
	tr := NewTracker()
	b := NewBudget(tr)
	b.SetGlobalDailyLimit(10.0)

	tr.RecordCall(RecordCallParams{Model: "gpt-4o-mini", InputTokens: 1_000_000, OutputTokens: 0})

	status := b.Status()
	require.NotNil(t, status.GlobalDailyRemaining)
	assert.InDelta(t, 10.0-0.150, *status.GlobalDailyRemaining, 1e-6)
}
