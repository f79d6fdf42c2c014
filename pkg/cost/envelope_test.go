package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeAllTimeCapBlocksOverspend(t *testing.T) {
	e := newEnvelope("per_task", 1.0, WindowAllTime)
	allowed, _ := e.CheckCap(0.5)
	require.True(t, allowed)
	e.RecordSpend(0.9)

	allowed, reason := e.CheckCap(0.5)
	assert.False(t, allowed)
	assert.Contains(t, reason, "per_task")
}

func TestEnvelopePerCallCapIgnoresAccumulatedSpend(t *testing.T) {
	e := newEnvelope("per_tool_call", 0.10, WindowPerCall)
	e.RecordSpend(0.09)

	allowed, _ := e.CheckCap(0.09)
	assert.True(t, allowed)

	allowed, _ = e.CheckCap(0.11)
	assert.False(t, allowed)
}

func TestEnvelopeDailyCapResetsConceptually(t *testing.T) {
	e := newEnvelope("per_agent", 1.0, WindowDaily)
	e.RecordSpend(0.8)
	allowed, _ := e.CheckCap(0.3)
	assert.False(t, allowed)
	assert.InDelta(t, 0.2, e.Remaining(), 1e-9)
}

func TestEnvelopeManagerEnforceAllCapsSkipsUnsetScopes(t *testing.T) {
	tr := NewTracker()
	m := NewEnvelopeManager(tr)
	err := m.EnforceAllCaps(EnforceParams{TaskID: "t1", Agent: "a1", Queue: "q1", Tool: "tool1", AdditionalCost: 100})
	assert.NoError(t, err)
}

func TestEnvelopeManagerEnforceAllCapsFailsFastOnTaskCap(t *testing.T) {
	tr := NewTracker()
	m := NewEnvelopeManager(tr)
	m.SetEnvelope(ScopePerTask, 1.0, WindowAllTime)

	err := m.EnforceAllCaps(EnforceParams{TaskID: "t1", AdditionalCost: 5.0})
	require.Error(t, err)
	var bee *BudgetExceededError
	require.ErrorAs(t, err, &bee)
	assert.Equal(t, ScopePerTask, bee.Scope)
}

func TestEnvelopeManagerAgentDailyCapUsesTrackerRollup(t *testing.T) {
	tr := NewTracker()
	m := NewEnvelopeManager(tr)
	m.SetEnvelope(ScopePerAgent, 0.01, WindowDaily)

	tr.RecordCall(RecordCallParams{Model: "gpt-4o", InputTokens: 100_000, OutputTokens: 0, Agent: "extractor"})

	err := m.EnforceAllCaps(EnforceParams{Agent: "extractor", AdditionalCost: 0.01})
	require.Error(t, err)
	var bee *BudgetExceededError
	require.ErrorAs(t, err, &bee)
	assert.Equal(t, ScopePerAgent, bee.Scope)
}
