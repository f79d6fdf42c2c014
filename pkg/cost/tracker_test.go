package cost

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateCostKnownModel(t *testing.T) {
	got := CalculateCost("gpt-4o-mini", 1_000_000, 1_000_000)
	assert.InDelta(t, 0.150+0.600, got, 1e-9)
}

func TestCalculateCostUnknownModelFallsBackToDefault(t *testing.T) {
	got := CalculateCost("some-future-model", 1_000_000, 1_000_000)
	assert.InDelta(t, 1.000+3.000, got, 1e-9)
}

func TestRecordCallUpdatesRollups(t *testing.T) {
	tr := NewTracker()
	call := tr.RecordCall(RecordCallParams{
		Model: "gpt-4o-mini", Provider: "openai",
		InputTokens: 500, OutputTokens: 200,
		Domain: "Algebra", Queue: "ingestion", Agent: "extractor",
		Success: true,
	})

	require.Greater(t, call.CostUSD, 0.0)
	assert.InDelta(t, call.CostUSD, tr.Domain("Algebra"), 1e-12)
	assert.InDelta(t, call.CostUSD, tr.Queue("ingestion"), 1e-12)
	assert.InDelta(t, call.CostUSD, tr.Daily("Algebra", "ingestion", time.Time{}), 1e-12)
	assert.InDelta(t, call.CostUSD, tr.Total(), 1e-12)
	assert.InDelta(t, call.CostUSD, tr.AgentDaily("extractor", time.Time{}), 1e-12)
}

func TestDailyWithoutFiltersSumsAllDomainsAndQueues(t *testing.T) {
	tr := NewTracker()
	tr.RecordCall(RecordCallParams{Model: "gpt-4o", InputTokens: 1000, OutputTokens: 1000, Domain: "A", Queue: "q1"})
	tr.RecordCall(RecordCallParams{Model: "gpt-4o", InputTokens: 1000, OutputTokens: 1000, Domain: "B", Queue: "q2"})

	all := tr.Daily("", "", time.Time{})
	assert.InDelta(t, tr.Domain("A")+tr.Domain("B"), all, 1e-9)
}

func TestRecentReturnsMostRecentCallsInOrder(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 5; i++ {
		tr.RecordCall(RecordCallParams{Model: "default", InputTokens: 1, OutputTokens: 1})
	}
	recent := tr.Recent(2)
	assert.Len(t, recent, 2)
}

func TestStatsCountsSuccessAndFailure(t *testing.T) {
	tr := NewTracker()
	tr.RecordCall(RecordCallParams{Model: "default", InputTokens: 10, OutputTokens: 10, Success: true})
	tr.RecordCall(RecordCallParams{Model: "default", InputTokens: 10, OutputTokens: 10, Success: false, Error: "timeout"})

	stats := tr.Stats()
	assert.Equal(t, 2, stats.TotalCalls)
	assert.Equal(t, 1, stats.SuccessfulCalls)
	assert.Equal(t, 1, stats.FailedCalls)
}

func TestStatsTopDomainsSortedDescending(t *testing.T) {
	tr := NewTracker()
	tr.RecordCall(RecordCallParams{Model: "gpt-4o", InputTokens: 1_000_000, OutputTokens: 0, Domain: "big"})
	tr.RecordCall(RecordCallParams{Model: "gpt-4o-mini", InputTokens: 1000, OutputTokens: 0, Domain: "small"})

	stats := tr.Stats()
	require.Len(t, stats.TopDomains, 2)
	assert.Equal(t, "big", stats.TopDomains[0].Key)
}
