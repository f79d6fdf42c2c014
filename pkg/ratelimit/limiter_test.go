package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAllowsWithinLimitAndDeniesOverLimit(t *testing.T) {
	l := New()
	l.SetLimit("test-source", Limits{PerMinute: 2, PerHour: 100})

	allowed, reason := l.Check("test-source", "")
	require.True(t, allowed)
	assert.Empty(t, reason)
	l.Record("test-source", "")

	allowed, reason = l.Check("test-source", "")
	require.True(t, allowed)
	l.Record("test-source", "")

	allowed, reason = l.Check("test-source", "")
	assert.False(t, allowed)
	assert.Contains(t, reason, "per-minute")
}

func TestCheckDoesNotMutateState(t *testing.T) {
	l := New()
	l.SetLimit("src", Limits{PerMinute: 1, PerHour: 100})

	for i := 0; i < 5; i++ {
		allowed, _ := l.Check("src", "")
		assert.True(t, allowed)
	}
	stats := l.Stats("src")
	assert.Equal(t, 0, stats.RequestsLastMinute)
}

func TestDomainCapDerivesHalfOfSourceLimitByDefault(t *testing.T) {
	l := New()
	l.SetLimit("src", Limits{PerMinute: 4, PerHour: 100})

	// domainPerMinute defaults to PerMinute/2 == 2
	l.Record("src", "dom")
	l.Record("src", "dom")

	allowed, reason := l.Check("src", "dom")
	assert.False(t, allowed)
	assert.Contains(t, reason, "domain")
}

func TestDomainCapCanBeOverridden(t *testing.T) {
	l := New()
	l.SetLimit("src", Limits{PerMinute: 10, PerHour: 100, DomainPerMinute: 5})

	for i := 0; i < 4; i++ {
		l.Record("src", "dom")
	}
	allowed, _ := l.Check("src", "dom")
	assert.True(t, allowed)
}

func TestUnknownSourceUsesDefaultLimits(t *testing.T) {
	l := New()
	stats := l.Stats("some-unconfigured-source")
	assert.Equal(t, 10, stats.Limits.PerMinute)
	assert.Equal(t, 500, stats.Limits.PerHour)
}

func TestPerHourLimitEnforced(t *testing.T) {
	l := New()
	l.SetLimit("src", Limits{PerMinute: 1000, PerHour: 1})
	l.Record("src", "")

	allowed, reason := l.Check("src", "")
	assert.False(t, allowed)
	assert.Contains(t, reason, "per-hour")
}

func TestTrimDropsEntriesOlderThanRetentionWindow(t *testing.T) {
	l := New()
	l.mu.Lock()
	l.requests["src"] = []time.Time{time.Now().Add(-2 * time.Hour)}
	l.mu.Unlock()

	stats := l.Stats("src")
	assert.Equal(t, 0, stats.RequestsLastHour)
}

func TestKnownProviderDefaultsMatchSpec(t *testing.T) {
	l := New()
	assert.Equal(t, 10, l.limitsFor("arxiv").PerMinute)
	assert.Equal(t, 100, l.limitsFor("semantic_scholar").PerMinute)
	assert.Equal(t, 200, l.limitsFor("wikipedia").PerMinute)
}
