package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCostScoreFreeDomainsReturnZero(t *testing.T) {
	cases := []string{
		"https://arxiv.org/abs/1234.5678",
		"https://en.wikipedia.org/wiki/Graph_theory",
		"https://openstax.org/books/calculus",
		"https://www.example.edu/course",
	}
	for _, url := range cases {
		s := Source{URL: url, Type: TypeWeb}
		assert.Equal(t, 0.0, CostScore(s), url)
	}
}

func TestCostScorePaywallIndicatorInDomain(t *testing.T) {
	s := Source{URL: "https://subscription.example.com/article", Type: TypeAcademicPaper}
	assert.Equal(t, 0.8, CostScore(s))
}

func TestCostScoreFallsBackToSourceType(t *testing.T) {
	s := Source{URL: "https://unknown-host.example.com/x", Type: TypeTextbook}
	assert.Equal(t, 0.2, CostScore(s))
}

func TestCostScoreDefaultWhenNothingMatches(t *testing.T) {
	s := Source{URL: "https://unknown-host.example.com/x", Type: TypeUnknown}
	assert.Equal(t, 0.3, CostScore(s))
}

func TestCostTierBuckets(t *testing.T) {
	assert.Equal(t, "free", CostTier(0.0))
	assert.Equal(t, "low", CostTier(0.2))
	assert.Equal(t, "medium", CostTier(0.4))
	assert.Equal(t, "high", CostTier(0.9))
}
