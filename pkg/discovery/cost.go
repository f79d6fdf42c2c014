package discovery

import "strings"

// freeDomains are hosts that never gate content behind a paywall.
var freeDomains = []string{
	"openstax.org", "khanacademy.org", "ocw.mit.edu", "libretexts.org",
	"wikipedia.org", "arxiv.org", "openalex.org", ".gov", ".edu",
}

var paywallIndicators = []string{"paywall", "subscription", "purchase", "buy", "premium"}

var freeSourceTypes = []string{
	"openstax", "khan", "ocw", "libretexts", "wikipedia", "arxiv", "oer", "government",
}

var lowCostTypes = []string{"textbook", "educational_platform"}

// CostScore estimates 0.0 (free) to 1.0 (expensive) for a source, checked
// in order: known free/paywalled domain, then source type.
func CostScore(s Source) float64 {
	domainLower := strings.ToLower(hostOf(s.URL))
	if domainLower != "" {
		for _, free := range freeDomains {
			if strings.Contains(domainLower, free) {
				return 0.0
			}
		}
		for _, indicator := range paywallIndicators {
			if strings.Contains(domainLower, indicator) {
				return 0.8
			}
		}
	}

	typeLower := strings.ToLower(string(s.Type)) + " " + strings.ToLower(s.Provider)
	for _, free := range freeSourceTypes {
		if strings.Contains(typeLower, free) {
			return 0.0
		}
	}
	for _, low := range lowCostTypes {
		if strings.Contains(typeLower, low) {
			return 0.2
		}
	}
	if strings.Contains(typeLower, "subscription") || strings.Contains(typeLower, "premium") {
		return 0.5
	}
	if strings.Contains(typeLower, "paywall") || strings.Contains(typeLower, "proprietary") {
		return 0.8
	}

	return 0.3
}

// CostTier names the bucket a cost score falls into.
func CostTier(cost float64) string {
	switch {
	case cost == 0.0:
		return "free"
	case cost < 0.3:
		return "low"
	case cost < 0.6:
		return "medium"
	default:
		return "high"
	}
}

func hostOf(rawURL string) string {
	rawURL = strings.TrimPrefix(rawURL, "https://")
	rawURL = strings.TrimPrefix(rawURL, "http://")
	if i := strings.IndexAny(rawURL, "/?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	return rawURL
}
