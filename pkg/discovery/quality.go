package discovery

import "time"

// QualityScore combines provenance trust, peer review, recency, and
// citation count (when present) into a 0-1 score. Each component
// contributes additively and the result is clamped to [0, 1].
func QualityScore(s QualitySignals) float64 {
	score := 0.3 // baseline: any returned source has some credibility

	if trusted, ok := provenanceTrust[s.Provenance]; ok {
		score += trusted
	} else {
		score += 0.1
	}

	if s.PeerReviewed {
		score += 0.25
	}

	if s.PublishedYear > 0 {
		age := time.Now().Year() - s.PublishedYear
		switch {
		case age <= 3:
			score += 0.15
		case age <= 10:
			score += 0.08
		case age <= 25:
			score += 0.02
		}
	}

	if s.CitationCount > 0 {
		switch {
		case s.CitationCount >= 500:
			score += 0.2
		case s.CitationCount >= 50:
			score += 0.12
		case s.CitationCount >= 5:
			score += 0.05
		}
	}

	if s.DomainRelevant {
		score += 0.05
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}
	return score
}

// provenanceTrust weights well-known providers for the provenance quality
// component: peer-reviewed academic indices score highest, general web
// search lowest.
var provenanceTrust = map[string]float64{
	"semantic_scholar": 0.35,
	"arxiv":             0.30,
	"openalex":          0.30,
	"openstax":          0.30,
	"khan_academy":      0.20,
	"mit_ocw":           0.30,
	"wikipedia":         0.15,
	"web_search":        0.05,
}
