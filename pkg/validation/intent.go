package validation

import "github.com/cmeth990/kgctl/pkg/kgschema"

// ParsedIntent is the content-fetcher's parsed request.
type ParsedIntent struct {
	MaxSources  int      `json:"max_sources"`
	MinPriority float64  `json:"min_priority"`
	Domains     []string `json:"domains"`
}

// ValidateParsedIntent clamps MaxSources to [1, MAX_SOURCES_PER_DOMAIN],
// clamps MinPriority to [0,1], and dedupes Domains while preserving first
// occurrence order.
func ValidateParsedIntent(in ParsedIntent) ParsedIntent {
	out := in

	if out.MaxSources < 1 {
		out.MaxSources = 1
	} else if out.MaxSources > kgschema.MaxSourcesPerDomain {
		out.MaxSources = kgschema.MaxSourcesPerDomain
	}

	if out.MinPriority < 0 {
		out.MinPriority = 0
	} else if out.MinPriority > 1 {
		out.MinPriority = 1
	}

	seen := make(map[string]bool, len(in.Domains))
	deduped := make([]string, 0, len(in.Domains))
	for _, d := range in.Domains {
		if seen[d] {
			continue
		}
		seen[d] = true
		deduped = append(deduped, d)
	}
	out.Domains = deduped

	return out
}
