package llm

// Tier is a model cost/capability tier.
type Tier string

// Recognized tiers.
const (
	TierCheap     Tier = "cheap"
	TierMid       Tier = "mid"
	TierExpensive Tier = "expensive"
)

// taskTiers maps a task label to its default tier. Unknown task labels
// default to TierMid.
var taskTiers = map[string]Tier{
	"triage":             TierCheap,
	"classification":     TierCheap,
	"dedupe_suggestion":  TierCheap,
	"extraction_draft":   TierCheap,
	"source_filtering":   TierCheap,
	"simple_extraction":  TierCheap,
	"regex_validation":   TierCheap,

	"extraction":      TierMid,
	"entity_linking":  TierMid,
	"source_scoring":  TierMid,
	"domain_scouting": TierMid,

	"ontology_placement":       TierExpensive,
	"contradiction_resolution": TierExpensive,
	"complex_disambiguation":   TierExpensive,
	"multi_source_synthesis":   TierExpensive,
	"evidence_synthesis":       TierExpensive,
}

// TierForTask returns the configured tier for taskType, defaulting to
// TierMid for unrecognized labels.
func TierForTask(taskType string) Tier {
	if t, ok := taskTiers[taskType]; ok {
		return t
	}
	return TierMid
}

// modelsByProviderTier is the provider/model lookup table per tier.
var modelsByProviderTier = map[string]map[Tier]string{
	"openai": {
		TierCheap:     "gpt-4o-mini",
		TierMid:       "gpt-4o",
		TierExpensive: "gpt-4-turbo",
	},
	"anthropic": {
		TierCheap:     "claude-3-haiku-20240307",
		TierMid:       "claude-3-sonnet-20240229",
		TierExpensive: "claude-3-opus-20240229",
	},
}

// ModelForTier returns the provider-specific model name for tier, falling
// back to the openai table for an unrecognized provider.
func ModelForTier(provider string, tier Tier) string {
	byTier, ok := modelsByProviderTier[provider]
	if !ok {
		byTier = modelsByProviderTier["openai"]
	}
	if m, ok := byTier[tier]; ok {
		return m
	}
	return byTier[TierMid]
}

// ModelForTask resolves a task type straight to a provider-specific model
// name, combining TierForTask and ModelForTier. Constructing the actual
// client is the caller's job via NewHTTPClient/NewTrackedClient.
func ModelForTask(provider, taskType string) string {
	return ModelForTier(provider, TierForTask(taskType))
}
