package kgschema

import "github.com/cmeth990/kgctl/pkg/models"

// Default claim-tiering parameters.
const (
	// DefaultCSec is the confidence cap applied to claims whose effective
	// primary evidence falls short of DefaultTauP.
	DefaultCSec = 0.70
	// DefaultTauP is the minimum effective primary evidence required before
	// a claim is eligible to be tiered above Provisional.
	DefaultTauP = 0.5

	supportedFloor = 0.75
)

// PError maps a confidence score in [0,1] to P(error) = 1 - confidence.
func PError(confidence float64) float64 {
	p := 1.0 - confidence
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// TierParams overrides the default cap/threshold pair. Zero value selects
// the defaults.
type TierParams struct {
	CSec float64
	TauP float64
}

func (p TierParams) resolve() (cSec, tauP float64) {
	cSec, tauP = p.CSec, p.TauP
	if cSec == 0 {
		cSec = DefaultCSec
	}
	if tauP == 0 {
		tauP = DefaultTauP
	}
	return cSec, tauP
}

// AssignConfidenceTier derives a claim's tier from its raw confidence score
// and, when known, the effective strength of its primary evidence. When
// effectivePrimary is below the promotion threshold, confidence is capped at
// params.CSec before tiering. Audited is never returned here: it is assigned
// explicitly by a human or verification workflow, never derived from
// confidence alone.
func AssignConfidenceTier(confidence float64, effectivePrimary *float64, params TierParams) (models.ConfidenceTier, float64) {
	cSec, tauP := params.resolve()

	effective := confidence
	if effectivePrimary != nil && *effectivePrimary < tauP {
		if cSec < effective {
			effective = cSec
		}
	}

	if effective < supportedFloor {
		return models.TierProvisional, effective
	}
	return models.TierSupported, effective
}

// EnrichClaim sets confidence_tier, p_error, and confidence on a Claim node's
// properties in place, and returns the node for chaining. evidenceSummary, if
// non-empty, is truncated to MaxPropertyValueLength and stored as well.
func EnrichClaim(node models.Node, confidence float64, effectivePrimary *float64, evidenceSummary string, params TierParams) models.Node {
	tier, effective := AssignConfidenceTier(confidence, effectivePrimary, params)
	if node.Properties == nil {
		node.Properties = make(map[string]interface{})
	}
	node.Properties["confidence_tier"] = string(tier)
	node.Properties["p_error"] = PError(effective)
	node.Properties["confidence"] = effective
	if evidenceSummary != "" {
		if len(evidenceSummary) > MaxPropertyValueLength {
			evidenceSummary = evidenceSummary[:MaxPropertyValueLength]
		}
		node.Properties["evidence_summary"] = evidenceSummary
	}
	return node
}
