package validation

import (
	"github.com/cmeth990/kgctl/pkg/kgschema"
	"github.com/cmeth990/kgctl/pkg/models"
)

// Bounds on extractor output batches.
const (
	MaxEntitiesPerExtraction  = 200
	MaxRelationsPerExtraction = 300
	MaxClaimsPerExtraction    = 100
)

// edgeTypeRemap maps the loose relation labels a model or heuristic
// extractor sometimes emits onto the canonical edge-type catalog.
var edgeTypeRemap = map[string]models.EdgeType{
	"STUDIES":      models.EdgeRelatedTo,
	"PREREQUISITE": models.EdgePrereq,
	"ABOUT":        models.EdgeRelatedTo,
	"RELATES_TO":   models.EdgeRelatedTo,
	"PART_OF":      models.EdgePartOf,
	"IS_A":         models.EdgeIsA,
	"KIND_OF":      models.EdgeIsA,
}

// RemapEdgeType normalizes a raw relation label into a canonical edge type,
// applying edgeTypeRemap first and falling back to the label itself so
// callers can still reject it if it isn't in the allowlist.
func RemapEdgeType(raw string) models.EdgeType {
	if mapped, ok := edgeTypeRemap[raw]; ok {
		return mapped
	}
	return models.EdgeType(raw)
}

// ExtractedEntity is a raw entity candidate before linking/ID assignment.
type ExtractedEntity struct {
	Name       string                 `json:"name"`
	Kind       models.NodeKind        `json:"kind"`
	Properties map[string]interface{} `json:"properties"`
}

// ExtractedRelation is a raw relation candidate, referencing entities by
// name (not yet canonical IDs — that's the linker's job).
type ExtractedRelation struct {
	FromName string                 `json:"from_name"`
	ToName   string                 `json:"to_name"`
	Type     string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
}

// ExtractedClaim is a raw claim candidate.
type ExtractedClaim struct {
	Statement    string   `json:"statement"`
	Confidence   float64  `json:"confidence"`
	SourceID     string   `json:"source_id,omitempty"`
	EvidenceIDs  []string `json:"evidence_ids,omitempty"`
	SupportedBy  bool     `json:"-"` // set true when an inbound SUPPORTS relation targets this claim's name
	Name         string   `json:"name"`
}

// ExtractorOutput is the extractor's raw candidate batch.
type ExtractorOutput struct {
	Entities  []ExtractedEntity   `json:"entities"`
	Relations []ExtractedRelation `json:"relations"`
	Claims    []ExtractedClaim    `json:"claims"`
}

// ValidateExtractorOutput sanitizes a candidate extractor output: it bounds
// each list, restricts labels/edge types to the allowlists (remapping known
// aliases first), truncates oversized property values, drops entities with
// too many properties, and — when requireProvenance is set — quarantines any
// Claim lacking a source/evidence reference or an inbound SUPPORTS relation,
// along with any relation that referenced the quarantined claim by name.
// The input is never mutated; sanitized copies are returned.
func ValidateExtractorOutput(in ExtractorOutput, requireProvenance bool) (ExtractorOutput, error) {
	out := ExtractorOutput{}

	entities := in.Entities
	if len(entities) > MaxEntitiesPerExtraction {
		entities = entities[:MaxEntitiesPerExtraction]
	}
	for _, e := range entities {
		if !kgschema.IsNodeKind(e.Kind) {
			continue
		}
		out.Entities = append(out.Entities, sanitizeEntity(e))
	}

	relations := in.Relations
	if len(relations) > MaxRelationsPerExtraction {
		relations = relations[:MaxRelationsPerExtraction]
	}
	for _, r := range relations {
		remapped := RemapEdgeType(r.Type)
		if !kgschema.IsEdgeType(remapped) {
			continue
		}
		clone := r
		clone.Type = string(remapped)
		clone.Properties = truncatedProperties(r.Properties)
		out.Relations = append(out.Relations, clone)
	}

	claims := in.Claims
	if len(claims) > MaxClaimsPerExtraction {
		claims = claims[:MaxClaimsPerExtraction]
	}

	supportedNames := make(map[string]bool)
	for _, r := range out.Relations {
		if models.EdgeType(r.Type) == models.EdgeSupports {
			supportedNames[r.ToName] = true
		}
	}

	quarantined := make(map[string]bool)
	for _, c := range claims {
		hasBacking := c.SourceID != "" || len(c.EvidenceIDs) > 0 || supportedNames[c.Name]
		if requireProvenance && !hasBacking {
			quarantined[c.Name] = true
			continue
		}
		clone := c
		out.Claims = append(out.Claims, clone)
	}

	if len(quarantined) > 0 {
		kept := out.Relations[:0:0]
		for _, r := range out.Relations {
			if quarantined[r.FromName] || quarantined[r.ToName] {
				continue
			}
			kept = append(kept, r)
		}
		out.Relations = kept
	}

	return out, nil
}

func sanitizeEntity(e ExtractedEntity) ExtractedEntity {
	clone := e
	clone.Properties = truncatedProperties(e.Properties)
	if len(clone.Properties) > kgschema.MaxEntityProperties {
		trimmed := make(map[string]interface{}, kgschema.MaxEntityProperties)
		i := 0
		for k, v := range clone.Properties {
			if i >= kgschema.MaxEntityProperties {
				break
			}
			trimmed[k] = v
			i++
		}
		clone.Properties = trimmed
	}
	return clone
}

func truncatedProperties(props map[string]interface{}) map[string]interface{} {
	if props == nil {
		return nil
	}
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		if s, ok := v.(string); ok && len(s) > kgschema.MaxPropertyValueLength {
			out[k] = s[:kgschema.MaxPropertyValueLength]
			continue
		}
		out[k] = v
	}
	return out
}
