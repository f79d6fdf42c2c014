// Package writer turns linked entities/relations into a proposed Diff:
// node-adds with IDs echoed into properties, an optional synthesized
// Hypernode with CONTAINS edges for clustered batches, scale and
// category/upper-ontology/ORP-role annotation, and provenance.
package writer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cmeth990/kgctl/pkg/kgdiff"
	"github.com/cmeth990/kgctl/pkg/kgschema"
	"github.com/cmeth990/kgctl/pkg/models"
	"github.com/cmeth990/kgctl/pkg/taxonomy"
	"github.com/cmeth990/kgctl/pkg/validation"
)

// hypernodeThreshold is the node count at or above which a batch is
// treated as a cluster and gets a synthesized Hypernode.
const hypernodeThreshold = 5

// macroNodeCount is the node-count floor InferScale uses to call a batch
// "macro" outright, independent of keyword hints.
const macroNodeCount = 50

var macroKeywords = []string{"domain", "hierarchy", "system", "architecture", "framework", "meta", "overall", "global"}
var mesoKeywords = []string{"cluster", "group", "subgraph", "module", "component", "gate", "circuit"}

// InferScale infers the ORP scale from content keywords and node count.
func InferScale(content string, nodeCount int) models.Scale {
	lower := strings.ToLower(content)

	if containsAny(lower, macroKeywords) || nodeCount > macroNodeCount {
		return models.ScaleMacro
	}
	if containsAny(lower, mesoKeywords) || (nodeCount >= 10 && nodeCount <= macroNodeCount) {
		return models.ScaleMeso
	}
	return models.ScaleMicro
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func hasClusterHint(entities map[string]validation.ExtractedEntity) bool {
	for _, e := range entities {
		if e.Kind == models.NodeKindHypernode {
			return true
		}
		if name, ok := e.Properties["name"].(string); ok && strings.Contains(strings.ToLower(name), "cluster") {
			return true
		}
	}
	return false
}

// Write produces the proposed diff for a linker output, given the source
// content (for scale inference), the originating agent/document, and a
// reasoning string for provenance.
func Write(linked validation.LinkerOutput, content, sourceAgent, sourceDocument, reason string) (models.Diff, string, error) {
	diffID := "diff_" + uuid.NewString()
	diff := models.Diff{}

	scale := InferScale(content, len(linked.Entities))
	shouldHypernode := len(linked.Entities) >= hypernodeThreshold || hasClusterHint(linked.Entities)

	var hypernodeID string
	if shouldHypernode {
		id, err := kgschema.GenerateID(models.NodeKindHypernode)
		if err != nil {
			return models.Diff{}, "", err
		}
		hypernodeID = id

		members := make([]string, 0, len(linked.Entities))
		for id := range linked.Entities {
			members = append(members, id)
		}

		diff.Nodes.Add = append(diff.Nodes.Add, models.Node{
			ID:    hypernodeID,
			Label: models.NodeKindHypernode,
			Properties: map[string]interface{}{
				"id":    hypernodeID,
				"name":  fmt.Sprintf("Cluster_%d_nodes", len(linked.Entities)),
				"scale": string(scale),
			},
		})
	}

	for id, entity := range linked.Entities {
		props := clonedProperties(entity.Properties)
		props["id"] = id

		if _, has := props["scale"]; !has {
			switch entity.Kind {
			case models.NodeKindConcept, models.NodeKindClaim, models.NodeKindProcess, models.NodeKindHypernode:
				props["scale"] = string(scale)
			}
		}

		if entity.Kind == models.NodeKindConcept {
			if domain, ok := props["domain"].(string); ok && domain != "" {
				category, upperOntology, orpRole := taxonomy.Annotate(domain)
				props["category"] = category
				props["upper_ontology"] = string(upperOntology)
				props["orp_role"] = string(orpRole)
			}
		}

		diff.Nodes.Add = append(diff.Nodes.Add, models.Node{
			ID:         id,
			Label:      entity.Kind,
			Properties: props,
		})

		if hypernodeID != "" && entity.Kind != models.NodeKindHypernode {
			diff.Edges.Add = append(diff.Edges.Add, models.Edge{
				From: hypernodeID,
				To:   id,
				Type: models.EdgeContains,
				Properties: map[string]interface{}{
					"containment_type":  "orp_structure",
					"compression_level": 0.5,
				},
			})
		}
	}

	for _, rel := range linked.Relations {
		diff.Edges.Add = append(diff.Edges.Add, models.Edge{
			From: rel.From,
			To:   rel.To,
			Type: validation.RemapEdgeType(rel.Type),
		})
	}

	diff.Metadata.Source = sourceDocument
	diff.Metadata.Reason = fmt.Sprintf("User requested: %s", reason)
	diff = kgdiff.EnrichDiffWithProvenance(diff, sourceAgent, sourceDocument, reason)

	validated, err := validation.ValidateDiff(diff)
	if err != nil {
		return models.Diff{}, "", err
	}

	return validated, diffID, nil
}

func clonedProperties(props map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(props)+1)
	for k, v := range props {
		out[k] = v
	}
	return out
}
