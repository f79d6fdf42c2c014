package validation

import (
	"github.com/cmeth990/kgctl/pkg/kgschema"
	"github.com/cmeth990/kgctl/pkg/models"
)

// ValidateDiff bounds a writer-produced Diff's per-bucket counts and drops
// any edge.add entry whose endpoints don't resolve against the node kinds
// present in the same diff (when known) or the catalog's legal-endpoints
// table. It returns a sanitized copy; the input diff is never mutated.
func ValidateDiff(d models.Diff) (models.Diff, error) {
	out := d
	out.Nodes.Add = boundNodes(d.Nodes.Add, kgschema.MaxNodesAdd)
	out.Nodes.Update = boundNodes(d.Nodes.Update, kgschema.MaxNodesUpdate)
	out.Nodes.Delete = boundStrings(d.Nodes.Delete, kgschema.MaxNodesDelete)

	kindByID := make(map[string]models.NodeKind, len(out.Nodes.Add))
	for _, n := range out.Nodes.Add {
		kindByID[n.ID] = n.Label
	}

	out.Edges.Add = boundEdges(filterLegalEdges(d.Edges.Add, kindByID), kgschema.MaxEdgesAdd)
	out.Edges.Update = boundEdges(d.Edges.Update, kgschema.MaxEdgesUpdate)
	out.Edges.Delete = boundEdges(d.Edges.Delete, kgschema.MaxEdgesDelete)

	return out, nil
}

func filterLegalEdges(edges []models.Edge, kindByID map[string]models.NodeKind) []models.Edge {
	if len(kindByID) == 0 {
		return edges
	}
	kept := make([]models.Edge, 0, len(edges))
	for _, e := range edges {
		fromKind, fromKnown := kindByID[e.From]
		toKind, toKnown := kindByID[e.To]
		if fromKnown && toKnown && !kgschema.LegalEndpoints(e.Type, fromKind, toKind) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func boundNodes(nodes []models.Node, max int) []models.Node {
	if len(nodes) > max {
		return nodes[:max]
	}
	return nodes
}

func boundEdges(edges []models.Edge, max int) []models.Edge {
	if len(edges) > max {
		return edges[:max]
	}
	return edges
}

func boundStrings(ss []string, max int) []string {
	if len(ss) > max {
		return ss[:max]
	}
	return ss
}
