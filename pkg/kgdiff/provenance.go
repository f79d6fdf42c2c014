package kgdiff

import (
	"context"
	"time"

	"github.com/cmeth990/kgctl/pkg/models"
)

// EnrichDiffWithProvenance attaches a `_provenance` record to every node and
// edge in nodes.add∪update and edges.add∪update, and fills in the diff's own
// metadata. It returns a new Diff; the input is left untouched.
func EnrichDiffWithProvenance(diff models.Diff, agent, document, reasoning string) models.Diff {
	now := time.Now()
	prov := &models.Provenance{
		SourceAgent:    agent,
		SourceDocument: document,
		CreatedAt:      now,
		Confidence:     1.0,
		Reasoning:      reasoning,
	}

	out := diff
	out.Nodes.Add = stampNodes(diff.Nodes.Add, prov)
	out.Nodes.Update = stampNodes(diff.Nodes.Update, prov)
	out.Edges.Add = stampEdges(diff.Edges.Add, prov)
	out.Edges.Update = stampEdges(diff.Edges.Update, prov)

	out.Metadata = diff.Metadata
	out.Metadata.CreatedAt = now
	out.Metadata.ProvenanceAgent = agent
	out.Metadata.ProvenanceAt = &now

	return out
}

func stampNodes(nodes []models.Node, prov *models.Provenance) []models.Node {
	if nodes == nil {
		return nil
	}
	out := make([]models.Node, len(nodes))
	for i, n := range nodes {
		clone := n.Clone()
		p := *prov
		clone.Provenance = &p
		out[i] = clone
	}
	return out
}

func stampEdges(edges []models.Edge, prov *models.Provenance) []models.Edge {
	if edges == nil {
		return nil
	}
	out := make([]models.Edge, len(edges))
	for i, e := range edges {
		clone := e.Clone()
		p := *prov
		clone.Provenance = &p
		out[i] = clone
	}
	return out
}

// edgeKey builds the PreImages.Edges map key for an edge.
func edgeKey(e models.Edge) string {
	return e.From + "|" + string(e.Type) + "|" + e.To
}

// CapturePreImages fetches the store's current state for every node/edge
// named in diff.Nodes.Update and diff.Edges.Update and attaches it to the
// diff's metadata, so a later rollback can invert updates faithfully.
// Missing nodes/edges (e.g. an update racing a delete) are skipped;
// rollback treats a missing pre-image as "nothing to restore".
func CapturePreImages(ctx context.Context, store Store, diff models.Diff) (models.Diff, error) {
	if len(diff.Nodes.Update) == 0 && len(diff.Edges.Update) == 0 {
		return diff, nil
	}

	pre := &models.PreImages{
		Nodes: make(map[string]models.Node),
		Edges: make(map[string]models.Edge),
	}

	for _, n := range diff.Nodes.Update {
		existing, found, err := store.GetNode(ctx, n.ID)
		if err != nil {
			return diff, err
		}
		if found {
			pre.Nodes[n.ID] = existing
		}
	}

	for _, e := range diff.Edges.Update {
		existing, found, err := store.GetEdge(ctx, e.From, e.To, e.Type)
		if err != nil {
			return diff, err
		}
		if found {
			pre.Edges[edgeKey(e)] = existing
		}
	}

	out := diff
	out.Metadata.PreImages = pre
	return out, nil
}
