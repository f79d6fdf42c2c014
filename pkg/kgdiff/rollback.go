package kgdiff

import (
	"context"
	"fmt"

	"github.com/cmeth990/kgctl/pkg/models"
)

// RollbackTo synthesizes and applies a reverse diff that undoes every
// changelog entry after version v, then appends a new changelog entry
// labeled "rollback". Entries are walked from the most recent back to v+1,
// inverting add↔delete per bucket; updates are inverted using the stored
// pre-image when one is present in the entry's metadata, and otherwise
// left as a no-op update.
func RollbackTo(ctx context.Context, store Store, logStore ChangelogStore, v int64) (models.ChangelogEntry, error) {
	entries, err := logStore.ChangelogEntriesAfter(ctx, v)
	if err != nil {
		return models.ChangelogEntry{}, fmt.Errorf("kgdiff: list changelog entries after %d: %w", v, err)
	}

	reverse := models.Diff{}
	for i := len(entries) - 1; i >= 0; i-- {
		inv := invertDiff(entries[i].Diff)
		reverse.Nodes.Add = append(reverse.Nodes.Add, inv.Nodes.Add...)
		reverse.Nodes.Update = append(reverse.Nodes.Update, inv.Nodes.Update...)
		reverse.Nodes.Delete = append(reverse.Nodes.Delete, inv.Nodes.Delete...)
		reverse.Edges.Add = append(reverse.Edges.Add, inv.Edges.Add...)
		reverse.Edges.Update = append(reverse.Edges.Update, inv.Edges.Update...)
		reverse.Edges.Delete = append(reverse.Edges.Delete, inv.Edges.Delete...)
	}

	result, err := store.ApplyDiff(ctx, reverse)
	if err != nil {
		return models.ChangelogEntry{}, fmt.Errorf("kgdiff: apply rollback diff: %w", err)
	}

	diffID := fmt.Sprintf("rollback-to-%d", v)
	return RecordKGChange(ctx, logStore, reverse, diffID, "rollback", "", fmt.Sprintf("rollback to version %d", v), &result)
}

// invertDiff swaps add↔delete in both buckets and, for updates, substitutes
// the pre-image recorded in diff.Metadata.PreImages when present.
func invertDiff(diff models.Diff) models.Diff {
	out := models.Diff{}

	out.Nodes.Add = nodesFromIDs(diff.Nodes.Delete)
	out.Nodes.Delete = idsFromNodes(diff.Nodes.Add)
	out.Nodes.Update = invertNodeUpdates(diff.Nodes.Update, diff.Metadata.PreImages)

	out.Edges.Add = diff.Edges.Delete
	out.Edges.Delete = diff.Edges.Add
	out.Edges.Update = invertEdgeUpdates(diff.Edges.Update, diff.Metadata.PreImages)

	return out
}

// nodesFromIDs reconstructs minimal Node stubs for a delete list being
// turned back into an add list. Real deletes only ever carry IDs; a rollback
// of a delete can restore at most the ID without a prior pre-image capture.
func nodesFromIDs(ids []string) []models.Node {
	if ids == nil {
		return nil
	}
	out := make([]models.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Node{ID: id})
	}
	return out
}

func idsFromNodes(nodes []models.Node) []string {
	if nodes == nil {
		return nil
	}
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func invertNodeUpdates(updates []models.Node, pre *models.PreImages) []models.Node {
	if updates == nil {
		return nil
	}
	out := make([]models.Node, 0, len(updates))
	for _, n := range updates {
		if pre != nil {
			if before, ok := pre.Nodes[n.ID]; ok {
				out = append(out, before)
				continue
			}
		}
		// No pre-image recorded: nothing to restore to, so the update is
		// dropped rather than applied as a no-op.
	}
	return out
}

func invertEdgeUpdates(updates []models.Edge, pre *models.PreImages) []models.Edge {
	if updates == nil {
		return nil
	}
	out := make([]models.Edge, 0, len(updates))
	for _, e := range updates {
		if pre != nil {
			if before, ok := pre.Edges[edgeKey(e)]; ok {
				out = append(out, before)
				continue
			}
		}
	}
	return out
}
