package kgdiff

import (
	"context"
	"fmt"
	"time"

	"github.com/cmeth990/kgctl/pkg/models"
)

// ApplyDiff delegates to the store and returns its result unchanged.
func ApplyDiff(ctx context.Context, store Store, diff models.Diff) (models.ApplyResult, error) {
	return store.ApplyDiff(ctx, diff)
}

// RecordKGChange appends an immutable changelog entry for an already-applied
// diff, assigning the next version from the store's atomic counter. It
// never rewrites an existing entry.
func RecordKGChange(ctx context.Context, logStore ChangelogStore, diff models.Diff, diffID, sourceAgent, sourceDocument, reason string, result *models.ApplyResult) (models.ChangelogEntry, error) {
	version, err := logStore.NextVersion(ctx)
	if err != nil {
		return models.ChangelogEntry{}, fmt.Errorf("kgdiff: assign version: %w", err)
	}

	entry := models.ChangelogEntry{
		Version:        version,
		DiffID:         diffID,
		Timestamp:      time.Now(),
		Diff:           diff,
		SourceAgent:    sourceAgent,
		SourceDocument: sourceDocument,
		Reason:         reason,
		Result:         result,
		Summary:        FormatDiffSummary(diff),
	}

	if err := logStore.AppendChangelogEntry(ctx, entry); err != nil {
		return models.ChangelogEntry{}, fmt.Errorf("kgdiff: append changelog entry: %w", err)
	}
	return entry, nil
}

// FormatDiffSummary renders a human-readable counts string for approval
// prompts.
func FormatDiffSummary(diff models.Diff) string {
	c := diff.Counts()
	return fmt.Sprintf(
		"nodes: +%d ~%d -%d, edges: +%d ~%d -%d",
		c.NodesAdded, c.NodesUpdated, c.NodesDeleted,
		c.EdgesAdded, c.EdgesUpdated, c.EdgesDeleted,
	)
}
