package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmeth990/kgctl/pkg/database"
	"github.com/cmeth990/kgctl/pkg/models"
	testdatabase "github.com/cmeth990/kgctl/test/database"
)

func TestChangelogStoreAppendAndRead(t *testing.T) {
	client := testdatabase.NewTestClient(t)
	store := database.NewChangelogStore(client.DB())
	ctx := context.Background()

	version, err := store.NextVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	entry := models.ChangelogEntry{
		Version:     version,
		DiffID:      "diff-1",
		Timestamp:   time.Now().UTC(),
		Diff:        models.Diff{Nodes: models.NodeBucket{Add: []models.Node{{ID: "n1", Label: models.NodeKindConcept, Properties: map[string]interface{}{}}}}},
		SourceAgent: "graph_updater",
		Summary:     "added n1",
	}
	require.NoError(t, store.AppendChangelogEntry(ctx, entry))

	next, err := store.NextVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), next)

	latest, ok, err := store.LatestChangelogEntry(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "diff-1", latest.DiffID)
	assert.Equal(t, "added n1", latest.Summary)

	entry2 := entry
	entry2.Version = next
	entry2.DiffID = "diff-2"
	require.NoError(t, store.AppendChangelogEntry(ctx, entry2))

	after, err := store.ChangelogEntriesAfter(ctx, 0)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, "diff-1", after[0].DiffID)
	assert.Equal(t, "diff-2", after[1].DiffID)
}
