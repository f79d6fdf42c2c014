package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmeth990/kgctl/pkg/database"
	"github.com/cmeth990/kgctl/pkg/models"
	testdatabase "github.com/cmeth990/kgctl/test/database"
)

func TestGraphStoreApplyDiffAndQuery(t *testing.T) {
	client := testdatabase.NewTestClient(t)
	store := database.NewGraphStore(client.DB())
	ctx := context.Background()

	diff := models.Diff{
		Nodes: models.NodeBucket{Add: []models.Node{
			{ID: "n1", Label: models.NodeKindConcept, Properties: map[string]interface{}{"name": "Ada Lovelace"}},
			{ID: "n2", Label: models.NodeKindConcept, Properties: map[string]interface{}{"name": "Charles Babbage"}},
		}},
		Edges: models.EdgeBucket{Add: []models.Edge{
			{From: "n1", To: "n2", Type: models.EdgeRelatedTo, Properties: map[string]interface{}{}},
		}},
	}

	result, err := store.ApplyDiff(ctx, diff)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Counts.NodesAdded)
	assert.Equal(t, 1, result.Counts.EdgesAdded)

	node, ok, err := store.GetNode(ctx, "n1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ada Lovelace", node.Properties["name"])

	matches, err := store.QueryNodes(ctx, "Lovelace", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "n1", matches[0].ID)

	neighbors, edges, err := store.Neighbors(ctx, "n1", "")
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "n2", neighbors[0].ID)
	require.Len(t, edges, 1)

	deleteDiff := models.Diff{Nodes: models.NodeBucket{Delete: []string{"n2"}}}
	_, err = store.ApplyDiff(ctx, deleteDiff)
	require.NoError(t, err)

	_, ok, err = store.GetNode(ctx, "n2")
	require.NoError(t, err)
	assert.False(t, ok)
}
