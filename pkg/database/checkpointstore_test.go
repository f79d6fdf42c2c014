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

func TestCheckpointStoreSaveAndLoad(t *testing.T) {
	client := testdatabase.NewTestClient(t)
	store := database.NewCheckpointStore(client.DB())
	ctx := context.Background()

	_, ok, err := store.Load(ctx, "thread-1")
	require.NoError(t, err)
	assert.False(t, ok)

	state := models.AgentState{
		ChatID: "thread-1",
		Intent: models.IntentGatherSources,
	}
	require.NoError(t, store.Save(ctx, "thread-1", state))

	loaded, ok, err := store.Load(ctx, "thread-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "thread-1", loaded.ChatID)
	assert.Equal(t, models.IntentGatherSources, loaded.Intent)

	state.Intent = models.IntentQuery
	require.NoError(t, store.Save(ctx, "thread-1", state))

	reloaded, ok, err := store.Load(ctx, "thread-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.IntentQuery, reloaded.Intent)
}
