package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmeth990/kgctl/pkg/kgdiff"
	"github.com/cmeth990/kgctl/pkg/models"
)

func TestKGVersionsHandlerReturnsEmptyWhenNoChangelog(t *testing.T) {
	s := NewServer(Config{Changelog: newFakeGraphStore()})

	req := httptest.NewRequest(http.MethodGet, "/kg/versions", nil)
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":null}`, rec.Body.String())
}

func TestKGVersionsHandlerReturnsNewestFirstWithinLimit(t *testing.T) {
	store := newFakeGraphStore()
	ctx := t.Context()
	for i := 0; i < 3; i++ {
		_, err := kgdiff.RecordKGChange(ctx, store, models.Diff{}, "diff", "writer", "", "seed", nil)
		require.NoError(t, err)
	}

	s := NewServer(Config{Changelog: store})

	req := httptest.NewRequest(http.MethodGet, "/kg/versions?limit=2", nil)
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChangelogListResponse
	require.NoError(t, decodeJSON(t, rec, &resp))
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, int64(3), resp.Entries[0].Version)
	assert.Equal(t, int64(2), resp.Entries[1].Version)
}

func TestKGVersionHandlerReturns404WhenMissing(t *testing.T) {
	s := NewServer(Config{Changelog: newFakeGraphStore()})

	req := httptest.NewRequest(http.MethodGet, "/kg/versions/9", nil)
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestKGVersionHandlerReturns400OnNonNumericVersion(t *testing.T) {
	s := NewServer(Config{Changelog: newFakeGraphStore()})

	req := httptest.NewRequest(http.MethodGet, "/kg/versions/not-a-number", nil)
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKGRollbackHandlerInvertsAndAppendsEntry(t *testing.T) {
	store := newFakeGraphStore()
	ctx := t.Context()

	addDiff := models.Diff{Nodes: models.NodeBucket{Add: []models.Node{{ID: "C:1", Label: models.NodeKindConcept}}}}
	_, err := kgdiff.ApplyDiff(ctx, store, addDiff)
	require.NoError(t, err)
	_, err = kgdiff.RecordKGChange(ctx, store, addDiff, "diff-1", "writer", "", "add", nil)
	require.NoError(t, err)

	s := NewServer(Config{Changelog: store, GraphStore: store})

	req := httptest.NewRequest(http.MethodPost, "/kg/rollback/0", nil)
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	_, found, err := store.GetNode(ctx, "C:1")
	require.NoError(t, err)
	assert.False(t, found, "rollback to version 0 should undo the add")
}

func TestKGHandlersReturn503WhenChangelogNotConfigured(t *testing.T) {
	s := NewServer(Config{})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/kg/versions", nil),
		httptest.NewRequest(http.MethodGet, "/kg/versions/1", nil),
		httptest.NewRequest(http.MethodPost, "/kg/rollback/1", nil),
	} {
		rec := httptest.NewRecorder()
		s.Engine().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	}
}
