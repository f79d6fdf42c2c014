package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmeth990/kgctl/pkg/models"
	"github.com/cmeth990/kgctl/pkg/queue"
	"github.com/cmeth990/kgctl/pkg/telemetry"
)

func TestTelemetryStateHandlerReturnsSnapshot(t *testing.T) {
	store := queue.NewMemoryStore()
	agg := telemetry.NewAggregator(nil, nil, nil, store, newFakeGraphStore())
	s := NewServer(Config{Aggregator: agg})

	req := httptest.NewRequest(http.MethodGet, "/telemetry/state", nil)
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "queue")
}

func TestTelemetrySummaryHandlerReturnsPlainText(t *testing.T) {
	agg := telemetry.NewAggregator(nil, nil, nil, queue.NewMemoryStore(), newFakeGraphStore())
	s := NewServer(Config{Aggregator: agg})

	req := httptest.NewRequest(http.MethodGet, "/telemetry/summary", nil)
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.String())
}

func TestTelemetryTasksHandlerListsDeadLetterBacklog(t *testing.T) {
	store := queue.NewMemoryStore()
	ctx := t.Context()
	taskID, err := store.Enqueue(ctx, models.TaskTypeGraphRun, map[string]interface{}{}, models.EnqueueOptions{})
	require.NoError(t, err)
	for i := 0; i < models.DefaultMaxRetries+1; i++ {
		require.NoError(t, store.Fail(ctx, taskID, "boom", true))
	}

	s := NewServer(Config{QueueStore: store})

	req := httptest.NewRequest(http.MethodGet, "/telemetry/tasks?limit=5", nil)
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp DeadLetterResponse
	require.NoError(t, decodeJSON(t, rec, &resp))
	require.Len(t, resp.Tasks, 1)
}

func TestTelemetryHandlersReturn503WhenAggregatorNotConfigured(t *testing.T) {
	s := NewServer(Config{})

	for _, path := range []string{"/telemetry/state", "/telemetry/summary"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Engine().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}
