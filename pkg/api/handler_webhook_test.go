package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmeth990/kgctl/pkg/models"
	"github.com/cmeth990/kgctl/pkg/queue"
	"github.com/cmeth990/kgctl/pkg/transport"
)

func TestStateFromUpdateExtractsMessageText(t *testing.T) {
	update := transport.Update{Message: &struct {
		MessageID int64  `json:"message_id"`
		Text      string `json:"text"`
		Chat      struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	}{Text: "find sources on gravity", Chat: struct {
		ID int64 `json:"id"`
	}{ID: 42}}}

	state, ok := stateFromUpdate(update)
	require.True(t, ok)
	assert.Equal(t, "42", state.ChatID)
	assert.Equal(t, "find sources on gravity", state.UserInput)
}

func TestStateFromUpdateExtractsApprovalDecision(t *testing.T) {
	update := transport.Update{CallbackQuery: &struct {
		ID      string `json:"id"`
		Data    string `json:"data"`
		Message struct {
			Chat struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
	}{Data: "approve", Message: struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	}{Chat: struct {
		ID int64 `json:"id"`
	}{ID: 7}}}}

	state, ok := stateFromUpdate(update)
	require.True(t, ok)
	assert.Equal(t, "7", state.ChatID)
	assert.Equal(t, models.ApprovalApprove, state.ApprovalDecision)
}

func TestStateFromUpdateRejectsUnrecognizedCallbackData(t *testing.T) {
	update := transport.Update{CallbackQuery: &struct {
		ID      string `json:"id"`
		Data    string `json:"data"`
		Message struct {
			Chat struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
	}{Data: "snooze"}}

	_, ok := stateFromUpdate(update)
	assert.False(t, ok)
}

func TestStateFromUpdateRejectsEmptyUpdate(t *testing.T) {
	_, ok := stateFromUpdate(transport.Update{})
	assert.False(t, ok)
}

func TestTelegramWebhookHandlerEnqueuesWhenDurable(t *testing.T) {
	store := queue.NewMemoryStore()
	s := NewServer(Config{QueueStore: store, UseDurable: true})

	body, err := json.Marshal(map[string]interface{}{
		"update_id": 1,
		"message": map[string]interface{}{
			"message_id": 1,
			"text":       "gather sources",
			"chat":       map[string]interface{}{"id": 99},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var ack WebhookAck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.True(t, ack.Accepted)
	assert.NotEmpty(t, ack.TaskID)

	tasks, err := store.Dequeue(t.Context(), models.TaskTypeGraphRun, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "gather sources", tasks[0].Payload["user_input"])
}

func TestTelegramWebhookHandlerAcksWithoutDispatchOnUnrecognizedUpdate(t *testing.T) {
	s := NewServer(Config{UseDurable: true, QueueStore: queue.NewMemoryStore()})

	body, err := json.Marshal(map[string]interface{}{"update_id": 1})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var ack WebhookAck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.False(t, ack.Accepted)
}

func TestTelegramWebhookHandlerRejectsWrongSecretToken(t *testing.T) {
	s := NewServer(Config{WebhookAuth: "expected-token"})

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "wrong")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTelegramWebhookHandlerReturns503WhenInlineSupervisorNotConfigured(t *testing.T) {
	s := NewServer(Config{UseDurable: false})

	body, err := json.Marshal(map[string]interface{}{
		"update_id": 1,
		"message": map[string]interface{}{
			"message_id": 1,
			"text":       "hello",
			"chat":       map[string]interface{}{"id": 1},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
