package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockTelegramServer(t *testing.T) (*httptest.Server, *[]sendMessageRequest) {
	t.Helper()
	var received []sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		received = append(received, req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(apiResponse{OK: true})
	}))
	return srv, &received
}

func TestClientSendMessage(t *testing.T) {
	srv, got := newMockTelegramServer(t)
	defer srv.Close()

	client := NewClientWithAPIBase("test-token", srv.URL)
	err := client.SendMessage(context.Background(), "chat-1", "hello there", 5*time.Second)
	require.NoError(t, err)

	require.Len(t, *got, 1)
	assert.Equal(t, "chat-1", (*got)[0].ChatID)
	assert.Equal(t, "hello there", (*got)[0].Text)
}

func TestClientSendMessageAPIRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(apiResponse{OK: false, Description: "chat not found"})
	}))
	defer srv.Close()

	client := NewClientWithAPIBase("test-token", srv.URL)
	err := client.SendMessage(context.Background(), "missing-chat", "hello", 5*time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestDecodeUpdateMessage(t *testing.T) {
	body := []byte(`{"update_id":1,"message":{"message_id":2,"text":"status","chat":{"id":42}}}`)
	update, err := DecodeUpdate(body)
	require.NoError(t, err)
	require.NotNil(t, update.Message)
	assert.Equal(t, "status", update.Message.Text)
	assert.Equal(t, int64(42), update.Message.Chat.ID)
}

func TestDecodeUpdateCallbackQuery(t *testing.T) {
	body := []byte(`{"update_id":2,"callback_query":{"id":"cb1","data":"approve","message":{"chat":{"id":7}}}}`)
	update, err := DecodeUpdate(body)
	require.NoError(t, err)
	require.NotNil(t, update.CallbackQuery)
	assert.Equal(t, "approve", update.CallbackQuery.Data)
	assert.Equal(t, int64(7), update.CallbackQuery.Message.Chat.ID)
}
