// Package transport delivers chat-facing messages to the Telegram Bot API
// and decodes its inbound webhook updates. It follows a client/service
// split, with a thin stdlib HTTP+JSON client standing in for a dedicated
// SDK: Telegram's Bot API is plain HTTP+JSON, so a stdlib client against it
// is the Go-idiomatic option. This package is a thin client over that
// external API, not a reimplementation of it.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const defaultAPIBase = "https://api.telegram.org"

// Client is a thin wrapper around the Telegram Bot API's sendMessage call.
type Client struct {
	httpClient *http.Client
	apiBase    string
	token      string
	logger     *slog.Logger
}

// NewClient creates a Telegram Bot API client for the given bot token.
func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{},
		apiBase:    defaultAPIBase,
		token:      token,
		logger:     slog.Default().With("component", "transport-client"),
	}
}

// NewClientWithAPIBase creates a client targeting a custom API base URL,
// for tests against a mock server.
func NewClientWithAPIBase(token, apiBase string) *Client {
	c := NewClient(token)
	c.apiBase = apiBase
	return c
}

type sendMessageRequest struct {
	ChatID              string `json:"chat_id"`
	Text                string `json:"text"`
	ReplyToMessageID    int64  `json:"reply_to_message_id,omitempty"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// SendMessage posts text to chatID via Telegram's sendMessage endpoint.
func (c *Client) SendMessage(ctx context.Context, chatID, text string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("marshaling sendMessage request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.apiBase, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendMessage request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decoding sendMessage response: %w", err)
	}
	if !decoded.OK {
		return fmt.Errorf("sendMessage rejected: %s", decoded.Description)
	}
	return nil
}

// Update is a single Telegram webhook update, trimmed to the fields the
// supervisor's intent detection needs.
type Update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		MessageID int64  `json:"message_id"`
		Text      string `json:"text"`
		Chat      struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
	CallbackQuery *struct {
		ID      string `json:"id"`
		Data    string `json:"data"`
		Message struct {
			Chat struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
	} `json:"callback_query"`
}

// DecodeUpdate parses a single inbound webhook body into an Update.
func DecodeUpdate(body []byte) (Update, error) {
	var u Update
	if err := json.Unmarshal(body, &u); err != nil {
		return Update{}, fmt.Errorf("decoding telegram update: %w", err)
	}
	return u, nil
}
