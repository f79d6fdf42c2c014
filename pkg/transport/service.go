package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmeth990/kgctl/pkg/redact"
)

// ServiceConfig holds the parameters needed to construct a Service.
type ServiceConfig struct {
	BotToken string
}

// Service delivers chat-facing messages over Telegram. Nil-safe: every
// method is a no-op when the service itself is nil, so pkg/queue.Worker can
// hold a Notifier that's simply absent in a transport-less test or
// deployment without branching on it at every call site.
type Service struct {
	client *Client
	logger *slog.Logger
}

// NewService creates a transport Service. Returns nil if cfg.BotToken is
// empty, so a deployment without a configured bot token gets a no-op
// Notifier automatically.
func NewService(cfg ServiceConfig) *Service {
	if cfg.BotToken == "" {
		return nil
	}
	return &Service{
		client: NewClient(cfg.BotToken),
		logger: slog.Default().With("component", "transport-service"),
	}
}

// NewServiceWithClient creates a Service backed by a pre-built Client, for
// tests against a mock Telegram API server.
func NewServiceWithClient(client *Client) *Service {
	return &Service{
		client: client,
		logger: slog.Default().With("component", "transport-service"),
	}
}

// SendMessage implements pkg/queue.Notifier: it redacts secrets out of text
// before it ever leaves the process, then delivers it to chatID. Fail-open:
// delivery failures are returned to the caller (pkg/queue.Worker logs and
// continues; it never blocks task completion on notification delivery).
func (s *Service) SendMessage(ctx context.Context, chatID, text string) error {
	if s == nil {
		return nil
	}
	safe := redact.String(text)
	if err := s.client.SendMessage(ctx, chatID, safe, 10*time.Second); err != nil {
		s.logger.Error("failed to send chat notification", "chat_id", chatID, "error", err)
		return err
	}
	return nil
}
