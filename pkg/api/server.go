// Package api provides the HTTP surface: the Telegram webhook, liveness
// probes, and the admin endpoints for telemetry, KG changelog/rollback, and
// queue triage.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cmeth990/kgctl/pkg/database"
	"github.com/cmeth990/kgctl/pkg/kgdiff"
	"github.com/cmeth990/kgctl/pkg/queue"
	"github.com/cmeth990/kgctl/pkg/supervisor"
	"github.com/cmeth990/kgctl/pkg/telemetry"
	"github.com/cmeth990/kgctl/pkg/transport"
)

// Server is the HTTP API server wrapping a gin.Engine and this module's
// queue/changelog/telemetry dependencies.
type Server struct {
	engine *gin.Engine
	http   *http.Server

	dbClient    *database.Client
	queueStore  queue.Store
	graphStore  kgdiff.Store
	changelog   kgdiff.ChangelogStore
	supervisor  *supervisor.Supervisor
	aggregator  *telemetry.Aggregator
	notifier    *transport.Service
	adminKey    string
	useDurable  bool
	webhookAuth string // optional shared secret Telegram sends back, empty = unchecked
}

// Config bundles the dependencies NewServer wires into routes. Any pointer
// field may be nil; the corresponding routes respond 503 instead of
// panicking.
type Config struct {
	DBClient    *database.Client
	QueueStore  queue.Store
	GraphStore  kgdiff.Store
	Changelog   kgdiff.ChangelogStore
	Supervisor  *supervisor.Supervisor
	Aggregator  *telemetry.Aggregator
	Notifier    *transport.Service
	AdminKey    string // empty = admin routes open (documented development-mode deployment choice)
	UseDurable  bool   // USE_DURABLE_QUEUE: true enqueues graph_run tasks, false runs inline
	WebhookAuth string
}

// NewServer builds a Server and registers every route.
func NewServer(cfg Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery())

	s := &Server{
		engine:      e,
		dbClient:    cfg.DBClient,
		queueStore:  cfg.QueueStore,
		graphStore:  cfg.GraphStore,
		changelog:   cfg.Changelog,
		supervisor:  cfg.Supervisor,
		aggregator:  cfg.Aggregator,
		notifier:    cfg.Notifier,
		adminKey:    cfg.AdminKey,
		useDurable:  cfg.UseDurable,
		webhookAuth: cfg.WebhookAuth,
	}

	s.setupRoutes()
	return s
}

// Engine exposes the underlying gin.Engine, e.g. for httptest.NewServer in
// tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) setupRoutes() {
	s.engine.GET("/", s.healthHandler)
	s.engine.GET("/health", s.healthHandler)

	s.engine.POST("/telegram/webhook", s.telegramWebhookHandler)

	admin := s.engine.Group("/")
	admin.Use(s.requireAdminKey())

	admin.GET("/telemetry/state", s.telemetryStateHandler)
	admin.GET("/telemetry/summary", s.telemetrySummaryHandler)
	admin.GET("/telemetry/tasks", s.telemetryTasksHandler)

	admin.GET("/kg/versions", s.kgVersionsHandler)
	admin.GET("/kg/versions/:v", s.kgVersionHandler)
	admin.POST("/kg/rollback/:v", s.kgRollbackHandler)

	admin.GET("/queue/dead-letter", s.queueDeadLetterHandler)
	admin.POST("/queue/triage/:task_id", s.queueTriageHandler)
	admin.GET("/queue/stuck", s.queueStuckHandler)

	admin.GET("/diagnostics/recursion", s.diagnosticsRecursionHandler)
}

// Start runs the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.engine}
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// shutdownTimeout is how long Start's caller should allow Shutdown to drain
// in-flight requests (cmd/kgctl's main wiring reuses this constant).
const shutdownTimeout = 10 * time.Second

// ShutdownTimeout returns shutdownTimeout.
func ShutdownTimeout() time.Duration { return shutdownTimeout }
