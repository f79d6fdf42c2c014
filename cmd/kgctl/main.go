// kgctl is the knowledge-graph ingestion control plane: a Telegram-facing
// conversational agent that discovers sources, fetches content, extracts
// entities/relations/claims, proposes graph mutations, and surfaces key
// decisions for approval.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cmeth990/kgctl/pkg/api"
	"github.com/cmeth990/kgctl/pkg/breaker"
	"github.com/cmeth990/kgctl/pkg/config"
	"github.com/cmeth990/kgctl/pkg/cost"
	"github.com/cmeth990/kgctl/pkg/database"
	"github.com/cmeth990/kgctl/pkg/discovery"
	"github.com/cmeth990/kgctl/pkg/egress"
	"github.com/cmeth990/kgctl/pkg/fetch"
	"github.com/cmeth990/kgctl/pkg/kgcache"
	"github.com/cmeth990/kgctl/pkg/llm"
	"github.com/cmeth990/kgctl/pkg/models"
	"github.com/cmeth990/kgctl/pkg/queue"
	"github.com/cmeth990/kgctl/pkg/ratelimit"
	"github.com/cmeth990/kgctl/pkg/supervisor"
	"github.com/cmeth990/kgctl/pkg/telemetry"
	"github.com/cmeth990/kgctl/pkg/transport"
	"github.com/cmeth990/kgctl/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", "./kgctl.yaml"), "Path to kgctl.yaml")
	envPath := flag.String("env-file", getEnv("ENV_FILE", "./.env"), "Path to a .env file")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil {
		log.Printf("warning: could not load %s: %v", *envPath, err)
	}

	log.Printf("starting %s", version.Full())

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("loading database config: %v", err)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Printf("closing database client: %v", err)
		}
	}()

	graphStore := database.NewGraphStore(dbClient.DB())
	changelogStore := database.NewChangelogStore(dbClient.DB())
	checkpointStore := database.NewCheckpointStore(dbClient.DB())
	queueStore := queue.NewSQLStore(dbClient.DB())

	breakers := breaker.NewRegistry(cfg.BreakerSettings())
	tracker := cost.NewTracker()
	budget := cost.NewBudget(tracker)
	budget.SetGlobalDailyLimit(cfg.Budget.GlobalDailyLimitUSD)
	for domain, limit := range cfg.Budget.DomainLimitsUSD {
		budget.SetDomainLimit(domain, limit)
	}
	for q, limit := range cfg.Budget.QueueLimitsUSD {
		budget.SetQueueLimit(q, limit)
	}
	envelopes := cost.NewEnvelopeManager(tracker)

	allowlist := egress.NewAllowlist(os.Getenv("KGCTL_EXTRA_ALLOWLIST"))
	cache := kgcache.NewMemoryCache()
	fetcher := fetch.New(allowlist, cache, cfg.Fetch.ConcurrencyLimit)

	limiter := ratelimit.New()
	providerRegistry := discovery.NewProviderRegistry()
	discoverer := discovery.NewDiscoverer(providerRegistry, limiter, breakers)

	extractClient := buildTrackedClient(breakers, tracker, budget, envelopes, "extractor")
	intentClient := buildTrackedClient(breakers, tracker, budget, envelopes, "intent")

	sup := supervisor.NewSupervisor(graphStore, changelogStore, checkpointStore, discoverer, fetcher, extractClient, intentClient, "supervisor")
	sup.RecursionCap = cfg.Recursion.Cap

	notifier := transport.NewService(transport.ServiceConfig{BotToken: cfg.TelegramBotToken()})

	// Two pools share the store: graph_run handles interactive turns,
	// mission_continue drains the autonomous-expansion tasks a turn
	// enqueues for itself while a decision sits awaiting approval.
	workers := make([]*queue.Worker, 0, cfg.Queue.WorkerCount*2)
	for i := 0; i < cfg.Queue.WorkerCount; i++ {
		w := queue.NewWorker(queueStore, sup, sup, notifier, models.TaskTypeGraphRun)
		w.Start(ctx)
		workers = append(workers, w)
	}
	for i := 0; i < cfg.Queue.WorkerCount; i++ {
		w := queue.NewWorker(queueStore, sup, sup, notifier, models.TaskTypeMissionContinue)
		w.Start(ctx)
		workers = append(workers, w)
	}

	aggregator := telemetry.NewAggregator(tracker, budget, breakers, queueStore, changelogStore)

	server := api.NewServer(api.Config{
		DBClient:    dbClient,
		QueueStore:  queueStore,
		GraphStore:  graphStore,
		Changelog:   changelogStore,
		Supervisor:  sup,
		Aggregator:  aggregator,
		Notifier:    notifier,
		AdminKey:    cfg.AdminKey(),
		UseDurable:  getEnv("USE_DURABLE_QUEUE", "true") == "true",
		WebhookAuth: os.Getenv("KGCTL_TELEGRAM_WEBHOOK_SECRET"),
	})

	addr := ":" + getEnv("PORT", strconv.Itoa(cfg.Server.Port))

	srv := &http.Server{Addr: addr, Handler: server.Engine()}
	go func() {
		log.Printf("http server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received")

	for _, w := range workers {
		w.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), api.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server shutdown: %v", err)
	}
}

// buildTrackedClient wires an OpenAI-compatible HTTP model client behind
// the breaker/cost/budget stack, tagged by agent so telemetry and the
// budget governor can attribute spend per caller.
func buildTrackedClient(breakers *breaker.Registry, tracker *cost.Tracker, budget *cost.Budget, envelopes *cost.EnvelopeManager, agent string) *llm.TrackedClient {
	base := llm.NewHTTPClient(
		getEnv("KGCTL_LLM_BASE_URL", "https://api.openai.com/v1"),
		os.Getenv("KGCTL_LLM_API_KEY"),
		30*time.Second,
	)
	tc := llm.NewTrackedClient(base, breakers, tracker, budget, envelopes)
	tc.Model = getEnv("KGCTL_LLM_MODEL", "gpt-4o-mini")
	tc.Provider = "openai"
	tc.Agent = agent
	return tc
}
