// Package config loads kgctl.yaml plus environment overrides into a
// ready-to-use Config, and wires the resulting values into the budget,
// breaker, and fetch-concurrency components built elsewhere.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/cmeth990/kgctl/pkg/breaker"
)

// ServerConfig holds the HTTP API's own settings.
type ServerConfig struct {
	Port        int    `yaml:"port" validate:"required,min=1,max=65535"`
	AdminKeyEnv string `yaml:"admin_key_env" validate:"required"`
}

// TransportConfig holds the Telegram bot credentials pkg/transport needs.
type TransportConfig struct {
	BotTokenEnv string `yaml:"bot_token_env"`
}

// BudgetConfig seeds pkg/cost.Budget's hard caps.
type BudgetConfig struct {
	GlobalDailyLimitUSD float64            `yaml:"global_daily_limit_usd" validate:"gte=0"`
	DomainLimitsUSD     map[string]float64 `yaml:"domain_limits_usd"`
	QueueLimitsUSD      map[string]float64 `yaml:"queue_limits_usd"`
}

// BreakerConfig seeds pkg/breaker.Registry's per-circuit tuning.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" validate:"gte=1"`
	WindowSeconds    int           `yaml:"window_seconds" validate:"gte=1"`
	RecoverySeconds  int           `yaml:"recovery_seconds" validate:"gte=1"`
	Window           time.Duration `yaml:"-"`
	Recovery         time.Duration `yaml:"-"`
}

// FetchConfig bounds outbound HTTP fan-out: requests run through a
// semaphore sized ConcurrencyLimit (default 5).
type FetchConfig struct {
	ConcurrencyLimit int           `yaml:"concurrency_limit" validate:"gte=1"`
	RequestTimeout   time.Duration `yaml:"request_timeout" validate:"gt=0"`
	BatchTimeout     time.Duration `yaml:"batch_timeout" validate:"gt=0"`
}

// QueueConfig overrides pkg/queue.Worker's poll/heartbeat cadence and sets
// how many worker goroutines each task type runs with.
type QueueConfig struct {
	WorkerCount       int           `yaml:"worker_count" validate:"gte=1"`
	PollInterval      time.Duration `yaml:"poll_interval" validate:"gt=0"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" validate:"gt=0"`
}

// RecursionConfig bounds the supervisor FSM's node-transition loop with an
// explicit recursion cap (default 30).
type RecursionConfig struct {
	Cap int `yaml:"cap" validate:"gte=1"`
}

// Config is the fully loaded, validated configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" validate:"required"`
	Transport TransportConfig `yaml:"transport"`
	Budget    BudgetConfig    `yaml:"budget"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Queue     QueueConfig     `yaml:"queue"`
	Recursion RecursionConfig `yaml:"recursion"`
}

// defaults returns a Config pre-populated with this package's stated
// defaults, so a kgctl.yaml only needs to name what it overrides.
func defaults() Config {
	return Config{
		Server:    ServerConfig{Port: 8080, AdminKeyEnv: "KGCTL_ADMIN_KEY"},
		Transport: TransportConfig{BotTokenEnv: "KGCTL_TELEGRAM_BOT_TOKEN"},
		Budget:    BudgetConfig{GlobalDailyLimitUSD: 50},
		Breaker: BreakerConfig{
			FailureThreshold: breaker.DefaultFailureThreshold,
			WindowSeconds:    breaker.DefaultWindowSeconds,
			RecoverySeconds:  breaker.DefaultRecoverySeconds,
		},
		Fetch: FetchConfig{
			ConcurrencyLimit: 5,
			RequestTimeout:   30 * time.Second,
			BatchTimeout:     2 * time.Minute,
		},
		Queue: QueueConfig{
			WorkerCount:       5,
			PollInterval:      2 * time.Second,
			HeartbeatInterval: 30 * time.Second,
		},
		Recursion: RecursionConfig{Cap: 30},
	}
}

// Load reads path (a kgctl.yaml), expands ${VAR} environment references,
// merges it over the built-in defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No file: defaults plus env overrides are enough to run.
			return finish(cfg)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	data = ExpandEnv(data)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return finish(cfg)
}

func finish(cfg Config) (*Config, error) {
	cfg.Breaker.Window = time.Duration(cfg.Breaker.WindowSeconds) * time.Second
	cfg.Breaker.Recovery = time.Duration(cfg.Breaker.RecoverySeconds) * time.Second

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// BreakerConfig returns the pkg/breaker.Config this configuration seeds.
func (c *Config) BreakerSettings() breaker.Config {
	return breaker.Config{
		FailureThreshold: c.Breaker.FailureThreshold,
		Window:           c.Breaker.Window,
		Recovery:         c.Breaker.Recovery,
	}
}

// AdminKey reads the admin API key from the environment variable named by
// Server.AdminKeyEnv.
func (c *Config) AdminKey() string {
	return os.Getenv(c.Server.AdminKeyEnv)
}

// TelegramBotToken reads the bot token from the environment variable named
// by Transport.BotTokenEnv.
func (c *Config) TelegramBotToken() string {
	return os.Getenv(c.Transport.BotTokenEnv)
}
