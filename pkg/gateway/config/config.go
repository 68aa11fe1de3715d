package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full runtime configuration, loaded from CONVONET_* env
// variables. Provider API keys may be empty; a provider without a key is
// simply not registered.
type Config struct {
	Addr string

	// Storage backends.
	DatabaseDSN   string
	RedisAddr     string
	RedisPassword string

	// Provider credentials and routing.
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GeminiAPIKey    string
	DefaultProvider string
	SystemPrompt    string

	// Turn budgets. The run path serves the telephony boundary and stays
	// under its webhook timeout; the ws path gets a little more room.
	RunDeadline time.Duration
	WSDeadline  time.Duration
	ToolTimeout time.Duration
	BindTimeout time.Duration
	MonitorSize int

	// Transfer fallbacks when the model omits routing details.
	TransferExtension  string
	TransferDepartment string

	// Optional external integration service probed at startup.
	IntegrationBaseURL string

	// Per-caller limits on the caller surface. Zero disables a knob.
	LimitRPS                   float64
	LimitBurst                 int
	LimitMaxConcurrentTurns    int
	LimitMaxConcurrentSessions int

	// Operational defaults.
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration
}

// LoadFromEnv reads configuration from the environment, applying defaults
// and validating the budget relationships.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                       envOr("CONVONET_ADDR", ":8080"),
		DatabaseDSN:                os.Getenv("CONVONET_DATABASE_DSN"),
		RedisAddr:                  os.Getenv("CONVONET_REDIS_ADDR"),
		RedisPassword:              os.Getenv("CONVONET_REDIS_PASSWORD"),
		AnthropicAPIKey:            os.Getenv("CONVONET_ANTHROPIC_API_KEY"),
		OpenAIAPIKey:               os.Getenv("CONVONET_OPENAI_API_KEY"),
		GeminiAPIKey:               os.Getenv("CONVONET_GEMINI_API_KEY"),
		DefaultProvider:            envOr("CONVONET_DEFAULT_PROVIDER", "claude"),
		SystemPrompt:               os.Getenv("CONVONET_SYSTEM_PROMPT"),
		RunDeadline:                envDurationOr("CONVONET_RUN_DEADLINE", 12*time.Second),
		WSDeadline:                 envDurationOr("CONVONET_WS_DEADLINE", 20*time.Second),
		ToolTimeout:                envDurationOr("CONVONET_TOOL_TIMEOUT", 6*time.Second),
		BindTimeout:                envDurationOr("CONVONET_BIND_TIMEOUT", 5*time.Second),
		MonitorSize:                envIntOr("CONVONET_MONITOR_SIZE", 256),
		TransferExtension:          envOr("CONVONET_TRANSFER_EXTENSION", "2001"),
		TransferDepartment:         envOr("CONVONET_TRANSFER_DEPARTMENT", "support"),
		IntegrationBaseURL:         os.Getenv("CONVONET_INTEGRATION_BASE_URL"),
		LimitRPS:                   envFloat64Or("CONVONET_RATE_LIMIT_RPS", 2.0),
		LimitBurst:                 envIntOr("CONVONET_RATE_LIMIT_BURST", 4),
		LimitMaxConcurrentTurns:    envIntOr("CONVONET_MAX_CONCURRENT_TURNS", 20),
		LimitMaxConcurrentSessions: envIntOr("CONVONET_MAX_SESSIONS_PER_CALLER", 2),
		ReadHeaderTimeout:          envDurationOr("CONVONET_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:                envDurationOr("CONVONET_READ_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod:        envDurationOr("CONVONET_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	if cfg.RunDeadline <= 0 {
		return Config{}, fmt.Errorf("CONVONET_RUN_DEADLINE must be > 0")
	}
	if cfg.WSDeadline <= 0 {
		return Config{}, fmt.Errorf("CONVONET_WS_DEADLINE must be > 0")
	}
	if cfg.ToolTimeout <= 0 {
		return Config{}, fmt.Errorf("CONVONET_TOOL_TIMEOUT must be > 0")
	}
	if cfg.BindTimeout <= 0 {
		return Config{}, fmt.Errorf("CONVONET_BIND_TIMEOUT must be > 0")
	}
	if cfg.ToolTimeout >= cfg.RunDeadline {
		return Config{}, fmt.Errorf("CONVONET_TOOL_TIMEOUT must be < CONVONET_RUN_DEADLINE")
	}
	if cfg.MonitorSize <= 0 {
		return Config{}, fmt.Errorf("CONVONET_MONITOR_SIZE must be > 0")
	}
	if cfg.LimitRPS < 0 || cfg.LimitBurst < 0 {
		return Config{}, fmt.Errorf("CONVONET_RATE_LIMIT_RPS and CONVONET_RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.LimitMaxConcurrentTurns < 0 || cfg.LimitMaxConcurrentSessions < 0 {
		return Config{}, fmt.Errorf("concurrency limits must be >= 0")
	}
	switch cfg.DefaultProvider {
	case "claude", "openai", "gemini":
	default:
		return Config{}, fmt.Errorf("CONVONET_DEFAULT_PROVIDER must be one of claude|openai|gemini")
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat64Or(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envDurationOr(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
