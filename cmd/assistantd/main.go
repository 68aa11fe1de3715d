// Command assistantd runs the assistant gateway: the HTTP/websocket caller
// surface in front of the turn controller, backed by Postgres for the
// productivity tools and Redis for provider preferences.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/convonet/assistant/internal/dotenv"
	"github.com/convonet/assistant/pkg/agent/runloop"
	"github.com/convonet/assistant/pkg/agent/tools"
	"github.com/convonet/assistant/pkg/core"
	"github.com/convonet/assistant/pkg/core/providers/anthropic"
	"github.com/convonet/assistant/pkg/core/providers/gemini"
	"github.com/convonet/assistant/pkg/core/providers/openai"
	"github.com/convonet/assistant/pkg/gateway/config"
	gatewayserver "github.com/convonet/assistant/pkg/gateway/server"
	"github.com/convonet/assistant/pkg/prefs"
	"github.com/convonet/assistant/pkg/store"
)

const defaultSystemPrompt = "You are a concise voice assistant for a productivity service. " +
	"Use the available tools for todos, reminders, calendar events, and teams. " +
	"Keep answers short enough to speak aloud."

func defaultModels() map[string]runloop.ModelConfig {
	return map[string]runloop.ModelConfig{
		"anthropic": {
			Primary:   "claude-sonnet-4-20250514",
			Fallbacks: []string{"claude-3-5-sonnet-latest", "claude-3-5-haiku-latest"},
		},
		"openai": {
			Primary:   "gpt-4o",
			Fallbacks: []string{"gpt-4o-mini"},
		},
		"gemini": {
			Primary:   "gemini-2.0-flash",
			Fallbacks: []string{"gemini-1.5-flash"},
		},
	}
}

func buildProviders(ctx context.Context, cfg config.Config, logger *slog.Logger) (core.ProviderRegistry, error) {
	registry := core.NewProviderRegistry()
	registered := 0

	if cfg.AnthropicAPIKey != "" {
		registry.Register(anthropic.New(cfg.AnthropicAPIKey))
		registered++
	}
	if cfg.OpenAIAPIKey != "" {
		registry.Register(openai.New(cfg.OpenAIAPIKey))
		registered++
	}
	if cfg.GeminiAPIKey != "" {
		p, err := gemini.New(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Warn("gemini client unavailable", "error", err)
		} else {
			registry.Register(p)
			registered++
		}
	}

	if registered == 0 {
		return nil, errors.New("no provider api key configured")
	}
	return registry, nil
}

func buildRegistry(ctx context.Context, cfg config.Config, st *store.Store, logger *slog.Logger) *tools.Registry {
	sources := []tools.Source{
		tools.TodoSource{Store: st},
		tools.ReminderSource{Store: st},
		tools.CalendarSource{Store: st},
		tools.TeamSource{Store: st},
		tools.TransferSource{
			FallbackExtension: cfg.TransferExtension,
			FallbackDept:      cfg.TransferDepartment,
		},
	}
	if cfg.IntegrationBaseURL != "" {
		sources = append(sources, tools.IntegrationSource{BaseURL: cfg.IntegrationBaseURL})
	}
	return tools.Assemble(ctx, logger, sources...)
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.DatabaseDSN == "" {
		return errors.New("CONVONET_DATABASE_DSN is required")
	}
	st, err := store.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()
	} else {
		logger.Warn("redis not configured, provider preferences fall back to the default")
	}
	resolver := prefs.NewResolver(rdb, cfg.DefaultProvider, logger)

	providers, err := buildProviders(ctx, cfg, logger)
	if err != nil {
		return err
	}
	registry := buildRegistry(ctx, cfg, st, logger)
	logger.Info("tool registry assembled", "tools", registry.Names())

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	invoker := runloop.NewInvoker(registry, logger)
	invoker.CallTimeout = cfg.ToolTimeout

	controller := &runloop.Controller{
		Providers:    providers,
		Resolver:     resolver,
		Invoker:      invoker,
		Registry:     registry,
		Cache:        runloop.NewGraphCache(),
		Threads:      runloop.NewThreads(),
		Log:          logger,
		SystemPrompt: systemPrompt,
		Models:       defaultModels(),
		BindTimeout:  cfg.BindTimeout,
		TurnDeadline: cfg.RunDeadline,
	}

	gw := gatewayserver.New(cfg, logger, gatewayserver.Deps{
		Runner:   controller,
		Resolver: resolver,
		Monitor:  runloop.NewMonitor(cfg.MonitorSize),
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}

	logger.Info("starting assistant gateway", "addr", cfg.Addr)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("assistant gateway stopped")
	return nil
}

func runMain(ctx context.Context, stderr io.Writer) int {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	if err := dotenv.LoadFile(".env"); err != nil {
		fmt.Fprintf(stderr, "assistantd: %v\n", err)
		return 1
	}

	if err := run(ctx, logger); err != nil {
		fmt.Fprintf(stderr, "assistantd: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr))
}
