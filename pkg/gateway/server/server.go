// Package server assembles the gateway mux and middleware chain.
package server

import (
	"log/slog"
	"net/http"

	"github.com/convonet/assistant/pkg/agent/runloop"
	"github.com/convonet/assistant/pkg/gateway/config"
	"github.com/convonet/assistant/pkg/gateway/handlers"
	"github.com/convonet/assistant/pkg/gateway/mw"
	"github.com/convonet/assistant/pkg/gateway/ratelimit"
	"github.com/convonet/assistant/pkg/prefs"
)

// Deps are the collaborators the server routes requests to. Transcriber
// and Synthesizer may be nil for text-only deployments.
type Deps struct {
	Runner      handlers.Runner
	Resolver    *prefs.Resolver
	Monitor     *runloop.Monitor
	Transcriber handlers.Transcriber
	Synthesizer handlers.Synthesizer
}

type Server struct {
	cfg     config.Config
	logger  *slog.Logger
	mux     *http.ServeMux
	deps    Deps
	limiter *ratelimit.Limiter
}

func New(cfg config.Config, logger *slog.Logger, deps Deps) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		logger: logger,
		mux:    http.NewServeMux(),
		deps:   deps,
		limiter: ratelimit.New(ratelimit.Config{
			RPS:                   cfg.LimitRPS,
			Burst:                 cfg.LimitBurst,
			MaxConcurrentTurns:    cfg.LimitMaxConcurrentTurns,
			MaxConcurrentSessions: cfg.LimitMaxConcurrentSessions,
		}),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{Config: s.cfg})

	s.mux.Handle("/v1/agent/run", handlers.RunHandler{
		Runner:   s.deps.Runner,
		Monitor:  s.deps.Monitor,
		Deadline: s.cfg.RunDeadline,
		Logger:   s.logger,
	})
	s.mux.Handle("/v1/agent/ws", handlers.WSHandler{
		Runner:      s.deps.Runner,
		Monitor:     s.deps.Monitor,
		Deadline:    s.cfg.WSDeadline,
		Logger:      s.logger,
		Transcriber: s.deps.Transcriber,
		Synthesizer: s.deps.Synthesizer,
	})
	s.mux.Handle("/v1/agent/turns", handlers.TurnsHandler{Monitor: s.deps.Monitor})
	s.mux.Handle("/v1/llm-provider", handlers.ProviderHandler{Resolver: s.deps.Resolver})
}

// Handler returns the mux wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.RateLimit(s.limiter, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
