// Package runloop contains the conversational turn-execution engine: the
// tool invoker, the compiled-graph cache, thread identity, and the
// controller that drives one turn from raw prompt to spoken-safe answer
// under a hard wall-clock budget.
package runloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/convonet/assistant/pkg/agent/reconcile"
	"github.com/convonet/assistant/pkg/agent/tools"
	"github.com/convonet/assistant/pkg/core"
	"github.com/convonet/assistant/pkg/core/types"
)

const (
	defaultTurnDeadline = 12 * time.Second
	defaultBindTimeout  = 5 * time.Second
)

// ModelConfig names the primary model for a provider plus the fallbacks
// tried when the provider rejects the configured identifier.
type ModelConfig struct {
	Primary   string
	Fallbacks []string
}

// ProviderResolver answers which provider a user's turn should run on.
type ProviderResolver interface {
	Provider(ctx context.Context, userID string) string
}

// staticResolver always answers the same provider.
type staticResolver string

func (s staticResolver) Provider(context.Context, string) string { return string(s) }

// StaticResolver returns a resolver pinned to one provider, for callers
// that run without Redis.
func StaticResolver(provider string) ProviderResolver { return staticResolver(provider) }

// TurnRequest is one caller-initiated turn.
type TurnRequest struct {
	Prompt      string
	UserID      string
	ResetThread bool

	// Deadline bounds the whole turn; zero means the default budget.
	Deadline time.Duration

	// Provider overrides preference resolution when non-empty.
	Provider string
}

// Controller orchestrates one full turn: reconcile, generate, dispatch
// tools, repeat until a final answer or the deadline. It is safe for
// concurrent use; the graph cache is the only shared mutable state.
type Controller struct {
	Providers    core.ProviderRegistry
	Resolver     ProviderResolver
	Invoker      *Invoker
	Registry     *tools.Registry
	Cache        *GraphCache
	Threads      *Threads
	Log          *slog.Logger
	SystemPrompt string
	Models       map[string]ModelConfig
	BindTimeout  time.Duration
	TurnDeadline time.Duration
}

func (c *Controller) bindTimeout() time.Duration {
	if c.BindTimeout > 0 {
		return c.BindTimeout
	}
	return defaultBindTimeout
}

// RunTurn executes one turn. It is total: every failure path returns an
// outcome with a spoken-safe response, and the call never blocks past the
// deadline plus scheduling overhead. In-flight work at the deadline is
// abandoned, not cancelled retroactively; side effects already dispatched
// to external systems may still complete.
func (c *Controller) RunTurn(ctx context.Context, req TurnRequest) TurnOutcome {
	deadline := req.Deadline
	if deadline <= 0 {
		deadline = c.turnDeadline()
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	userID := req.UserID
	if userID == "" {
		userID = "anonymous"
	}

	done := make(chan TurnOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.Log.Error("turn panicked", "user_id", userID, "panic", r)
				c.Threads.MarkReset(userID)
				done <- Failed(core.ErrGeneral, fmt.Sprintf("panic: %v", r))
			}
		}()
		done <- c.runTurn(ctx, userID, req)
	}()

	select {
	case out := <-done:
		return out
	case <-ctx.Done():
		c.Log.Warn("turn deadline exceeded, abandoning in-flight work",
			"user_id", userID, "deadline", deadline)
		c.Threads.MarkReset(userID)
		return Failed(core.ErrTurnDeadline, fmt.Sprintf("turn exceeded %s budget", deadline))
	}
}

func (c *Controller) turnDeadline() time.Duration {
	if c.TurnDeadline > 0 {
		return c.TurnDeadline
	}
	return defaultTurnDeadline
}

func (c *Controller) runTurn(ctx context.Context, userID string, req TurnRequest) TurnOutcome {
	providerName := c.resolveProvider(ctx, userID, req.Provider)
	modelCfg, ok := c.Models[providerName]
	if !ok {
		return Failed(core.ErrGeneral, fmt.Sprintf("no model configured for provider %s", providerName))
	}

	threadID, history := c.Threads.Acquire(userID, req.ResetThread)
	working := append(history, types.UserMessage(req.Prompt))

	toolCtx := tools.WithUser(ctx, userID)

	for {
		if ctx.Err() != nil {
			c.Threads.MarkReset(userID)
			return Failed(core.ErrTurnDeadline, "turn cancelled mid-flight")
		}

		working = reconcile.Reconcile(working)

		gen, err := c.generate(ctx, providerName, modelCfg, working)
		if err != nil {
			return c.failTurn(userID, err)
		}

		working = append(working, gen.AssistantMessage())

		if gen.Kind == types.GenerationFinalAnswer {
			c.Threads.Replace(threadID, working)
			return Answered(gen.Text)
		}

		records := c.Invoker.InvokeAll(toolCtx, gen.ToolCalls)
		var outputs []string
		for _, rec := range records {
			working = append(working, rec.ResultMessage())
			if rec.Status == types.StatusSuccess {
				outputs = append(outputs, rec.Result)
			}
		}

		if marker, found := tools.ContainsTransferMarker(outputs...); found {
			extension, department, reason, _ := tools.ParseTransferMarker(marker)
			c.Threads.Replace(threadID, working)
			return TransferTo(Transfer{Extension: extension, Department: department, Reason: reason})
		}
	}
}

// generate runs one model call, retrying over the fallback model list
// when the provider rejects the configured model identifier.
func (c *Controller) generate(ctx context.Context, providerName string, cfg ModelConfig, history []types.Message) (*types.GenerationResult, error) {
	gen, err := c.generateOn(ctx, providerName, cfg.Primary, history)
	if err == nil || !core.IsKind(err, core.ErrModelNotFound) {
		return gen, err
	}

	c.Log.Warn("model not found, invalidating graph and trying fallbacks",
		"provider", providerName, "model", cfg.Primary, "fallbacks", len(cfg.Fallbacks))
	c.Cache.Invalidate(GraphKey{Provider: providerName, Model: cfg.Primary})

	for _, fallback := range cfg.Fallbacks {
		gen, err = c.generateOn(ctx, providerName, fallback, history)
		if err == nil || !core.IsKind(err, core.ErrModelNotFound) {
			return gen, err
		}
		c.Cache.Invalidate(GraphKey{Provider: providerName, Model: fallback})
	}
	return nil, err
}

func (c *Controller) generateOn(ctx context.Context, providerName, model string, history []types.Message) (*types.GenerationResult, error) {
	graph, err := c.Cache.GetOrBuild(ctx, GraphKey{Provider: providerName, Model: model}, func(ctx context.Context) (*CompiledGraph, error) {
		return c.buildGraph(ctx, providerName, model)
	})
	if err != nil {
		return nil, err
	}
	return graph.Provider.Generate(ctx, &core.GenerateRequest{
		Model:    graph.Model,
		System:   c.SystemPrompt,
		Messages: history,
		Tools:    graph.Bound,
	})
}

// buildGraph assembles a provider and its bound tools. Binding is bounded
// and fails soft: a slow or failing bind produces a graph without
// tool-calling capability instead of blocking turn startup.
func (c *Controller) buildGraph(ctx context.Context, providerName, model string) (*CompiledGraph, error) {
	provider, ok := c.Providers.Get(providerName)
	if !ok {
		return nil, core.NewError(core.ErrGeneral, fmt.Sprintf("provider %s is not registered", providerName), nil)
	}

	bindCtx, cancel := context.WithTimeout(ctx, c.bindTimeout())
	defer cancel()

	bound, err := provider.BindTools(bindCtx, c.Registry.Definitions())
	if err != nil {
		c.Log.Warn("tool binding failed, proceeding without tools",
			"provider", providerName, "model", model, "error", err)
		bound = nil
	}
	c.Log.Info("compiled agent graph", "provider", providerName, "model", model,
		"tools_bound", bound != nil)
	return &CompiledGraph{Provider: provider, Model: model, Bound: bound}, nil
}

func (c *Controller) resolveProvider(ctx context.Context, userID, override string) string {
	name := override
	if name == "" && c.Resolver != nil {
		name = c.Resolver.Provider(ctx, userID)
	}
	return adapterName(name)
}

// adapterName maps preference values onto registered adapter names.
func adapterName(pref string) string {
	switch pref {
	case "claude", "anthropic", "":
		return "anthropic"
	case "gemini":
		return "gemini"
	case "openai":
		return "openai"
	default:
		return "anthropic"
	}
}

func (c *Controller) failTurn(userID string, err error) TurnOutcome {
	kind := core.KindOf(err)
	if errors.Is(err, context.DeadlineExceeded) {
		kind = core.ErrTurnDeadline
	}

	corrupts := kind == core.ErrTurnDeadline
	var ce *core.Error
	if errors.As(err, &ce) {
		corrupts = corrupts || ce.CorruptsThread()
	}
	if corrupts {
		c.Threads.MarkReset(userID)
	}
	c.Log.Error("turn failed", "user_id", userID, "kind", kind, "error", err)
	return Failed(kind, err.Error())
}
