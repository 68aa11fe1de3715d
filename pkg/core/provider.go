package core

import (
	"context"

	"github.com/convonet/assistant/pkg/core/types"
)

// BoundTools is a provider-native tool declaration set produced by
// BindTools. The turn loop treats it as opaque and passes it back
// unchanged on every generation.
type BoundTools any

// GenerateRequest is one provider generation call.
type GenerateRequest struct {
	Model    string
	System   string
	Messages []types.Message

	// Tools is the result of a prior BindTools call, or nil when the
	// provider runs without tool-calling capability for this graph.
	Tools BoundTools
}

// Provider is the uniform shim over one LLM backend. Adapters normalize
// each backend's native tool-call wire shape into types.GenerationResult.
type Provider interface {
	// Name returns the provider identifier ("openai", "anthropic", "gemini").
	Name() string

	// BindTools prepares provider-native tool declarations. Binding may be
	// slow or hang for some backends; callers bound it with a timeout and
	// fall back to a tool-less graph rather than blocking turn startup.
	BindTools(ctx context.Context, tools []types.Tool) (BoundTools, error)

	// Generate runs one model call over the reconciled history. A
	// model-identifier rejection must surface as ErrModelNotFound so the
	// caller can invalidate its compiled-graph cache.
	Generate(ctx context.Context, req *GenerateRequest) (*types.GenerationResult, error)
}

// ProviderRegistry manages available providers.
type ProviderRegistry interface {
	Register(provider Provider)
	Get(name string) (Provider, bool)
	List() []string
}

type defaultRegistry struct {
	providers map[string]Provider
}

// NewProviderRegistry creates an empty provider registry.
func NewProviderRegistry() ProviderRegistry {
	return &defaultRegistry{providers: make(map[string]Provider)}
}

func (r *defaultRegistry) Register(provider Provider) {
	r.providers[provider.Name()] = provider
}

func (r *defaultRegistry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

func (r *defaultRegistry) List() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
