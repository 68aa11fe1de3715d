// Package anthropic adapts the Anthropic Messages API. Tool calls arrive
// as typed items in a content array; the adapter flattens them into the
// engine's uniform invocation shape.
package anthropic

import (
	"context"
	"net/http"
	"time"

	"github.com/convonet/assistant/pkg/core"
	"github.com/convonet/assistant/pkg/core/types"
)

const (
	// DefaultBaseURL is the default Anthropic API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"

	// APIVersion is the required Anthropic API version header.
	APIVersion = "2023-06-01"

	// DefaultMaxTokens bounds a single generation.
	DefaultMaxTokens = 2048
)

// Provider implements core.Provider over the Anthropic Messages API.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Provider.
type Option func(*Provider)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(url string) Option {
	return func(p *Provider) { p.baseURL = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// New creates an Anthropic provider.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "anthropic" }

// BindTools converts tool definitions into Anthropic's declaration shape.
// This is a local transformation and completes immediately.
func (p *Provider) BindTools(ctx context.Context, defs []types.Tool) (core.BoundTools, error) {
	bound := make([]anthropicTool, 0, len(defs))
	for _, def := range defs {
		bound = append(bound, anthropicTool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		})
	}
	return bound, nil
}

// Generate runs one Messages API call over the reconciled history.
func (p *Provider) Generate(ctx context.Context, req *core.GenerateRequest) (*types.GenerationResult, error) {
	anthReq, err := buildRequest(req)
	if err != nil {
		return nil, err
	}
	respBody, err := p.doRequest(ctx, anthReq)
	if err != nil {
		return nil, err
	}
	return parseResponse(respBody)
}
