// Package openai adapts the OpenAI Chat Completions API. Tool calls ride
// on a flat tool_calls attribute of the assistant message, with arguments
// serialized as a JSON string.
package openai

import (
	"context"
	"net/http"
	"time"

	"github.com/convonet/assistant/pkg/core"
	"github.com/convonet/assistant/pkg/core/types"
)

// DefaultBaseURL is the default OpenAI API endpoint.
const DefaultBaseURL = "https://api.openai.com"

// Provider implements core.Provider over the Chat Completions API.
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

// New creates an OpenAI provider.
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
func (p *Provider) Name() string { return "openai" }

// BindTools converts tool definitions into the function-tool declaration
// shape. This is a local transformation and completes immediately.
func (p *Provider) BindTools(ctx context.Context, defs []types.Tool) (core.BoundTools, error) {
	bound := make([]openaiTool, 0, len(defs))
	for _, def := range defs {
		bound = append(bound, openaiTool{
			Type: "function",
			Function: openaiFunction{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.InputSchema,
			},
		})
	}
	return bound, nil
}

// Generate runs one Chat Completions call over the reconciled history.
func (p *Provider) Generate(ctx context.Context, req *core.GenerateRequest) (*types.GenerationResult, error) {
	oaReq, err := buildRequest(req)
	if err != nil {
		return nil, err
	}
	respBody, err := p.doRequest(ctx, oaReq)
	if err != nil {
		return nil, err
	}
	return parseResponse(respBody)
}
