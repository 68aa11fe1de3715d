// Package gemini adapts the Gemini API through the google.golang.org/genai
// SDK. The model's tool calls arrive as functionCall parts nested in the
// candidate content; the adapter lifts them into the engine's uniform
// invocation shape, synthesizing call IDs when the API omits them.
package gemini

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/genai"

	"github.com/convonet/assistant/pkg/core"
	"github.com/convonet/assistant/pkg/core/types"
)

// Provider implements core.Provider over the Gemini API.
type Provider struct {
	client *genai.Client
}

// New creates a Gemini provider. Unlike the HTTP-level adapters, client
// construction can itself fail.
func New(ctx context.Context, apiKey string) (*Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, core.NewProviderError("gemini", core.ErrGeneral, "create client", err)
	}
	return &Provider{client: client}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "gemini" }

// BindTools converts tool definitions into Gemini function declarations.
func (p *Provider) BindTools(ctx context.Context, defs []types.Tool) (core.BoundTools, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, def := range defs {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  toGenaiSchema(def.InputSchema),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}, nil
}

// Generate runs one generateContent call over the reconciled history.
func (p *Provider) Generate(ctx context.Context, req *core.GenerateRequest) (*types.GenerationResult, error) {
	contents, config, err := buildRequest(req)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, classifyError(err)
	}
	return parseResponse(resp)
}

// classifyError maps SDK errors onto the engine taxonomy; an unknown
// model surfaces as NOT_FOUND from the API.
func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusNotFound || apiErr.Status == "NOT_FOUND" {
			return core.NewProviderError("gemini", core.ErrModelNotFound, apiErr.Message, err)
		}
		return core.NewProviderError("gemini", core.ErrGeneral, apiErr.Message, err)
	}
	return core.NewProviderError("gemini", core.ErrGeneral, "generate content failed", err)
}
