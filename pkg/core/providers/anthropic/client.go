package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/convonet/assistant/pkg/core"
)

func (p *Provider) doRequest(ctx context.Context, req *anthropicRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", p.apiKey)
	httpReq.Header.Set("anthropic-version", APIVersion)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.NewProviderError("anthropic", core.ErrGeneral, "http request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, p.parseError(resp)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return respBody, nil
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// parseError maps an API error onto the engine taxonomy. A not-found for
// the model identifier must surface as ErrModelNotFound so the turn
// controller can invalidate its graph and fall back.
func (p *Provider) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var anthErr anthropicError
	if err := json.Unmarshal(body, &anthErr); err != nil {
		return core.NewProviderError("anthropic", core.ErrGeneral,
			fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)), nil)
	}

	message := anthErr.Error.Message
	if anthErr.Error.Type == "not_found_error" && strings.Contains(strings.ToLower(message), "model") {
		return core.NewProviderError("anthropic", core.ErrModelNotFound, message, nil)
	}
	return core.NewProviderError("anthropic", core.ErrGeneral,
		fmt.Sprintf("%s: %s", anthErr.Error.Type, message), nil)
}
