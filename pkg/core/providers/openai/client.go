package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/convonet/assistant/pkg/core"
)

func (p *Provider) doRequest(ctx context.Context, req *openaiRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.NewProviderError("openai", core.ErrGeneral, "http request failed", err)
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

type openaiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// parseError maps an API error onto the engine taxonomy. OpenAI reports
// an unknown model with the model_not_found code.
func (p *Provider) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var oaErr openaiError
	if err := json.Unmarshal(body, &oaErr); err != nil {
		return core.NewProviderError("openai", core.ErrGeneral,
			fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)), nil)
	}
	if oaErr.Error.Code == "model_not_found" {
		return core.NewProviderError("openai", core.ErrModelNotFound, oaErr.Error.Message, nil)
	}
	return core.NewProviderError("openai", core.ErrGeneral,
		fmt.Sprintf("%s: %s", oaErr.Error.Type, oaErr.Error.Message), nil)
}
