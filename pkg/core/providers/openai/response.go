package openai

import (
	"encoding/json"

	"github.com/convonet/assistant/pkg/core"
	"github.com/convonet/assistant/pkg/core/types"
)

type openaiResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content   string           `json:"content"`
			ToolCalls []openaiToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// parseResponse normalizes the first choice into a GenerationResult,
// decoding each call's JSON-string arguments back into a map.
func parseResponse(body []byte) (*types.GenerationResult, error) {
	var resp openaiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, core.NewProviderError("openai", core.ErrGeneral, "unparseable response body", err)
	}
	if len(resp.Choices) == 0 {
		return nil, core.NewProviderError("openai", core.ErrGeneral, "response has no choices", nil)
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		result := types.FinalAnswer(msg.Content)
		result.Model = resp.Model
		return result, nil
	}

	calls := make([]types.ToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		input := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
				// A call with undecodable arguments still pairs by ID; the
				// tool itself will report the bad input.
				input = map[string]any{"_raw": tc.Function.Arguments}
			}
		}
		calls = append(calls, types.ToolCall{ID: tc.ID, Name: tc.Function.Name, Input: input})
	}
	result := types.ToolCallsRequested(msg.Content, calls)
	result.Model = resp.Model
	return result, nil
}
