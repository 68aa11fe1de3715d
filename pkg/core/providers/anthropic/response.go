package anthropic

import (
	"encoding/json"
	"strings"

	"github.com/convonet/assistant/pkg/core"
	"github.com/convonet/assistant/pkg/core/types"
)

type anthropicResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Content    []contentBlock `json:"content"`
}

// parseResponse flattens the content array into a GenerationResult. Any
// tool_use item makes the result a tool-call request; text items are
// concatenated either way.
func parseResponse(body []byte) (*types.GenerationResult, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, core.NewProviderError("anthropic", core.ErrGeneral, "unparseable response body", err)
	}

	var text strings.Builder
	var calls []types.ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			calls = append(calls, types.ToolCall{
				ID:    block.ID,
				Name:  block.Name,
				Input: block.Input,
			})
		}
	}

	var result *types.GenerationResult
	if len(calls) > 0 {
		result = types.ToolCallsRequested(text.String(), calls)
	} else {
		result = types.FinalAnswer(text.String())
	}
	result.Model = resp.Model
	return result, nil
}
