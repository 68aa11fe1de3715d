package openai

import (
	"encoding/json"
	"fmt"

	"github.com/convonet/assistant/pkg/core"
	"github.com/convonet/assistant/pkg/core/types"
)

type openaiRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
	Tools    []openaiTool    `json:"tools,omitempty"`
}

type openaiMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content,omitempty"`
	ToolCalls  []openaiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openaiToolCall struct {
	ID       string     `json:"id"`
	Type     string     `json:"type"`
	Function openaiCall `json:"function"`
}

// openaiCall carries the invocation with arguments as a JSON string.
type openaiCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openaiTool struct {
	Type     string         `json:"type"`
	Function openaiFunction `json:"function"`
}

type openaiFunction struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Parameters  *types.JSONSchema `json:"parameters,omitempty"`
}

// buildRequest maps the uniform history onto the Chat Completions shape.
// The system prompt becomes the leading system message.
func buildRequest(req *core.GenerateRequest) (*openaiRequest, error) {
	out := &openaiRequest{Model: req.Model}
	if req.Tools != nil {
		bound, ok := req.Tools.([]openaiTool)
		if !ok {
			return nil, core.NewProviderError("openai", core.ErrGeneral,
				fmt.Sprintf("bound tools have unexpected type %T", req.Tools), nil)
		}
		out.Tools = bound
	}

	if req.System != "" {
		out.Messages = append(out.Messages, openaiMessage{Role: "system", Content: req.System})
	}

	for _, msg := range req.Messages {
		switch {
		case msg.HasToolCalls():
			om := openaiMessage{Role: "assistant", Content: msg.Text}
			for _, tc := range msg.ToolCalls {
				args, err := json.Marshal(tc.Input)
				if err != nil {
					return nil, fmt.Errorf("marshal arguments for %s: %w", tc.Name, err)
				}
				om.ToolCalls = append(om.ToolCalls, openaiToolCall{
					ID:       tc.ID,
					Type:     "function",
					Function: openaiCall{Name: tc.Name, Arguments: string(args)},
				})
			}
			out.Messages = append(out.Messages, om)

		case msg.IsToolResult():
			out.Messages = append(out.Messages, openaiMessage{
				Role:       "tool",
				Content:    msg.Text,
				ToolCallID: msg.ToolCallID,
			})

		default:
			out.Messages = append(out.Messages, openaiMessage{Role: msg.Role, Content: msg.Text})
		}
	}
	return out, nil
}
