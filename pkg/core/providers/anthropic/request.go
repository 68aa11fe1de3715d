package anthropic

import (
	"fmt"

	"github.com/convonet/assistant/pkg/core"
	"github.com/convonet/assistant/pkg/core/types"
)

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
}

type anthropicMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

// contentBlock is one typed item in a message's content array.
type contentBlock struct {
	Type string `json:"type"`

	// type == "text"
	Text string `json:"text,omitempty"`

	// type == "tool_use"
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// type == "tool_result"
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type anthropicTool struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	InputSchema *types.JSONSchema `json:"input_schema,omitempty"`
}

// buildRequest maps the uniform history onto the Messages API shape.
// Consecutive tool results are merged into one user message: Anthropic
// requires every result for an invocation set in the single next message.
func buildRequest(req *core.GenerateRequest) (*anthropicRequest, error) {
	out := &anthropicRequest{
		Model:     req.Model,
		MaxTokens: DefaultMaxTokens,
		System:    req.System,
	}
	if req.Tools != nil {
		bound, ok := req.Tools.([]anthropicTool)
		if !ok {
			return nil, core.NewProviderError("anthropic", core.ErrGeneral,
				fmt.Sprintf("bound tools have unexpected type %T", req.Tools), nil)
		}
		out.Tools = bound
	}

	i := 0
	for i < len(req.Messages) {
		msg := req.Messages[i]
		switch {
		case msg.IsToolResult():
			content := []contentBlock{}
			for i < len(req.Messages) && req.Messages[i].IsToolResult() {
				m := req.Messages[i]
				content = append(content, contentBlock{
					Type:      "tool_result",
					ToolUseID: m.ToolCallID,
					Content:   m.Text,
				})
				i++
			}
			out.Messages = append(out.Messages, anthropicMessage{Role: "user", Content: content})

		case msg.HasToolCalls():
			content := []contentBlock{}
			if msg.Text != "" {
				content = append(content, contentBlock{Type: "text", Text: msg.Text})
			}
			for _, tc := range msg.ToolCalls {
				content = append(content, contentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Name,
					Input: tc.Input,
				})
			}
			out.Messages = append(out.Messages, anthropicMessage{Role: "assistant", Content: content})
			i++

		default:
			out.Messages = append(out.Messages, anthropicMessage{
				Role:    msg.Role,
				Content: []contentBlock{{Type: "text", Text: msg.Text}},
			})
			i++
		}
	}
	return out, nil
}
