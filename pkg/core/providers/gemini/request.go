package gemini

import (
	"fmt"

	"google.golang.org/genai"

	"github.com/convonet/assistant/pkg/core"
	"github.com/convonet/assistant/pkg/core/types"
)

// buildRequest maps the uniform history onto Gemini contents. Assistant
// turns use the "model" role; tool results ride as functionResponse parts
// in a user-role content.
func buildRequest(req *core.GenerateRequest) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.Tools != nil {
		bound, ok := req.Tools.([]*genai.Tool)
		if !ok {
			return nil, nil, core.NewProviderError("gemini", core.ErrGeneral,
				fmt.Sprintf("bound tools have unexpected type %T", req.Tools), nil)
		}
		config.Tools = bound
	}

	var contents []*genai.Content
	for _, msg := range req.Messages {
		switch {
		case msg.HasToolCalls():
			parts := []*genai.Part{}
			if msg.Text != "" {
				parts = append(parts, &genai.Part{Text: msg.Text})
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   tc.ID,
					Name: tc.Name,
					Args: tc.Input,
				}})
			}
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})

		case msg.IsToolResult():
			part := &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       msg.ToolCallID,
				Name:     msg.ToolName,
				Response: map[string]any{"result": msg.Text},
			}}
			// Consecutive results join the previous user-role content so
			// one invocation set answers in one turn.
			if n := len(contents); n > 0 && contents[n-1].Role == genai.RoleUser && hasFunctionResponse(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
			} else {
				contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{part}})
			}

		case msg.Role == types.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: msg.Text}},
			})

		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: msg.Text}},
			})
		}
	}
	return contents, config, nil
}

func hasFunctionResponse(c *genai.Content) bool {
	for _, p := range c.Parts {
		if p.FunctionResponse != nil {
			return true
		}
	}
	return false
}

// toGenaiSchema converts the declaration subset of JSON Schema.
func toGenaiSchema(s *types.JSONSchema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        toGenaiType(s.Type),
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
		Format:      s.Format,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	if s.Items != nil {
		out.Items = toGenaiSchema(s.Items)
	}
	return out
}

func toGenaiType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "string":
		return genai.TypeString
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	default:
		return genai.TypeUnspecified
	}
}
