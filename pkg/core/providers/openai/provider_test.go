package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/convonet/assistant/pkg/core"
	"github.com/convonet/assistant/pkg/core/types"
)

func testProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("test-key", WithBaseURL(srv.URL))
}

func TestGenerateFinalAnswer(t *testing.T) {
	var captured openaiRequest
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o",
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Hello!"}, "finish_reason": "stop"},
			},
		})
	})

	result, err := p.Generate(context.Background(), &core.GenerateRequest{
		Model:    "gpt-4o",
		System:   "be brief",
		Messages: []types.Message{types.UserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Kind != types.GenerationFinalAnswer || result.Text != "Hello!" {
		t.Errorf("result = %+v", result)
	}
	// System prompt travels as the leading system message.
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[0].Content != "be brief" {
		t.Errorf("messages = %+v", captured.Messages)
	}
}

func TestGenerateDecodesArguments(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o",
			"choices": []map[string]any{
				{
					"message": map[string]any{
						"content": "",
						"tool_calls": []map[string]any{
							{
								"id":   "call_1",
								"type": "function",
								"function": map[string]any{
									"name":      "create_todo",
									"arguments": `{"title":"milk","priority":"high"}`,
								},
							},
						},
					},
					"finish_reason": "tool_calls",
				},
			},
		})
	})

	result, err := p.Generate(context.Background(), &core.GenerateRequest{
		Model:    "gpt-4o",
		Messages: []types.Message{types.UserMessage("add milk")},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Kind != types.GenerationToolCalls || len(result.ToolCalls) != 1 {
		t.Fatalf("result = %+v", result)
	}
	call := result.ToolCalls[0]
	if call.ID != "call_1" || call.Name != "create_todo" {
		t.Errorf("call = %+v", call)
	}
	if call.Input["title"] != "milk" || call.Input["priority"] != "high" {
		t.Errorf("input = %+v", call.Input)
	}
}

func TestParseResponseUndecodableArguments(t *testing.T) {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{
				"message": map[string]any{
					"tool_calls": []map[string]any{
						{"id": "call_1", "type": "function", "function": map[string]any{
							"name": "create_todo", "arguments": "not json",
						}},
					},
				},
			},
		},
	})
	result, err := parseResponse(body)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if result.ToolCalls[0].Input["_raw"] != "not json" {
		t.Errorf("input = %+v, bad arguments must still pair by ID", result.ToolCalls[0].Input)
	}
}

func TestBuildRequestRoundTripsCallArguments(t *testing.T) {
	req := &core.GenerateRequest{
		Model: "gpt-4o",
		Messages: []types.Message{
			types.UserMessage("add milk"),
			types.AssistantToolCalls("", []types.ToolCall{
				{ID: "call_1", Name: "create_todo", Input: map[string]any{"title": "milk"}},
			}),
			types.ToolResultMessage("call_1", "create_todo", "created"),
		},
	}
	oaReq, err := buildRequest(req)
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if len(oaReq.Messages) != 3 {
		t.Fatalf("messages = %+v", oaReq.Messages)
	}
	assistant := oaReq.Messages[1]
	if len(assistant.ToolCalls) != 1 || assistant.ToolCalls[0].Function.Arguments != `{"title":"milk"}` {
		t.Errorf("assistant = %+v, arguments must be a JSON string", assistant)
	}
	toolMsg := oaReq.Messages[2]
	if toolMsg.Role != "tool" || toolMsg.ToolCallID != "call_1" || toolMsg.Content != "created" {
		t.Errorf("tool message = %+v", toolMsg)
	}
}

func TestGenerateModelNotFound(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "The model `gpt-nonexistent` does not exist",
				"type":    "invalid_request_error",
				"code":    "model_not_found",
			},
		})
	})

	_, err := p.Generate(context.Background(), &core.GenerateRequest{
		Model:    "gpt-nonexistent",
		Messages: []types.Message{types.UserMessage("hi")},
	})
	if !core.IsKind(err, core.ErrModelNotFound) {
		t.Errorf("err = %v, want model_not_found kind", err)
	}
}
