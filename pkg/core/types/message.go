package types

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single entry in a conversation history.
//
// An assistant message with a non-empty ToolCalls slice is a request to
// invoke tools; with an empty slice it is a final answer. A tool message
// carries the result for exactly one prior tool call, keyed by ToolCallID.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text,omitempty"`

	// Assistant messages only.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// Tool messages only.
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
}

// UserMessage builds a user message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// AssistantMessage builds an assistant final-answer message.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Text: text}
}

// AssistantToolCalls builds an assistant message requesting tool calls.
// Providers may emit narrative text alongside the calls.
func AssistantToolCalls(text string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Text: text, ToolCalls: calls}
}

// ToolResultMessage builds a tool-result message paired to callID.
func ToolResultMessage(callID, toolName, content string) Message {
	return Message{Role: RoleTool, Text: content, ToolCallID: callID, ToolName: toolName}
}

// HasToolCalls reports whether this is an assistant message that requests
// one or more tool invocations.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// IsToolResult reports whether this message carries a tool result.
func (m Message) IsToolResult() bool {
	return m.Role == RoleTool
}

// ToolCallIDs returns the invocation IDs requested by an assistant message.
// The second return is false if any call lacks an extractable ID, which
// marks the whole invocation set as unusable for pairing purposes.
func (m Message) ToolCallIDs() ([]string, bool) {
	if len(m.ToolCalls) == 0 {
		return nil, true
	}
	ids := make([]string, 0, len(m.ToolCalls))
	for _, tc := range m.ToolCalls {
		if tc.ID == "" {
			return nil, false
		}
		ids = append(ids, tc.ID)
	}
	return ids, true
}
