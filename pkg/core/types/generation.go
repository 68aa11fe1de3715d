package types

// GenerationKind discriminates the outcome of one provider generation.
type GenerationKind string

const (
	// GenerationFinalAnswer means the model produced a final text answer.
	GenerationFinalAnswer GenerationKind = "final_answer"

	// GenerationToolCalls means the model wants one or more tools invoked
	// before it can answer.
	GenerationToolCalls GenerationKind = "tool_calls"
)

// GenerationResult is the normalized outcome of one provider call. Each
// provider adapter maps its native wire shape into this union; the turn
// loop never probes provider-specific response attributes.
type GenerationResult struct {
	Kind GenerationKind `json:"kind"`

	// Text is the final answer for GenerationFinalAnswer, or any narrative
	// text the model emitted alongside its tool calls.
	Text string `json:"text,omitempty"`

	// ToolCalls is populated only for GenerationToolCalls.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// Model is the concrete model identifier that produced this result.
	Model string `json:"model,omitempty"`
}

// FinalAnswer builds a final-answer result.
func FinalAnswer(text string) *GenerationResult {
	return &GenerationResult{Kind: GenerationFinalAnswer, Text: text}
}

// ToolCallsRequested builds a tool-calls result.
func ToolCallsRequested(text string, calls []ToolCall) *GenerationResult {
	return &GenerationResult{Kind: GenerationToolCalls, Text: text, ToolCalls: calls}
}

// AssistantMessage converts the result into the history message that must
// be appended before any tool results, preserving the left half of the
// pairing invariant.
func (r *GenerationResult) AssistantMessage() Message {
	if r.Kind == GenerationToolCalls {
		return AssistantToolCalls(r.Text, r.ToolCalls)
	}
	return AssistantMessage(r.Text)
}
