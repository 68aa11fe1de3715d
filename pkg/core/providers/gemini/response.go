package gemini

import (
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/convonet/assistant/pkg/core"
	"github.com/convonet/assistant/pkg/core/types"
)

// parseResponse lifts functionCall parts out of the first candidate. The
// API does not always assign call IDs, so missing ones are synthesized;
// the engine requires every invocation to carry a pairing key.
func parseResponse(resp *genai.GenerateContentResponse) (*types.GenerationResult, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, core.NewProviderError("gemini", core.ErrGeneral, "response has no candidates", nil)
	}

	var text strings.Builder
	var calls []types.ToolCall
	for _, part := range resp.Candidates[0].Content.Parts {
		switch {
		case part.FunctionCall != nil:
			id := part.FunctionCall.ID
			if id == "" {
				id = "gemini-" + uuid.NewString()
			}
			calls = append(calls, types.ToolCall{
				ID:    id,
				Name:  part.FunctionCall.Name,
				Input: part.FunctionCall.Args,
			})
		case part.Text != "":
			text.WriteString(part.Text)
		}
	}

	var result *types.GenerationResult
	if len(calls) > 0 {
		result = types.ToolCallsRequested(text.String(), calls)
	} else {
		result = types.FinalAnswer(text.String())
	}
	result.Model = resp.ModelVersion
	return result, nil
}
