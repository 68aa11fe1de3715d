package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/convonet/assistant/pkg/core/types"
)

// TransferMarkerPrefix starts every transfer marker a transfer tool emits.
// The marker never reaches spoken output; the caller surface parses it and
// redirects the call instead.
const TransferMarkerPrefix = "TRANSFER_INITIATED:"

// TransferMarker builds the wire form extension|department|reason.
func TransferMarker(extension, department, reason string) string {
	return fmt.Sprintf("%s%s|%s|%s", TransferMarkerPrefix, extension, department, reason)
}

// ParseTransferMarker splits a transfer marker back into its parts. ok is
// false when s is not a marker.
func ParseTransferMarker(s string) (extension, department, reason string, ok bool) {
	if !strings.HasPrefix(s, TransferMarkerPrefix) {
		return "", "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(s, TransferMarkerPrefix), "|", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return parts[0], parts[1], parts[2], true
}

// ContainsTransferMarker reports whether any tool output in the batch
// carries a transfer marker, returning the first one found.
func ContainsTransferMarker(outputs ...string) (string, bool) {
	for _, out := range outputs {
		if idx := strings.Index(out, TransferMarkerPrefix); idx >= 0 {
			return out[idx:], true
		}
	}
	return "", false
}

// TransferSource contributes the call transfer tools. Departments and the
// fallback extension come from configuration.
type TransferSource struct {
	Departments       []string
	FallbackExtension string
	FallbackDept      string
}

func (s TransferSource) Name() string { return "transfer" }

func (s TransferSource) Executors(context.Context) ([]Executor, error) {
	if s.FallbackExtension == "" {
		s.FallbackExtension = "2001"
	}
	if s.FallbackDept == "" {
		s.FallbackDept = "support"
	}
	if len(s.Departments) == 0 {
		s.Departments = []string{"support", "sales", "technical"}
	}
	return []Executor{
		transferToAgentTool{src: s},
		getDepartmentsTool{src: s},
	}, nil
}

type transferToAgentTool struct{ src TransferSource }

func (transferToAgentTool) Name() string { return "transfer_to_agent" }

func (transferToAgentTool) Definition() types.Tool {
	return types.Tool{
		Name: "transfer_to_agent",
		Description: "Transfer the current call to a human agent or department. " +
			"Use when the user asks to speak with a human, an agent, or a specific department.",
		InputSchema: types.ObjectSchema(map[string]*types.JSONSchema{
			"department": types.StringSchema("Department to transfer to, e.g. support, sales, technical"),
			"reason":     types.StringSchema("Reason for the transfer request"),
			"extension":  types.StringSchema("Specific extension to dial, optional"),
		}),
	}
}

func (t transferToAgentTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	department := t.src.FallbackDept
	if d, _ := optStringArg(input, "department"); d != nil && *d != "" {
		department = *d
	}
	extension := t.src.FallbackExtension
	if e, _ := optStringArg(input, "extension"); e != nil && *e != "" {
		extension = *e
	}
	reason := "User requested transfer to human agent"
	if r, _ := optStringArg(input, "reason"); r != nil && *r != "" {
		reason = *r
	}
	return TransferMarker(extension, department, reason), nil
}

type getDepartmentsTool struct{ src TransferSource }

func (getDepartmentsTool) Name() string { return "get_available_departments" }

func (getDepartmentsTool) Definition() types.Tool {
	return types.Tool{
		Name: "get_available_departments",
		Description: "List the departments a call can be transferred to. " +
			"Use when the user asks who they can talk to.",
		InputSchema: types.ObjectSchema(nil),
	}
}

func (t getDepartmentsTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	var b strings.Builder
	b.WriteString("Available departments for transfer:\n")
	for _, dept := range t.src.Departments {
		fmt.Fprintf(&b, "- %s (extension %s)\n", titleCase(dept), t.src.FallbackExtension)
	}
	return b.String(), nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
