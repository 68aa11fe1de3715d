package runloop

import (
	"fmt"

	"github.com/convonet/assistant/pkg/agent/tools"
	"github.com/convonet/assistant/pkg/core"
)

// OutcomeKind discriminates how a turn ended.
type OutcomeKind string

const (
	OutcomeAnswered          OutcomeKind = "answered"
	OutcomeTransferRequested OutcomeKind = "transfer_requested"
	OutcomeFailed            OutcomeKind = "failed"
)

// Transfer is a parsed request to hand the call to a human.
type Transfer struct {
	Extension  string `json:"extension"`
	Department string `json:"department"`
	Reason     string `json:"reason"`
}

// Marker re-serializes the transfer into its legacy wire form.
func (t Transfer) Marker() string {
	return tools.TransferMarker(t.Extension, t.Department, t.Reason)
}

// TurnOutcome is the total result of RunTurn. Exactly one of the variant
// fields is meaningful for each kind; Response is always a spoken-safe
// string and never a sentinel.
type TurnOutcome struct {
	Kind     OutcomeKind    `json:"kind"`
	Response string         `json:"response"`
	Transfer *Transfer      `json:"transfer,omitempty"`
	ErrKind  core.ErrorKind `json:"error_kind,omitempty"`
	Detail   string         `json:"detail,omitempty"`
}

// Answered builds a successful outcome.
func Answered(text string) TurnOutcome {
	return TurnOutcome{Kind: OutcomeAnswered, Response: text}
}

// TransferTo builds a transfer outcome. The spoken response acknowledges
// the handoff; the marker itself is never spoken.
func TransferTo(t Transfer) TurnOutcome {
	return TurnOutcome{
		Kind:     OutcomeTransferRequested,
		Response: fmt.Sprintf("Connecting you to %s now.", t.Department),
		Transfer: &t,
	}
}

// Failed builds a failure outcome with a spoken-safe apology.
func Failed(kind core.ErrorKind, detail string) TurnOutcome {
	return TurnOutcome{
		Kind:     OutcomeFailed,
		Response: spokenFailure(kind),
		ErrKind:  kind,
		Detail:   truncateDetail(detail),
	}
}

func spokenFailure(kind core.ErrorKind) string {
	switch kind {
	case core.ErrTurnDeadline:
		return "I'm sorry, that took longer than expected. It may still have completed, please check your list. Please try again."
	case core.ErrModelNotFound:
		return "I'm sorry, the assistant is misconfigured right now. Please try again in a moment."
	default:
		return "I'm sorry, something went wrong. Please try again."
	}
}

// truncateDetail keeps failure details log-sized.
func truncateDetail(detail string) string {
	const max = 200
	if len(detail) > max {
		return detail[:max]
	}
	return detail
}

// sentinelKind maps internal error kinds onto the four kinds the legacy
// AGENT_ERROR protocol defines.
func sentinelKind(kind core.ErrorKind) core.ErrorKind {
	switch kind {
	case core.ErrPairingViolation, core.ErrTransientConnection, core.ErrModelNotFound:
		return kind
	default:
		return core.ErrGeneral
	}
}

// Sentinels serializes the outcome for legacy callers that expect plain
// strings: a response (possibly an AGENT_TIMEOUT or AGENT_ERROR sentinel)
// and an optional transfer marker. New callers should consume the tagged
// outcome directly.
func (o TurnOutcome) Sentinels() (response string, transferMarker string) {
	switch o.Kind {
	case OutcomeTransferRequested:
		return o.Response, o.Transfer.Marker()
	case OutcomeFailed:
		if o.ErrKind == core.ErrTurnDeadline {
			return fmt.Sprintf("AGENT_TIMEOUT: %s", o.Detail), ""
		}
		return fmt.Sprintf("AGENT_ERROR:%s:%s", sentinelKind(o.ErrKind), o.Detail), ""
	default:
		return o.Response, ""
	}
}
