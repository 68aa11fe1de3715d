// Package reconcile repairs conversation histories so they satisfy the
// provider pairing invariant: every assistant message that requests tool
// calls must be immediately followed by all of its tool results, with no
// other message interposed. Histories corrupted by upstream timeouts can
// contain orphaned requests or orphaned results; providers reject both.
package reconcile

import (
	"github.com/convonet/assistant/pkg/core/types"
)

// Reconcile filters history into a sequence that satisfies the pairing
// invariant. It is pure: the input is never mutated, and ordinary user
// messages and invocation-free assistant messages are never discarded.
//
// If filtering would discard everything from a non-empty input, the input
// is returned unmodified instead: providers require at least one message,
// and losing the whole turn is worse than risking a pairing rejection on a
// degenerate history.
func Reconcile(history []types.Message) []types.Message {
	if len(history) == 0 {
		return history
	}

	out := make([]types.Message, 0, len(history))
	i := 0
	for i < len(history) {
		msg := history[i]
		switch {
		case msg.HasToolCalls():
			i = consumeToolCallRun(history, i, &out)
		case msg.IsToolResult():
			// A result not consumed above is an orphan unless the tail of
			// the output already holds its requesting assistant message
			// (a multi-result flush split across scan positions).
			if tailRequests(out, msg.ToolCallID) {
				out = append(out, msg)
			}
			i++
		default:
			out = append(out, msg)
			i++
		}
	}

	if len(out) == 0 {
		return history
	}
	return out
}

// consumeToolCallRun handles one assistant message with tool calls at
// position i. It returns the position scanning should resume from.
func consumeToolCallRun(history []types.Message, i int, out *[]types.Message) int {
	msg := history[i]

	ids, ok := msg.ToolCallIDs()
	if !ok {
		// A call without an extractable ID poisons the whole invocation
		// set: drop the assistant message and any immediately-following
		// results, which are orphaned once their parent is gone.
		j := i + 1
		for j < len(history) && history[j].IsToolResult() {
			j++
		}
		return j
	}

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	matched := make([]types.Message, 0, len(ids))
	j := i + 1
	for j < len(history) && len(want) > 0 {
		next := history[j]
		if !next.IsToolResult() {
			// A user message or a new assistant message arrived before
			// every result did; the invariant cannot hold for this set.
			break
		}
		if _, wanted := want[next.ToolCallID]; wanted {
			matched = append(matched, next)
			delete(want, next.ToolCallID)
		}
		j++
	}

	if len(want) > 0 {
		// Incomplete: discard the assistant message and its partial
		// results, resuming at the message that stopped the scan.
		return j
	}

	*out = append(*out, msg)
	*out = append(*out, matched...)
	return j
}

// tailRequests reports whether the tail of out ends in an assistant
// message (possibly followed by its results) whose invocation set contains
// id, and id has not already been answered.
func tailRequests(out []types.Message, id string) bool {
	if id == "" {
		return false
	}
	for k := len(out) - 1; k >= 0; k-- {
		m := out[k]
		if m.IsToolResult() {
			if m.ToolCallID == id {
				return false // already answered
			}
			continue
		}
		if m.HasToolCalls() {
			for _, tc := range m.ToolCalls {
				if tc.ID == id {
					return true
				}
			}
		}
		return false
	}
	return false
}
