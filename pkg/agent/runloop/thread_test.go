package runloop

import (
	"testing"

	"github.com/convonet/assistant/pkg/core/types"
)

func TestThreadsFirstAcquire(t *testing.T) {
	th := NewThreads()
	id, history := th.Acquire("u", false)
	if id != "user-u" {
		t.Errorf("thread id = %s", id)
	}
	if len(history) != 0 {
		t.Errorf("fresh thread has history: %+v", history)
	}
}

func TestThreadsHistoryRoundTrip(t *testing.T) {
	th := NewThreads()
	id, _ := th.Acquire("u", false)
	th.Replace(id, []types.Message{types.UserMessage("hi"), types.AssistantMessage("hello")})

	again, history := th.Acquire("u", false)
	if again != id {
		t.Errorf("thread id changed without reset: %s", again)
	}
	if len(history) != 2 || history[0].Text != "hi" {
		t.Errorf("history = %+v", history)
	}

	// The returned slice is a copy; mutating it must not touch the store.
	history[0].Text = "mutated"
	_, check := th.Acquire("u", false)
	if check[0].Text != "hi" {
		t.Errorf("stored history mutated through the copy: %+v", check)
	}
}

func TestThreadsBackToBackResetsAllocateDistinctThreads(t *testing.T) {
	th := NewThreads()

	first, _ := th.Acquire("u", false)
	th.Replace(first, []types.Message{types.UserMessage("abandoned history")})

	th.MarkReset("u")
	second, history := th.Acquire("u", false)
	if second == first {
		t.Fatalf("reset reused thread id %q", second)
	}
	if len(history) != 0 {
		t.Fatalf("reset thread inherited %d messages: %+v", len(history), history)
	}
	th.Replace(second, []types.Message{types.UserMessage("also abandoned")})

	// A second reset in the same instant must still move to a new id
	// with no inherited history.
	th.MarkReset("u")
	third, history := th.Acquire("u", false)
	if third == second || third == first {
		t.Fatalf("rapid reset reused thread id %q", third)
	}
	if len(history) != 0 {
		t.Errorf("rapid reset thread inherited %d messages: %+v", len(history), history)
	}
}

func TestThreadsResetDropsSupersededHistory(t *testing.T) {
	th := NewThreads()
	first, _ := th.Acquire("u", false)
	th.Replace(first, []types.Message{types.UserMessage("old")})

	second, _ := th.Acquire("u", true)
	if second == first {
		t.Fatalf("reset reused thread id %q", second)
	}
	if stored := th.history[first]; stored != nil {
		t.Errorf("abandoned thread history retained: %+v", stored)
	}
}

func TestThreadsResetsAreIndependentPerUser(t *testing.T) {
	th := NewThreads()
	aliceID, _ := th.Acquire("alice", false)
	th.Replace(aliceID, []types.Message{types.UserMessage("alice history")})

	th.MarkReset("bob")
	_, _ = th.Acquire("bob", false)

	again, history := th.Acquire("alice", false)
	if again != aliceID || len(history) != 1 {
		t.Errorf("bob's reset disturbed alice: id=%s history=%+v", again, history)
	}
}
