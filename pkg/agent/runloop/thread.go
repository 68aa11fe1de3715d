package runloop

import (
	"fmt"
	"sync"

	"github.com/convonet/assistant/pkg/core/types"
)

// Threads tracks conversation identity and history per user. A reset
// never mutates old history: it allocates a fresh epoch-suffixed thread
// ID and abandons the previous one.
type Threads struct {
	mu           sync.Mutex
	active       map[string]string
	epochs       map[string]int
	resetPending map[string]struct{}
	history      map[string][]types.Message
}

// NewThreads creates an empty thread store.
func NewThreads() *Threads {
	return &Threads{
		active:       make(map[string]string),
		epochs:       make(map[string]int),
		resetPending: make(map[string]struct{}),
		history:      make(map[string][]types.Message),
	}
}

// Acquire returns the thread ID and a copy of its history for userID. A
// requested or pending reset allocates a new thread with empty history
// and drops the abandoned thread's stored history. The epoch counter is
// per user and monotonic, so back-to-back resets never reuse an ID.
func (t *Threads) Acquire(userID string, reset bool) (string, []types.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, pending := t.resetPending[userID]
	threadID, exists := t.active[userID]

	if reset || pending || !exists {
		if exists || pending {
			if exists {
				delete(t.history, threadID)
			}
			t.epochs[userID]++
			threadID = fmt.Sprintf("user-%s-%d", userID, t.epochs[userID])
		} else {
			threadID = fmt.Sprintf("user-%s", userID)
		}
		t.active[userID] = threadID
		delete(t.resetPending, userID)
	}

	stored := t.history[threadID]
	out := make([]types.Message, len(stored))
	copy(out, stored)
	return threadID, out
}

// Replace overwrites the stored history for threadID with a copy of msgs.
func (t *Threads) Replace(threadID string, msgs []types.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stored := make([]types.Message, len(msgs))
	copy(stored, msgs)
	t.history[threadID] = stored
}

// MarkReset flags userID so their next Acquire starts a fresh thread.
// Used after timeouts and corruption-class errors, where an abandoned
// mid-flight generation likely left history beyond repair.
func (t *Threads) MarkReset(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetPending[userID] = struct{}{}
}
