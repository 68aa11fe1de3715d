package runloop

import (
	"sync"
	"time"

	"github.com/convonet/assistant/pkg/core"
)

// TurnRecord is one completed turn as seen by the monitor.
type TurnRecord struct {
	At       time.Time      `json:"at"`
	UserID   string         `json:"user_id"`
	Kind     OutcomeKind    `json:"kind"`
	Response string         `json:"response"`
	ErrKind  core.ErrorKind `json:"error_kind,omitempty"`
	Detail   string         `json:"detail,omitempty"`
	Duration time.Duration  `json:"duration_ns"`
}

// Monitor keeps a fixed-size ring of recent turn records. Records are
// in-memory only and discarded as the ring wraps.
type Monitor struct {
	mu   sync.Mutex
	ring []TurnRecord
	next int
	full bool
}

// NewMonitor builds a monitor holding up to size records. Sizes below 1
// are coerced to 64.
func NewMonitor(size int) *Monitor {
	if size < 1 {
		size = 64
	}
	return &Monitor{ring: make([]TurnRecord, size)}
}

// Observe appends one turn outcome to the ring.
func (m *Monitor) Observe(userID string, outcome TurnOutcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ring[m.next] = TurnRecord{
		At:       time.Now(),
		UserID:   userID,
		Kind:     outcome.Kind,
		Response: outcome.Response,
		ErrKind:  outcome.ErrKind,
		Detail:   outcome.Detail,
		Duration: elapsed,
	}
	m.next++
	if m.next == len(m.ring) {
		m.next = 0
		m.full = true
	}
}

// Recent returns the retained records, oldest first.
func (m *Monitor) Recent() []TurnRecord {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []TurnRecord
	if m.full {
		out = append(out, m.ring[m.next:]...)
	}
	out = append(out, m.ring[:m.next]...)
	return out
}
