package runloop

import (
	"fmt"
	"testing"
	"time"
)

func TestMonitorRingWraps(t *testing.T) {
	m := NewMonitor(3)
	for i := 0; i < 5; i++ {
		m.Observe(fmt.Sprintf("u%d", i), Answered("ok"), time.Millisecond)
	}
	recent := m.Recent()
	if len(recent) != 3 {
		t.Fatalf("len = %d, want ring size", len(recent))
	}
	// Oldest first: u2, u3, u4 survive the wrap.
	for i, want := range []string{"u2", "u3", "u4"} {
		if recent[i].UserID != want {
			t.Errorf("recent[%d].UserID = %s, want %s", i, recent[i].UserID, want)
		}
	}
}

func TestMonitorPartialRing(t *testing.T) {
	m := NewMonitor(8)
	m.Observe("u1", Answered("hi"), time.Millisecond)
	m.Observe("u2", Failed("turn_deadline", "budget exhausted"), 12*time.Second)

	recent := m.Recent()
	if len(recent) != 2 {
		t.Fatalf("len = %d", len(recent))
	}
	if recent[0].UserID != "u1" || recent[1].Kind != OutcomeFailed {
		t.Errorf("recent = %+v", recent)
	}
}

func TestMonitorNilSafe(t *testing.T) {
	var m *Monitor
	m.Observe("u", Answered("x"), 0)
	if got := m.Recent(); got != nil {
		t.Errorf("Recent on nil = %v", got)
	}
}
