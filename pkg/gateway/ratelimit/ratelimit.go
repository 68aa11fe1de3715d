// Package ratelimit bounds the caller surface per client: a token bucket
// for request rate plus concurrency caps for in-flight turns and open
// websocket sessions. Single-process, in-memory only.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

type Config struct {
	RPS   float64
	Burst int

	MaxConcurrentTurns    int
	MaxConcurrentSessions int

	// Operational bounds for the in-memory map.
	MaxEntries int
	EntryTTL   time.Duration
}

// Limiter tracks one state entry per caller key. Keys are whatever the
// middleware derives for a caller (client address, user id).
type Limiter struct {
	cfg Config

	mu sync.Mutex
	m  map[string]*callerLimiter
}

type callerLimiter struct {
	mu sync.Mutex

	tb tokenBucket

	turnSem    chan struct{}
	sessionSem chan struct{}

	lastSeen time.Time
}

type tokenBucket struct {
	rps      float64
	capacity float64

	tokens float64
	last   time.Time
}

func New(cfg Config) *Limiter {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10_000
	}
	if cfg.EntryTTL <= 0 {
		cfg.EntryTTL = 30 * time.Minute
	}
	return &Limiter{
		cfg: cfg,
		m:   make(map[string]*callerLimiter),
	}
}

// Permit is a held concurrency slot. Release is idempotent.
type Permit struct {
	release func()
}

func (p *Permit) Release() {
	if p == nil || p.release == nil {
		return
	}
	p.release()
	p.release = nil
}

type Decision struct {
	Allowed    bool
	RetryAfter int
	Permit     *Permit
}

// AcquireTurn admits one synchronous turn request for caller, checking
// the token bucket first and then the in-flight cap.
func (l *Limiter) AcquireTurn(caller string, now time.Time) Decision {
	if caller == "" {
		caller = "anonymous"
	}

	cl := l.getOrCreate(caller, now)
	cl.touch(now)

	if l.cfg.RPS > 0 && l.cfg.Burst > 0 {
		ok, retryAfter := cl.allowToken(now, l.cfg.RPS, l.cfg.Burst)
		if !ok {
			return Decision{Allowed: false, RetryAfter: retryAfter}
		}
	}

	if l.cfg.MaxConcurrentTurns > 0 {
		select {
		case cl.turnSem <- struct{}{}:
			return Decision{
				Allowed: true,
				Permit:  &Permit{release: func() { <-cl.turnSem }},
			}
		default:
			return Decision{Allowed: false, RetryAfter: 1}
		}
	}

	return Decision{Allowed: true, Permit: &Permit{release: func() {}}}
}

// AcquireSession admits one websocket session for caller. The permit is
// held for the session's lifetime, not per turn.
func (l *Limiter) AcquireSession(caller string, now time.Time) Decision {
	if caller == "" {
		caller = "anonymous"
	}

	cl := l.getOrCreate(caller, now)
	cl.touch(now)

	if l.cfg.MaxConcurrentSessions > 0 {
		select {
		case cl.sessionSem <- struct{}{}:
			return Decision{
				Allowed: true,
				Permit:  &Permit{release: func() { <-cl.sessionSem }},
			}
		default:
			return Decision{Allowed: false, RetryAfter: 1}
		}
	}

	return Decision{Allowed: true, Permit: &Permit{release: func() {}}}
}

func (l *Limiter) getOrCreate(caller string, now time.Time) *callerLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.m) >= l.cfg.MaxEntries {
		l.gcLocked(now)
		// If still too big, drop one arbitrary entry; bounded memory wins
		// over perfect fairness.
		if len(l.m) >= l.cfg.MaxEntries {
			for k := range l.m {
				delete(l.m, k)
				break
			}
		}
	}

	if cl, ok := l.m[caller]; ok {
		return cl
	}
	cl := &callerLimiter{
		turnSem:    make(chan struct{}, maxInt(1, l.cfg.MaxConcurrentTurns)),
		sessionSem: make(chan struct{}, maxInt(1, l.cfg.MaxConcurrentSessions)),
		lastSeen:   now,
	}
	l.m[caller] = cl
	return cl
}

func (l *Limiter) gcLocked(now time.Time) {
	ttl := l.cfg.EntryTTL
	for k, v := range l.m {
		if now.Sub(v.lastSeen) > ttl {
			delete(l.m, k)
		}
	}
}

func (cl *callerLimiter) touch(now time.Time) {
	cl.lastSeen = now
}

func (cl *callerLimiter) allowToken(now time.Time, rps float64, burst int) (bool, int) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if burst <= 0 || rps <= 0 {
		return true, 0
	}
	capacity := float64(burst)
	if cl.tb.capacity == 0 {
		cl.tb = tokenBucket{
			rps:      rps,
			capacity: capacity,
			tokens:   capacity,
			last:     now,
		}
	}

	cl.tb.rps = rps
	cl.tb.capacity = capacity

	elapsed := now.Sub(cl.tb.last).Seconds()
	if elapsed > 0 {
		cl.tb.tokens = math.Min(cl.tb.capacity, cl.tb.tokens+(elapsed*cl.tb.rps))
		cl.tb.last = now
	}

	if cl.tb.tokens >= 1.0 {
		cl.tb.tokens -= 1.0
		return true, 0
	}

	needed := 1.0 - cl.tb.tokens
	seconds := needed / cl.tb.rps
	retryAfter := int(math.Ceil(seconds))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return false, retryAfter
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
