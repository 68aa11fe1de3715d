package mw

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/convonet/assistant/pkg/gateway/ratelimit"
)

// RateLimit bounds the caller surface per client address. Websocket
// sessions hold a session permit for their whole lifetime; everything
// else takes a turn permit released when the handler returns. Health
// endpoints stay exempt so probes never get throttled.
func RateLimit(limiter *ratelimit.Limiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		caller := callerKey(r)
		var dec ratelimit.Decision
		if r.URL.Path == "/v1/agent/ws" {
			dec = limiter.AcquireSession(caller, time.Now())
		} else {
			dec = limiter.AcquireTurn(caller, time.Now())
		}

		if !dec.Allowed {
			if dec.RetryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(dec.RetryAfter))
			}
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		if dec.Permit != nil {
			defer dec.Permit.Release()
		}

		next.ServeHTTP(w, r)
	})
}

// callerKey identifies the client for limiting. With no auth layer the
// remote address is the only stable handle.
func callerKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
