// Package prefs resolves per-user LLM provider preferences from Redis.
// Redis is best-effort everywhere: a missing or unreachable server never
// fails a turn, it only means the configured default provider is used.
package prefs

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// preferenceTTL keeps stale selections from pinning a user to a provider
// forever; the web selector rewrites the key on every change.
const preferenceTTL = 30 * 24 * time.Hour

// ErrUnknownProvider is returned by SetProvider for names outside the
// supported set.
var ErrUnknownProvider = errors.New("prefs: unknown provider")

// ValidProvider reports whether name is a provider the runloop can build.
func ValidProvider(name string) bool {
	switch name {
	case "claude", "gemini", "openai":
		return true
	}
	return false
}

// kv is the slice of Redis the resolver needs. Tests supply a map-backed
// implementation.
type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type redisKV struct {
	rdb *redis.Client
}

func (r redisKV) Get(ctx context.Context, key string) (string, error) {
	return r.rdb.Get(ctx, key).Result()
}

func (r redisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

// Resolver answers "which provider should this user's turn run on".
type Resolver struct {
	store    kv
	fallback string
	log      *slog.Logger
}

// NewResolver builds a resolver over rdb. rdb may be nil, in which case
// every lookup answers the fallback. An invalid fallback is coerced to
// claude.
func NewResolver(rdb *redis.Client, fallback string, log *slog.Logger) *Resolver {
	fallback = strings.ToLower(strings.TrimSpace(fallback))
	if !ValidProvider(fallback) {
		fallback = "claude"
	}
	r := &Resolver{fallback: fallback, log: log}
	if rdb != nil {
		r.store = redisKV{rdb: rdb}
	}
	return r
}

func key(userID string) string {
	return "user:" + userID + ":llm_provider"
}

// Provider resolves the provider for userID: the user's own preference,
// then the site-wide "default" selection, then the configured fallback.
func (r *Resolver) Provider(ctx context.Context, userID string) string {
	if r.store == nil {
		return r.fallback
	}
	if userID != "" {
		if p, ok := r.lookup(ctx, key(userID)); ok {
			return p
		}
	}
	if p, ok := r.lookup(ctx, key("default")); ok {
		return p
	}
	return r.fallback
}

func (r *Resolver) lookup(ctx context.Context, k string) (string, bool) {
	v, err := r.store.Get(ctx, k)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("provider preference lookup failed", "key", k, "error", err)
		}
		return "", false
	}
	v = strings.ToLower(strings.TrimSpace(v))
	if !ValidProvider(v) {
		return "", false
	}
	return v, true
}

// SetProvider stores the user's selection. Unknown providers are rejected
// before touching Redis; storage errors are surfaced so the web layer can
// report them.
func (r *Resolver) SetProvider(ctx context.Context, userID, provider string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !ValidProvider(provider) {
		return ErrUnknownProvider
	}
	if r.store == nil {
		return errors.New("prefs: redis not configured")
	}
	return r.store.Set(ctx, key(userID), provider, preferenceTTL)
}
