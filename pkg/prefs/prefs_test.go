package prefs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapKV struct {
	data map[string]string
	err  error
}

func (m *mapKV) Get(_ context.Context, key string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *mapKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func newTestResolver(store kv) *Resolver {
	return &Resolver{store: store, fallback: "claude", log: slog.Default()}
}

func TestProviderResolutionOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("user preference wins", func(t *testing.T) {
		r := newTestResolver(&mapKV{data: map[string]string{
			"user:alice:llm_provider":   "gemini",
			"user:default:llm_provider": "openai",
		}})
		assert.Equal(t, "gemini", r.Provider(ctx, "alice"))
	})

	t.Run("falls through to site default", func(t *testing.T) {
		r := newTestResolver(&mapKV{data: map[string]string{
			"user:default:llm_provider": "openai",
		}})
		assert.Equal(t, "openai", r.Provider(ctx, "alice"))
	})

	t.Run("falls through to configured fallback", func(t *testing.T) {
		r := newTestResolver(&mapKV{data: map[string]string{}})
		assert.Equal(t, "claude", r.Provider(ctx, "alice"))
	})

	t.Run("invalid stored value is ignored", func(t *testing.T) {
		r := newTestResolver(&mapKV{data: map[string]string{
			"user:alice:llm_provider": "gpt5000",
		}})
		assert.Equal(t, "claude", r.Provider(ctx, "alice"))
	})

	t.Run("redis failure answers fallback", func(t *testing.T) {
		r := newTestResolver(&mapKV{err: context.DeadlineExceeded})
		assert.Equal(t, "claude", r.Provider(ctx, "alice"))
	})

	t.Run("nil client answers fallback", func(t *testing.T) {
		r := NewResolver(nil, "gemini", slog.Default())
		assert.Equal(t, "gemini", r.Provider(ctx, "alice"))
	})
}

func TestSetProvider(t *testing.T) {
	ctx := context.Background()
	store := &mapKV{data: map[string]string{}}
	r := newTestResolver(store)

	require.NoError(t, r.SetProvider(ctx, "alice", "OpenAI"))
	assert.Equal(t, "openai", store.data["user:alice:llm_provider"])

	assert.ErrorIs(t, r.SetProvider(ctx, "alice", "bard"), ErrUnknownProvider)
}

func TestNewResolverCoercesFallback(t *testing.T) {
	r := NewResolver(nil, "not-a-provider", slog.Default())
	assert.Equal(t, "claude", r.Provider(context.Background(), ""))
}
