package tools

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/convonet/assistant/pkg/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	name   string
	result string
	err    error
}

func (f fakeExecutor) Name() string { return f.name }

func (f fakeExecutor) Definition() types.Tool {
	return types.Tool{Name: f.name, InputSchema: types.ObjectSchema(nil)}
}

func (f fakeExecutor) Execute(context.Context, map[string]any) (string, error) {
	return f.result, f.err
}

type failingSource struct{}

func (failingSource) Name() string { return "broken" }

func (failingSource) Executors(context.Context) ([]Executor, error) {
	return nil, errors.New("upstream unreachable")
}

func TestAssembleSkipsFailingSource(t *testing.T) {
	r := Assemble(context.Background(), slog.Default(),
		StaticSource{SourceName: "good", Items: []Executor{
			fakeExecutor{name: "echo"},
			fakeExecutor{name: "add"},
		}},
		failingSource{},
		StaticSource{SourceName: "also good", Items: []Executor{
			fakeExecutor{name: "lookup"},
		}},
	)

	assert.Equal(t, []string{"add", "echo", "lookup"}, r.Names(),
		"a failing source must not prevent the rest from loading")

	_, ok := r.Lookup("echo")
	assert.True(t, ok)
	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestDefinitionsStableOrder(t *testing.T) {
	r := NewRegistry(
		fakeExecutor{name: "zeta"},
		fakeExecutor{name: "alpha"},
	)
	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "alpha", defs[0].Name)
	assert.Equal(t, "zeta", defs[1].Name)
}

func TestNilRegistryLookup(t *testing.T) {
	var r *Registry
	_, ok := r.Lookup("anything")
	assert.False(t, ok)
	assert.Nil(t, r.Names())
}

func TestUserContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, UserFrom(ctx))
	assert.Equal(t, "alice", UserFrom(WithUser(ctx, "alice")))
}
