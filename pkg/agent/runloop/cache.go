package runloop

import (
	"context"
	"sync"

	"github.com/convonet/assistant/pkg/core"
)

// GraphKey identifies one compiled agent graph.
type GraphKey struct {
	Provider string
	Model    string
}

// CompiledGraph is a provider adapter plus its bound tool declarations,
// ready to run turns. Bound is nil when tool binding failed soft and the
// graph runs without tool-calling capability.
type CompiledGraph struct {
	Provider core.Provider
	Model    string
	Bound    core.BoundTools
}

// GraphCache holds compiled graphs keyed by (provider, model). It is the
// only mutable state shared across concurrent turns; the lock covers the
// build-if-absent window and is never held during generation or tool
// execution.
type GraphCache struct {
	mu     sync.Mutex
	graphs map[GraphKey]*CompiledGraph
}

// NewGraphCache creates an empty cache.
func NewGraphCache() *GraphCache {
	return &GraphCache{graphs: make(map[GraphKey]*CompiledGraph)}
}

// GetOrBuild returns the cached graph for key, building it under the lock
// on first use so concurrent turns never race-build duplicates.
func (c *GraphCache) GetOrBuild(ctx context.Context, key GraphKey, build func(ctx context.Context) (*CompiledGraph, error)) (*CompiledGraph, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if g, ok := c.graphs[key]; ok {
		return g, nil
	}
	g, err := build(ctx)
	if err != nil {
		return nil, err
	}
	c.graphs[key] = g
	return g, nil
}

// Invalidate drops the cached graph for key, forcing a rebuild on next
// use. Called when a provider reports the model identifier as unknown.
func (c *GraphCache) Invalidate(key GraphKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.graphs, key)
}
