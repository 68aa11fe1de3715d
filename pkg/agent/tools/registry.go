// Package tools holds the assistant's callable capabilities and the
// registry the runloop dispatches against. The registry is assembled once
// at startup from several sources; an unreachable optional source is
// skipped with a warning, never a startup failure.
package tools

import (
	"context"
	"log/slog"
	"sort"

	"github.com/convonet/assistant/pkg/core/types"
)

// Executor is one callable tool. Execute returns the text fed back to the
// model; an error return is classified by the invoker, not by the tool.
type Executor interface {
	Name() string
	Definition() types.Tool
	Execute(ctx context.Context, input map[string]any) (string, error)
}

// Source contributes a group of executors to the registry. Sources that
// talk to external systems may fail; assembly treats that as the source
// being unavailable, not as a fatal error.
type Source interface {
	Name() string
	Executors(ctx context.Context) ([]Executor, error)
}

// Registry maps tool names to executors. Read-only once assembled.
type Registry struct {
	byName map[string]Executor
}

// NewRegistry builds a registry from a fixed set of executors.
func NewRegistry(executors ...Executor) *Registry {
	r := &Registry{byName: make(map[string]Executor, len(executors))}
	for _, ex := range executors {
		if ex == nil {
			continue
		}
		r.byName[ex.Name()] = ex
	}
	return r
}

// Assemble builds the process-wide registry from sources. A source that
// errors contributes nothing; the rest of the registry is unaffected.
func Assemble(ctx context.Context, log *slog.Logger, sources ...Source) *Registry {
	r := &Registry{byName: make(map[string]Executor)}
	for _, src := range sources {
		executors, err := src.Executors(ctx)
		if err != nil {
			log.Warn("tool source unavailable, skipping", "source", src.Name(), "error", err)
			continue
		}
		for _, ex := range executors {
			if ex == nil {
				continue
			}
			r.byName[ex.Name()] = ex
		}
		log.Info("tool source loaded", "source", src.Name(), "tools", len(executors))
	}
	return r
}

// Lookup returns the executor registered under name.
func (r *Registry) Lookup(name string) (Executor, bool) {
	if r == nil {
		return nil, false
	}
	ex, ok := r.byName[name]
	return ex, ok
}

// Names lists registered tool names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Definitions collects every tool definition for provider binding,
// ordered by name so binding payloads are stable.
func (r *Registry) Definitions() []types.Tool {
	names := r.Names()
	defs := make([]types.Tool, 0, len(names))
	for _, name := range names {
		defs = append(defs, r.byName[name].Definition())
	}
	return defs
}

// StaticSource wraps a fixed executor list as a Source.
type StaticSource struct {
	SourceName string
	Items      []Executor
}

func (s StaticSource) Name() string { return s.SourceName }

func (s StaticSource) Executors(context.Context) ([]Executor, error) {
	return s.Items, nil
}
