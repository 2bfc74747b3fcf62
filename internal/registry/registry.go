// Package registry provides the string-keyed lookup tables that connect
// declarative step configuration to compiled Go code.
//
// Materializers and hooks are referenced by name from two places: Go-level
// step options and HCL override files. The registry is the single place
// those names resolve, which keeps the normalizer format-agnostic: it never
// needs to know whether a reference came from code or configuration.
//
// Registration happens once at application startup. A duplicate name is a
// programmer error (two packages claiming the same key), so Register*
// panics rather than returning an error nobody would check at init time.
package registry

import (
	"context"
	"fmt"
	"log/slog"
)

// Materializer persists one step output artifact. Implementations own the
// serialization format; the engine only hands them the value and a target
// directory.
type Materializer interface {
	// Materialize writes the value of the named output and returns the
	// path it was written to.
	Materialize(ctx context.Context, dir, stepName, outputName string, value any) (string, error)
}

// MaterializerRef is a resolved reference to a registered materializer.
// Name is kept alongside the instance so errors and logs can report which
// binding was in play.
type MaterializerRef struct {
	Name         string
	Materializer Materializer
}

// HookRef is a resolved reference to a success or failure hook. Fn holds
// the callable as registered; its shape is validated at invocation time by
// the execution engine, not here.
type HookRef struct {
	Name string
	Fn   any
}

// IsZero reports whether the ref resolves to nothing.
func (h HookRef) IsZero() bool { return h.Fn == nil }

// Registry holds all registered materializers and hooks for a single
// application instance.
type Registry struct {
	materializers map[string]Materializer
	hooks         map[string]any
}

// New creates and initializes an empty Registry.
func New() *Registry {
	return &Registry{
		materializers: make(map[string]Materializer),
		hooks:         make(map[string]any),
	}
}

// RegisterMaterializer registers a materializer under the given name.
func (r *Registry) RegisterMaterializer(name string, m Materializer) {
	if _, exists := r.materializers[name]; exists {
		panic(fmt.Sprintf("materializer with name '%s' already registered", name))
	}
	slog.Debug("Registering materializer.", "name", name)
	r.materializers[name] = m
}

// RegisterHook registers a hook callable under the given name.
func (r *Registry) RegisterHook(name string, fn any) {
	if fn == nil {
		panic(fmt.Sprintf("hook '%s' registered with a nil callable", name))
	}
	if _, exists := r.hooks[name]; exists {
		panic(fmt.Sprintf("hook with name '%s' already registered", name))
	}
	slog.Debug("Registering hook.", "name", name)
	r.hooks[name] = fn
}

// Materializer looks up a materializer by name.
func (r *Registry) Materializer(name string) (Materializer, bool) {
	m, ok := r.materializers[name]
	return m, ok
}

// Hook looks up a hook callable by name.
func (r *Registry) Hook(name string) (any, bool) {
	fn, ok := r.hooks[name]
	return fn, ok
}
