// Package step turns a plain Go function into a declaratively-configured
// step definition.
//
// Why a data-driven builder instead of wrapper types?
//
// A step is configuration, not behavior: the same entrypoint can be bound
// into many pipelines with different names, caching policies, and artifact
// bindings. Synthesizing a type per step would couple identity to the Go
// type system for no benefit. The factory instead normalizes all
// configuration up front and returns an immutable Definition value holding
// the entrypoint as an opaque callable; the execution engine consumes the
// value without ever inspecting how it was built.
package step

import (
	"github.com/specialistvlad/stepflow/internal/registry"
)

// Definition is the fully resolved configuration of one step. It is
// immutable once built: every policy (name, caching, bindings) is decided
// at construction and the accessors return copies of mutable state.
type Definition struct {
	name           string
	entrypoint     any
	enableCache    bool
	resourceScoped bool

	enableArtifactMetadata      *bool
	enableArtifactVisualization *bool
	experimentTracker           string
	stepOperator                string

	outputs       []string
	materializers map[string][]registry.MaterializerRef
	settings      map[string]map[string]any
	extra         map[string]any
	onFailure     registry.HookRef
	onSuccess     registry.HookRef
}

// Name returns the step's resolved, non-empty name.
func (d *Definition) Name() string { return d.name }

// Entrypoint returns the opaque callable this step wraps. The factory never
// invokes it; only the execution engine does.
func (d *Definition) Entrypoint() any { return d.entrypoint }

// EnableCache reports the resolved caching policy. It is never "unset": an
// explicit option wins, otherwise it defaults to false for resource-scoped
// steps and true for everything else.
func (d *Definition) EnableCache() bool { return d.enableCache }

// ResourceScoped reports whether the entrypoint declares a parameter of the
// resource-scoped capability type.
func (d *Definition) ResourceScoped() bool { return d.resourceScoped }

// EnableArtifactMetadata returns the forwarded metadata toggle, or nil when
// the caller left it unset.
func (d *Definition) EnableArtifactMetadata() *bool { return d.enableArtifactMetadata }

// EnableArtifactVisualization returns the forwarded visualization toggle,
// or nil when the caller left it unset.
func (d *Definition) EnableArtifactVisualization() *bool { return d.enableArtifactVisualization }

// ExperimentTracker returns the name of the bound experiment tracker, if
// any. The binding is forwarded to the execution layer, not interpreted
// here.
func (d *Definition) ExperimentTracker() string { return d.experimentTracker }

// StepOperator returns the name of the bound step operator, if any.
func (d *Definition) StepOperator() string { return d.stepOperator }

// Outputs returns the step's declared output names, if any were declared.
func (d *Definition) Outputs() []string {
	return append([]string(nil), d.outputs...)
}

// Materializers returns the canonical materializer bindings.
func (d *Definition) Materializers() map[string][]registry.MaterializerRef {
	out := make(map[string][]registry.MaterializerRef, len(d.materializers))
	for key, refs := range d.materializers {
		out[key] = append([]registry.MaterializerRef(nil), refs...)
	}
	return out
}

// MaterializersFor returns the references bound to the named output: the
// explicit binding when one exists, else the wildcard binding.
func (d *Definition) MaterializersFor(output string) []registry.MaterializerRef {
	if refs, ok := d.materializers[output]; ok {
		return append([]registry.MaterializerRef(nil), refs...)
	}
	return append([]registry.MaterializerRef(nil), d.materializers[WildcardOutput]...)
}

// Settings returns the per-component settings payloads.
func (d *Definition) Settings() map[string]map[string]any {
	out := make(map[string]map[string]any, len(d.settings))
	for component, payload := range d.settings {
		copied := make(map[string]any, len(payload))
		for k, v := range payload {
			copied[k] = v
		}
		out[component] = copied
	}
	return out
}

// Extra returns the opaque metadata attached to the step.
func (d *Definition) Extra() map[string]any {
	out := make(map[string]any, len(d.extra))
	for k, v := range d.extra {
		out[k] = v
	}
	return out
}

// OnFailure returns the resolved failure hook, which may be zero.
func (d *Definition) OnFailure() registry.HookRef { return d.onFailure }

// OnSuccess returns the resolved success hook, which may be zero.
func (d *Definition) OnSuccess() registry.HookRef { return d.onSuccess }
