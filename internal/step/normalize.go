package step

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/specialistvlad/stepflow/internal/registry"
	"github.com/specialistvlad/stepflow/internal/steperr"
)

// WildcardOutput is the binding key meaning "every output of the step".
// The single-reference and sequence forms of a materializer spec normalize
// under this key.
const WildcardOutput = "*"

// NormalizeMaterializers canonicalizes a heterogeneous materializer spec
// into a mapping from output name to an ordered list of resolved
// references.
//
// Accepted shapes: a single reference (string name or Materializer value),
// a sequence of references, or a map from output name to either form. The
// single and sequence forms apply to every output and land under
// WildcardOutput. Output-name validity is checked separately once the
// step's declared outputs are known; see ValidateMaterializerKeys.
func NormalizeMaterializers(reg *registry.Registry, spec any) (map[string][]registry.MaterializerRef, error) {
	bindings := make(map[string][]registry.MaterializerRef)
	if spec == nil {
		return bindings, nil
	}

	switch s := spec.(type) {
	case map[string][]registry.MaterializerRef:
		// Already canonical; copy so callers cannot alias our state.
		for key, refs := range s {
			bindings[key] = append([]registry.MaterializerRef(nil), refs...)
		}
		return bindings, nil
	case map[string]any:
		for key, val := range s {
			refs, err := resolveRefList(reg, val)
			if err != nil {
				return nil, err
			}
			bindings[key] = refs
		}
		return bindings, nil
	case map[string]string:
		for key, val := range s {
			ref, err := resolveRef(reg, val)
			if err != nil {
				return nil, err
			}
			bindings[key] = []registry.MaterializerRef{ref}
		}
		return bindings, nil
	case map[string][]string:
		for key, vals := range s {
			refs, err := resolveRefList(reg, vals)
			if err != nil {
				return nil, err
			}
			bindings[key] = refs
		}
		return bindings, nil
	case map[string][]any:
		for key, vals := range s {
			refs, err := resolveRefList(reg, vals)
			if err != nil {
				return nil, err
			}
			bindings[key] = refs
		}
		return bindings, nil
	default:
		refs, err := resolveRefList(reg, spec)
		if err != nil {
			return nil, err
		}
		bindings[WildcardOutput] = refs
		return bindings, nil
	}
}

// resolveRefList resolves a single reference or a sequence of references
// into an ordered list.
func resolveRefList(reg *registry.Registry, spec any) ([]registry.MaterializerRef, error) {
	switch s := spec.(type) {
	case []string:
		refs := make([]registry.MaterializerRef, 0, len(s))
		for _, v := range s {
			ref, err := resolveRef(reg, v)
			if err != nil {
				return nil, err
			}
			refs = append(refs, ref)
		}
		return refs, nil
	case []any:
		refs := make([]registry.MaterializerRef, 0, len(s))
		for _, v := range s {
			ref, err := resolveRef(reg, v)
			if err != nil {
				return nil, err
			}
			refs = append(refs, ref)
		}
		return refs, nil
	case []registry.MaterializerRef:
		return append([]registry.MaterializerRef(nil), s...), nil
	default:
		ref, err := resolveRef(reg, spec)
		if err != nil {
			return nil, err
		}
		return []registry.MaterializerRef{ref}, nil
	}
}

// resolveRef resolves one materializer reference: a registered name or an
// inline Materializer value.
func resolveRef(reg *registry.Registry, spec any) (registry.MaterializerRef, error) {
	switch s := spec.(type) {
	case registry.MaterializerRef:
		return s, nil
	case string:
		m, ok := reg.Materializer(s)
		if !ok {
			return registry.MaterializerRef{}, steperr.NewConfiguration(
				"output_materializers", "unknown materializer %q", s)
		}
		return registry.MaterializerRef{Name: s, Materializer: m}, nil
	case registry.Materializer:
		return registry.MaterializerRef{Name: fmt.Sprintf("%T", s), Materializer: s}, nil
	default:
		return registry.MaterializerRef{}, steperr.NewConfiguration(
			"output_materializers", "unsupported materializer reference of type %T", spec)
	}
}

// ValidateMaterializerKeys checks that every explicit binding key is among
// the step's declared outputs. The wildcard key is always valid.
func ValidateMaterializerKeys(bindings map[string][]registry.MaterializerRef, outputs []string) error {
	declared := make(map[string]struct{}, len(outputs))
	for _, name := range outputs {
		declared[name] = struct{}{}
	}
	for key := range bindings {
		if key == WildcardOutput {
			continue
		}
		if _, ok := declared[key]; !ok {
			return steperr.NewConfiguration(
				"output_materializers", "key %q is not among the step's outputs %v", key, outputs)
		}
	}
	return nil
}

// NormalizeHook canonicalizes a hook spec, either an inline callable or
// the name of a registered hook, into a resolved reference. The callable's
// shape
// (up to run context, step parameters and, for failure hooks, the raised
// error) is validated by the engine at invocation time, not here.
func NormalizeHook(reg *registry.Registry, spec any, option string) (registry.HookRef, error) {
	switch s := spec.(type) {
	case nil:
		return registry.HookRef{}, nil
	case registry.HookRef:
		return s, nil
	case string:
		fn, ok := reg.Hook(s)
		if !ok {
			return registry.HookRef{}, steperr.NewConfiguration(option, "unknown hook %q", s)
		}
		return registry.HookRef{Name: s, Fn: fn}, nil
	default:
		if reflect.TypeOf(spec).Kind() != reflect.Func {
			return registry.HookRef{}, steperr.NewConfiguration(
				option, "hook must be a func or the name of a registered hook, got %T", spec)
		}
		return registry.HookRef{Name: funcName(spec), Fn: spec}, nil
	}
}

// funcName returns the bare name of a function value, without its package
// path or the "-fm" suffix of method values.
func funcName(fn any) string {
	full := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	full = strings.TrimSuffix(full, "-fm")
	if i := strings.LastIndex(full, "."); i >= 0 {
		return full[i+1:]
	}
	return full
}
