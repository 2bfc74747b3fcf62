package step

import (
	"fmt"
	"reflect"

	"github.com/specialistvlad/stepflow/internal/profiling"
	"github.com/specialistvlad/stepflow/internal/registry"
	"github.com/specialistvlad/stepflow/internal/steperr"
)

// profilingContextType is the resource-scoped capability parameter type.
// Capability detection is static inspection of the entrypoint's signature
// at definition time; there are no runtime subtype checks.
var profilingContextType = reflect.TypeOf((*profiling.Context)(nil))

// New builds an immutable step definition from an entrypoint plus optional
// configuration. The entrypoint must be a function; it is never invoked
// here. All configuration errors are raised now, before any run.
//
// Caching resolves as follows: an explicit WithCache wins; otherwise a step
// whose entrypoint declares a *profiling.Context parameter defaults to
// caching disabled, everything else to enabled. A step that acquires an
// external resource must not be silently cached; a cached result would
// hide the side effects that re-running surfaces.
func New(reg *registry.Registry, entrypoint any, opts ...Option) (*Definition, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return build(reg, entrypoint, cfg)
}

// Configure returns an entrypoint-accepting builder carrying the given
// options. Configure(opts...)(fn) and New(fn, opts...) yield equivalent
// definitions for the same effective arguments.
func Configure(reg *registry.Registry, opts ...Option) func(entrypoint any) (*Definition, error) {
	return func(entrypoint any) (*Definition, error) {
		return New(reg, entrypoint, opts...)
	}
}

// Amend rebuilds a definition with additional options applied on top of
// its current configuration. It is how declarative overrides (e.g. from an
// HCL pipeline file) are layered over code-level options.
func Amend(reg *registry.Registry, def *Definition, opts ...Option) (*Definition, error) {
	cfg := config{
		name:                        def.name,
		enableCache:                 &def.enableCache,
		enableArtifactMetadata:      def.enableArtifactMetadata,
		enableArtifactVisualization: def.enableArtifactVisualization,
		experimentTracker:           def.experimentTracker,
		stepOperator:                def.stepOperator,
		outputs:                     def.outputs,
		materializerSpec:            def.materializers,
		settings:                    def.settings,
		extra:                       def.extra,
	}
	if !def.onFailure.IsZero() {
		cfg.onFailureSpec = def.onFailure
	}
	if !def.onSuccess.IsZero() {
		cfg.onSuccessSpec = def.onSuccess
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return build(reg, def.entrypoint, cfg)
}

func build(reg *registry.Registry, entrypoint any, cfg config) (*Definition, error) {
	if entrypoint == nil {
		return nil, steperr.NewConfiguration("entrypoint", "entrypoint must not be nil")
	}
	fnType := reflect.TypeOf(entrypoint)
	if fnType.Kind() != reflect.Func {
		return nil, steperr.NewConfiguration("entrypoint", "entrypoint must be a function, got %T", entrypoint)
	}

	name := cfg.name
	if name == "" {
		name = funcName(entrypoint)
	}
	if name == "" {
		return nil, &steperr.IdentityResolutionError{
			Err: fmt.Errorf("entrypoint has no derivable name and none was given"),
		}
	}

	resourceScoped := requiresResourceContext(fnType)
	enableCache := !resourceScoped
	if cfg.enableCache != nil {
		enableCache = *cfg.enableCache
	}

	materializers, err := NormalizeMaterializers(reg, cfg.materializerSpec)
	if err != nil {
		return nil, err
	}
	// Eager key validation when the outputs are statically known; deferred
	// to the first run otherwise.
	if len(cfg.outputs) > 0 {
		if err := ValidateMaterializerKeys(materializers, cfg.outputs); err != nil {
			return nil, err
		}
	}

	onFailure, err := NormalizeHook(reg, cfg.onFailureSpec, "on_failure")
	if err != nil {
		return nil, err
	}
	onSuccess, err := NormalizeHook(reg, cfg.onSuccessSpec, "on_success")
	if err != nil {
		return nil, err
	}

	return &Definition{
		name:                        name,
		entrypoint:                  entrypoint,
		enableCache:                 enableCache,
		resourceScoped:              resourceScoped,
		enableArtifactMetadata:      cfg.enableArtifactMetadata,
		enableArtifactVisualization: cfg.enableArtifactVisualization,
		experimentTracker:           cfg.experimentTracker,
		stepOperator:                cfg.stepOperator,
		outputs:                     append([]string(nil), cfg.outputs...),
		materializers:               materializers,
		settings:                    copySettings(cfg.settings),
		extra:                       copyExtra(cfg.extra),
		onFailure:                   onFailure,
		onSuccess:                   onSuccess,
	}, nil
}

// requiresResourceContext reports whether any parameter of the entrypoint
// is the resource-scoped capability type.
func requiresResourceContext(fnType reflect.Type) bool {
	for i := 0; i < fnType.NumIn(); i++ {
		if fnType.In(i) == profilingContextType {
			return true
		}
	}
	return false
}

func copySettings(in map[string]map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any, len(in))
	for component, payload := range in {
		copied := make(map[string]any, len(payload))
		for k, v := range payload {
			copied[k] = v
		}
		out[component] = copied
	}
	return out
}

func copyExtra(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
