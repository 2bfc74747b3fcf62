package step

// config collects the raw, not-yet-normalized configuration of a step
// while options are being applied. The factory resolves it into a
// Definition.
type config struct {
	name                        string
	enableCache                 *bool
	enableArtifactMetadata      *bool
	enableArtifactVisualization *bool
	experimentTracker           string
	stepOperator                string
	outputs                     []string
	materializerSpec            any
	settings                    map[string]map[string]any
	extra                       map[string]any
	onFailureSpec               any
	onSuccessSpec               any
}

// Option configures a step being built by New or Configure.
type Option func(*config)

// WithName overrides the step name derived from the entrypoint's function
// name.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithCache overrides the resolved caching default. Without this option,
// caching is enabled unless the entrypoint requires a resource-scoped
// context.
func WithCache(enabled bool) Option {
	return func(c *config) { c.enableCache = &enabled }
}

// WithArtifactMetadata toggles artifact metadata capture. The value is
// forwarded to the execution layer, not interpreted here.
func WithArtifactMetadata(enabled bool) Option {
	return func(c *config) { c.enableArtifactMetadata = &enabled }
}

// WithArtifactVisualization toggles artifact visualization capture. The
// value is forwarded to the execution layer, not interpreted here.
func WithArtifactVisualization(enabled bool) Option {
	return func(c *config) { c.enableArtifactVisualization = &enabled }
}

// WithExperimentTracker names the experiment tracker to bind to this step.
func WithExperimentTracker(name string) Option {
	return func(c *config) { c.experimentTracker = name }
}

// WithStepOperator names the step operator to bind to this step.
func WithStepOperator(name string) Option {
	return func(c *config) { c.stepOperator = name }
}

// WithOutputs declares the step's output names. Declaring them enables
// eager validation of explicit materializer keys at build time; without a
// declaration the check is deferred to the first run.
func WithOutputs(names ...string) Option {
	return func(c *config) { c.outputs = names }
}

// WithOutputMaterializers binds materializers to the step's outputs. The
// spec may be a single reference, a sequence, or a map from output name to
// either; see NormalizeMaterializers.
func WithOutputMaterializers(spec any) Option {
	return func(c *config) { c.materializerSpec = spec }
}

// WithSettings attaches per-component settings payloads.
func WithSettings(settings map[string]map[string]any) Option {
	return func(c *config) { c.settings = settings }
}

// WithExtra attaches arbitrary opaque metadata to the step.
func WithExtra(extra map[string]any) Option {
	return func(c *config) { c.extra = extra }
}

// OnFailure binds a hook invoked by the engine when the step fails. The
// spec is an inline func or the name of a registered hook; a failure hook
// accepts up to the run context, the step parameters, and the raised
// error.
func OnFailure(spec any) Option {
	return func(c *config) { c.onFailureSpec = spec }
}

// OnSuccess binds a hook invoked by the engine when the step succeeds. The
// spec is an inline func or the name of a registered hook; a success hook
// accepts up to the run context and the step parameters.
func OnSuccess(spec any) Option {
	return func(c *config) { c.onSuccessSpec = spec }
}
