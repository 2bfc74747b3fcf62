package profiling

import (
	"context"
	"time"

	"github.com/specialistvlad/stepflow/internal/dataset"
	"github.com/specialistvlad/stepflow/internal/stepctx"
	"github.com/specialistvlad/stepflow/internal/steperr"
)

// Tag keys applied by LogStructuredDataset.
const (
	// StepTagKey identifies the step that produced a profile. It is always
	// forced to the context's step identity so it cannot be spoofed by
	// caller-supplied tags.
	StepTagKey = "stepflow.step"

	// DatasetIDTagKey groups profiles that belong to the same dataset or
	// model. Unlike StepTagKey, a caller-supplied value wins.
	DatasetIDTagKey = "datasetId"
)

// SessionFactory constructs the session a Context lazily acquires. The
// default calls NewSession with no writers; tests and embedders can
// substitute their own.
type SessionFactory func(project, grouping string) (*Session, error)

// Context extends a base step context with lazy ownership of one profiling
// session. It is a capability wrapper around stepctx.Context rather than a
// subtype: the engine hands it to entrypoints that declare a
// *profiling.Context parameter.
//
// The session transitions once from absent to present on first access and
// is never replaced for the lifetime of the context. The check-then-create
// in Session is not guarded; the engine runs one step body to completion at
// a time, so each context instance has a single-threaded owner. Adding
// concurrent step execution requires an explicit guard here.
//
// Because a resource-scoped context reaches an external, possibly
// non-deterministic resource, the step factory disables caching by default
// for any step whose entrypoint asks for one.
type Context struct {
	step    *stepctx.Context
	factory SessionFactory
	session *Session
}

// ContextOption customizes a Context at construction.
type ContextOption func(*Context)

// WithSessionFactory substitutes the function used to construct the lazily
// acquired session.
func WithSessionFactory(f SessionFactory) ContextOption {
	return func(c *Context) { c.factory = f }
}

// NewContext wraps a base step context with the profiling capability.
func NewContext(step *stepctx.Context, opts ...ContextOption) *Context {
	c := &Context{
		step: step,
		factory: func(project, grouping string) (*Session, error) {
			return NewSession(project, grouping)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Step returns the wrapped base context.
func (c *Context) Step() *stepctx.Context { return c.step }

// StepIdentity returns the identity of the step this run belongs to.
func (c *Context) StepIdentity() string { return c.step.StepIdentity() }

// Session returns the profiling session owned by this context, constructing
// it on first access. The step identity serves as both the project and the
// grouping key; no broader pipeline identity is available to the context
// yet. The session is created
// with no attached writers; persistence is the downstream materializer's
// job.
//
// Construction failure surfaces as a ResourceInitError; no retry is
// attempted.
func (c *Context) Session() (*Session, error) {
	if c.session != nil {
		return c.session, nil
	}

	// TODO: use the pipeline identity as the grouping key once it is
	// threaded into the step context.
	session, err := c.factory(c.step.StepIdentity(), c.step.StepIdentity())
	if err != nil {
		return nil, &steperr.ResourceInitError{Resource: "profiling session", Err: err}
	}
	c.session = session
	return c.session, nil
}

// LogConfig holds the optional parameters of LogStructuredDataset.
type LogConfig struct {
	DatasetName string
	Timestamp   time.Time
	Tags        map[string]string
}

// LogOption customizes a single LogStructuredDataset call.
type LogOption func(*LogConfig)

// WithDatasetName overrides the dataset name; the default is the step
// identity.
func WithDatasetName(name string) LogOption {
	return func(cfg *LogConfig) { cfg.DatasetName = name }
}

// WithTimestamp associates the given timestamp with the generated profile
// instead of the current time.
func WithTimestamp(ts time.Time) LogOption {
	return func(cfg *LogConfig) { cfg.Timestamp = ts }
}

// WithTags attaches custom metadata tags to the generated profile.
func WithTags(tags map[string]string) LogOption {
	return func(cfg *LogConfig) { cfg.Tags = tags }
}

// LogStructuredDataset profiles the statistics of a structured dataset
// through this context's session and returns the finalized profile.
//
// The resulting tag set starts from the caller's tags (which are never
// mutated), then StepTagKey is forced to the step identity, and
// DatasetIDTagKey defaults to the dataset name unless the caller already
// supplied one. Profiling failures propagate unmodified; there is no retry
// or suppression at this layer.
func (c *Context) LogStructuredDataset(ctx context.Context, t *dataset.Table, opts ...LogOption) (*ProfileResult, error) {
	session, err := c.Session()
	if err != nil {
		return nil, err
	}

	cfg := LogConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DatasetName == "" {
		cfg.DatasetName = c.step.StepIdentity()
	}

	tags := make(map[string]string, len(cfg.Tags)+2)
	for k, v := range cfg.Tags {
		tags[k] = v
	}
	tags[StepTagKey] = c.step.StepIdentity()
	if _, ok := tags[DatasetIDTagKey]; !ok {
		tags[DatasetIDTagKey] = cfg.DatasetName
	}

	logger, err := session.Logger(cfg.DatasetName, cfg.Timestamp, tags)
	if err != nil {
		return nil, &steperr.ProfilingError{Dataset: cfg.DatasetName, Err: err}
	}
	if err := logger.LogTable(t); err != nil {
		return nil, err
	}
	return logger.Close(ctx)
}
