// Package stepctx defines the base per-run step context.
//
// A Context is created by the execution engine immediately before a step's
// entrypoint is invoked, handed to the entrypoint if its signature asks for
// one, and discarded when the run ends. It is never reused across runs. All
// fields are fixed at construction; the accessors exist so that extension
// packages (capability wrappers like profiling.Context) can compose around
// the base context without reaching into its state.
package stepctx

import (
	"fmt"
	"log/slog"

	"github.com/specialistvlad/stepflow/internal/steperr"
)

// Context carries the identity and run-scoped metadata of one step run.
type Context struct {
	stepIdentity string
	runID        string
	params       map[string]any
	logger       *slog.Logger
}

// New creates a context for a single step run. The engine must supply a
// non-empty step identity; an empty one is an IdentityResolutionError
// because every downstream consumer (caching, profiling tags, hook
// reporting) keys off it.
func New(stepIdentity, runID string, params map[string]any, logger *slog.Logger) (*Context, error) {
	if stepIdentity == "" {
		return nil, &steperr.IdentityResolutionError{
			Err: fmt.Errorf("execution engine supplied an empty step identity"),
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		stepIdentity: stepIdentity,
		runID:        runID,
		params:       params,
		logger:       logger.With("step", stepIdentity, "run_id", runID),
	}, nil
}

// StepIdentity returns the identity of the step this run belongs to. It is
// immutable for the lifetime of the run.
func (c *Context) StepIdentity() string { return c.stepIdentity }

// RunID returns the engine-assigned identifier of this run.
func (c *Context) RunID() string { return c.runID }

// Params returns a copy of the run parameters supplied by the engine.
func (c *Context) Params() map[string]any {
	out := make(map[string]any, len(c.params))
	for k, v := range c.params {
		out[k] = v
	}
	return out
}

// Logger returns the run-scoped logger, pre-tagged with the step identity
// and run ID.
func (c *Context) Logger() *slog.Logger { return c.logger }
