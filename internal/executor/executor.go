// Package executor is the local, synchronous execution engine. It runs a
// list of step definitions to completion, one at a time, creating a fresh
// per-run context for each.
//
// One step body runs to completion before any other code touches its
// context, which is the exclusivity guarantee the resource-scoped context
// relies on. Scheduling, retries, and distribution live outside this
// module; this engine exists so a pipeline is runnable locally and so the
// configuration core has a real consumer.
package executor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/specialistvlad/stepflow/internal/registry"
	"github.com/specialistvlad/stepflow/internal/runcache"
	"github.com/specialistvlad/stepflow/internal/step"
	"github.com/specialistvlad/stepflow/internal/stepctx"
)

// defaultOutputName names the single output of a step that declares none.
const defaultOutputName = "output"

// Executor runs step definitions sequentially.
type Executor struct {
	reg    *registry.Registry
	cache  *runcache.Store
	outDir string
	params map[string]any
}

// Option customizes an Executor.
type Option func(*Executor)

// WithOutputDir sets the directory materialized artifacts are written
// under. Empty disables materialization.
func WithOutputDir(dir string) Option {
	return func(e *Executor) { e.outDir = dir }
}

// WithParams sets the run parameters handed to step contexts and hooks.
func WithParams(params map[string]any) Option {
	return func(e *Executor) { e.params = params }
}

// New creates an executor backed by the given registry and run cache.
func New(reg *registry.Registry, cache *runcache.Store, opts ...Option) *Executor {
	e := &Executor{reg: reg, cache: cache}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the definitions in order, failing fast on the first step
// error.
func (e *Executor) Run(ctx context.Context, defs []*step.Definition) error {
	logger := ctxlog.FromContext(ctx)
	for _, def := range defs {
		if err := e.runStep(ctx, def); err != nil {
			return fmt.Errorf("step %q failed: %w", def.Name(), err)
		}
	}
	logger.Info("All steps finished.", "count", len(defs))
	return nil
}

// runStep executes one definition: cache check, entrypoint invocation,
// hook dispatch, output materialization.
func (e *Executor) runStep(ctx context.Context, def *step.Definition) error {
	logger := ctxlog.FromContext(ctx).With("step", def.Name())
	logger.Info("▶️ Starting step")

	// Explicit materializer keys not validated at build (no declared
	// outputs) get their deferred check here, before the entrypoint runs.
	outputs := def.Outputs()
	if len(outputs) == 0 {
		outputs = []string{defaultOutputName}
		if err := step.ValidateMaterializerKeys(def.Materializers(), outputs); err != nil {
			return err
		}
	}

	if def.EnableCache() {
		if entry, ok := e.cache.Get(def.Name()); ok {
			logger.Info("✅ Cache hit, skipping execution.", "cached_run_id", entry.RunID)
			// The cached output is still materialized so a fresh output
			// directory gets its artifacts even when the step body is
			// skipped.
			return e.materialize(ctx, def, outputs, entry.Output)
		}
	}

	runID := uuid.NewString()
	sctx, err := stepctx.New(def.Name(), runID, e.params, logger)
	if err != nil {
		return err
	}

	output, err := e.invoke(ctx, def, sctx)
	if err != nil {
		e.dispatchHook(def.OnFailure(), sctx, err)
		return err
	}
	e.dispatchHook(def.OnSuccess(), sctx, nil)

	if def.EnableCache() {
		e.cache.Put(def.Name(), &runcache.Entry{Output: output, RunID: runID})
	}

	if err := e.materialize(ctx, def, outputs, output); err != nil {
		return err
	}

	logger.Info("✅ Finished step", "run_id", runID)
	return nil
}

// materialize persists the run's outputs through the definition's bound
// materializers.
func (e *Executor) materialize(ctx context.Context, def *step.Definition, outputs []string, output any) error {
	if e.outDir == "" || output == nil {
		return nil
	}
	logger := ctxlog.FromContext(ctx).With("step", def.Name())

	values := map[string]any{outputs[0]: output}
	if len(outputs) > 1 {
		byName, ok := output.(map[string]any)
		if !ok {
			return fmt.Errorf("step declares %d outputs but returned %T instead of map[string]any",
				len(outputs), output)
		}
		values = byName
	}

	for _, name := range outputs {
		value, ok := values[name]
		if !ok {
			continue
		}
		for _, ref := range def.MaterializersFor(name) {
			path, err := ref.Materializer.Materialize(ctx, e.outDir, def.Name(), name, value)
			if err != nil {
				return fmt.Errorf("materializer %q for output %q: %w", ref.Name, name, err)
			}
			logger.Debug("Output materialized.", "output", name, "materializer", ref.Name, "path", path)
		}
	}
	return nil
}
