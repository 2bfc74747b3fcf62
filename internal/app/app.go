// Package app contains the application wiring: logger construction,
// registry population, step module registration, override loading, and the
// execution lifecycle. It is decoupled from any specific entrypoint such
// as the CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/specialistvlad/stepflow/internal/executor"
	"github.com/specialistvlad/stepflow/internal/hclconf"
	"github.com/specialistvlad/stepflow/internal/materialize"
	"github.com/specialistvlad/stepflow/internal/registry"
	"github.com/specialistvlad/stepflow/internal/runcache"
	"github.com/specialistvlad/stepflow/internal/step"
)

// Module is a package of compiled-in steps. Register attaches the
// module's hooks and materializers to the registry and returns the
// module's step definitions.
type Module interface {
	Register(reg *registry.Registry) ([]*step.Definition, error)
}

// App encapsulates one application instance: its logger, registry, and the
// fully configured step definitions.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	config   *Config
	steps    []*step.Definition
}

// NewApp builds a fully initialized App: logger, registry with built-in
// materializers, step modules, and, when a pipeline path is configured,
// the HCL overrides layered on top. All configuration errors surface here,
// before anything runs.
func NewApp(outW io.Writer, cfg *Config, modules ...Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	materialize.RegisterBuiltins(reg)

	var steps []*step.Definition
	for _, mod := range modules {
		defs, err := mod.Register(reg)
		if err != nil {
			return nil, fmt.Errorf("registering step module: %w", err)
		}
		steps = append(steps, defs...)
	}
	logger.Debug("Step modules registered.", "modules", len(modules), "steps", len(steps))

	if cfg.PipelinePath != "" {
		overlay, err := hclconf.Load(cfg.PipelinePath)
		if err != nil {
			return nil, fmt.Errorf("loading pipeline overrides: %w", err)
		}
		steps, err = overlay.Apply(reg, steps)
		if err != nil {
			return nil, fmt.Errorf("applying pipeline overrides: %w", err)
		}
		logger.Debug("Pipeline overrides applied.", "overrides", len(overlay.Overrides()))
	}

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		config:   cfg,
		steps:    steps,
	}, nil
}

// Registry returns the application's registry. Primarily for testing.
func (a *App) Registry() *registry.Registry { return a.registry }

// Steps returns the fully configured step definitions in execution order.
func (a *App) Steps() []*step.Definition {
	return append([]*step.Definition(nil), a.steps...)
}

// Run executes the configured steps through the local engine.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run started.", "steps", len(a.steps))

	if len(a.steps) == 0 {
		a.logger.Warn("No steps configured, nothing to run.")
		return nil
	}

	exec := executor.New(a.registry, runcache.New(),
		executor.WithOutputDir(a.config.OutputDir),
	)
	a.logger.Info("🚀 Starting pipeline run.", "steps", len(a.steps))
	if err := exec.Run(ctx, a.steps); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Pipeline run finished.")
	return nil
}
