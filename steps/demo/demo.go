// Package demo ships the steps compiled into the stepflow binary: a small
// ingest-and-profile pipeline over a synthetic orders dataset. It doubles
// as the reference for how a step package is expected to look: register
// hooks, then build definitions with the step factory.
package demo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/specialistvlad/stepflow/internal/dataset"
	"github.com/specialistvlad/stepflow/internal/materialize"
	"github.com/specialistvlad/stepflow/internal/profiling"
	"github.com/specialistvlad/stepflow/internal/registry"
	"github.com/specialistvlad/stepflow/internal/step"
	"github.com/specialistvlad/stepflow/internal/stepctx"
)

// Module wires the demo steps into an application instance.
type Module struct{}

// Register registers the demo hooks and returns the demo step definitions.
func (m *Module) Register(reg *registry.Registry) ([]*step.Definition, error) {
	reg.RegisterHook("demo.page_oncall", PageOncall)

	extract, err := step.New(reg, ExtractOrders,
		step.WithName("extract_orders"),
		step.WithOutputs("orders"),
		step.WithOutputMaterializers(materialize.JSONName),
	)
	if err != nil {
		return nil, err
	}

	profile, err := step.New(reg, ProfileOrders,
		step.WithName("profile_orders"),
		step.WithOutputMaterializers(materialize.ProfileName),
		step.OnFailure("demo.page_oncall"),
	)
	if err != nil {
		return nil, err
	}

	return []*step.Definition{extract, profile}, nil
}

// ExtractOrders produces the synthetic orders dataset.
func ExtractOrders(ctx context.Context, sctx *stepctx.Context) (map[string]any, error) {
	sctx.Logger().Info("Extracting orders.")
	t, err := ordersTable()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"columns": t.Columns(),
		"rows":    t.NumRows(),
	}, nil
}

// ProfileOrders logs the orders dataset through the run's profiling
// session and returns the resulting profile artifact.
func ProfileOrders(ctx context.Context, pctx *profiling.Context) (*profiling.ProfileResult, error) {
	t, err := ordersTable()
	if err != nil {
		return nil, err
	}
	return pctx.LogStructuredDataset(ctx, t,
		profiling.WithDatasetName("orders"),
		profiling.WithTags(map[string]string{"source": "demo"}),
	)
}

// PageOncall is the demo failure hook.
func PageOncall(sctx *stepctx.Context, params map[string]any, stepErr error) {
	slog.Warn("🔥 Step failed, paging on-call.", "step", sctx.StepIdentity(), "error", stepErr)
}

func ordersTable() (*dataset.Table, error) {
	t, err := dataset.New("order_id", "region", "amount", "express")
	if err != nil {
		return nil, err
	}
	rows := [][]any{
		{"o-1001", "eu", 129.90, false},
		{"o-1002", "us", 15.00, true},
		{"o-1003", "eu", 88.25, false},
		{"o-1004", "apac", nil, false},
		{"o-1005", "us", 342.10, true},
	}
	for _, row := range rows {
		if err := t.AppendRow(row...); err != nil {
			return nil, fmt.Errorf("building demo dataset: %w", err)
		}
	}
	return t, nil
}
