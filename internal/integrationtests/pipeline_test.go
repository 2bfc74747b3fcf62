package integration_tests

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/stepflow/internal/registry"
	"github.com/specialistvlad/stepflow/internal/step"
	"github.com/specialistvlad/stepflow/internal/testutil"
	"github.com/specialistvlad/stepflow/steps/demo"
)

func TestDemoPipeline_RunsEndToEnd(t *testing.T) {
	result := testutil.RunPipelineTest(t, nil, &demo.Module{})

	require.NoError(t, result.Err)
	assert.Contains(t, result.LogOutput, "Starting pipeline run")
	assert.Contains(t, result.LogOutput, "Pipeline run finished")

	ordersPath := filepath.Join(result.OutputDir, "extract_orders", "orders.json")
	assert.FileExists(t, ordersPath)

	profilePath := filepath.Join(result.OutputDir, "profile_orders", "output.profile.json")
	assert.FileExists(t, profilePath)
}

func TestDemoPipeline_ProfileArtifactCarriesTags(t *testing.T) {
	result := testutil.RunPipelineTest(t, nil, &demo.Module{})
	require.NoError(t, result.Err)

	data, err := os.ReadFile(filepath.Join(result.OutputDir, "profile_orders", "output.profile.json"))
	require.NoError(t, err)

	var doc struct {
		Dataset string            `json:"dataset"`
		Tags    map[string]string `json:"tags"`
		Columns map[string]struct {
			Total int64 `json:"Total"`
			Nulls int64 `json:"Nulls"`
		} `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "orders", doc.Dataset)
	assert.Equal(t, map[string]string{
		"source":        "demo",
		"stepflow.step": "profile_orders",
		"datasetId":     "orders",
	}, doc.Tags)

	amount, ok := doc.Columns["amount"]
	require.True(t, ok)
	assert.Equal(t, int64(5), amount.Total)
	assert.Equal(t, int64(1), amount.Nulls)
}

func TestOverrides_ChangeCachingPolicy(t *testing.T) {
	pipelineHCL := `
step "extract_orders" {
  enable_cache = false
}
`
	result := testutil.RunPipelineTest(t,
		map[string]string{"main.hcl": pipelineHCL}, &demo.Module{})

	require.NoError(t, result.Err)
	require.NotNil(t, result.App)

	for _, def := range result.App.Steps() {
		if def.Name() == "extract_orders" {
			assert.False(t, def.EnableCache())
			return
		}
	}
	t.Fatal("extract_orders not found among configured steps")
}

func TestOverrides_UnknownStepAbortsStartup(t *testing.T) {
	pipelineHCL := `
step "no_such_step" {
  enable_cache = false
}
`
	result := testutil.RunPipelineTest(t,
		map[string]string{"main.hcl": pipelineHCL}, &demo.Module{})

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "no_such_step")
	assert.Nil(t, result.App)
}

func TestOverrides_InvalidHCLIsRejected(t *testing.T) {
	result := testutil.RunPipelineTest(t,
		map[string]string{"main.hcl": `step "extract_orders" {`}, &demo.Module{})

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "loading pipeline overrides")
}

// failingModule registers one step that always fails and pages through its
// failure hook.
type failingModule struct {
	hookFired bool
}

func (m *failingModule) Register(reg *registry.Registry) ([]*step.Definition, error) {
	def, err := step.New(reg, func() error {
		return fmt.Errorf("upstream unavailable")
	},
		step.WithName("flaky_ingest"),
		step.OnFailure(func() { m.hookFired = true }),
	)
	if err != nil {
		return nil, err
	}
	return []*step.Definition{def}, nil
}

func TestStepFailure_FailsRunAndFiresHook(t *testing.T) {
	mod := &failingModule{}
	result := testutil.RunPipelineTest(t, nil, mod)

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), `step "flaky_ingest" failed`)
	assert.True(t, mod.hookFired)
}
