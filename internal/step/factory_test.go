package step

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/stepflow/internal/profiling"
	"github.com/specialistvlad/stepflow/internal/steperr"
)

func ExtractBatch(ctx context.Context) (map[string]any, error) {
	return nil, nil
}

func ProfileBatch(pctx *profiling.Context) error {
	return nil
}

func TestNameDefaultsToEntrypointName(t *testing.T) {
	reg := newTestRegistry(t)

	def, err := New(reg, ExtractBatch)
	require.NoError(t, err)
	assert.Equal(t, "ExtractBatch", def.Name())
}

func TestExplicitNameWins(t *testing.T) {
	reg := newTestRegistry(t)

	def, err := New(reg, ExtractBatch, WithName("extract_orders"))
	require.NoError(t, err)
	assert.Equal(t, "extract_orders", def.Name())
}

func TestEntrypointMustBeAFunction(t *testing.T) {
	reg := newTestRegistry(t)

	for _, entrypoint := range []any{nil, "not a func", 42} {
		_, err := New(reg, entrypoint)
		require.Error(t, err)

		var cfgErr *steperr.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "entrypoint", cfgErr.Option)
	}
}

func TestCachingDefaultsByCapability(t *testing.T) {
	reg := newTestRegistry(t)

	plain, err := New(reg, ExtractBatch)
	require.NoError(t, err)
	assert.True(t, plain.EnableCache())
	assert.False(t, plain.ResourceScoped())

	scoped, err := New(reg, ProfileBatch)
	require.NoError(t, err)
	assert.False(t, scoped.EnableCache())
	assert.True(t, scoped.ResourceScoped())
}

func TestExplicitCacheOverridesCapabilityDefault(t *testing.T) {
	reg := newTestRegistry(t)

	scoped, err := New(reg, ProfileBatch, WithCache(true))
	require.NoError(t, err)
	assert.True(t, scoped.EnableCache())
	assert.True(t, scoped.ResourceScoped())

	plain, err := New(reg, ExtractBatch, WithCache(false))
	require.NoError(t, err)
	assert.False(t, plain.EnableCache())
}

func TestConfigureMatchesNew(t *testing.T) {
	reg := newTestRegistry(t)
	opts := []Option{WithName("extract"), WithCache(false), WithOutputs("orders")}

	direct, err := New(reg, ExtractBatch, opts...)
	require.NoError(t, err)
	curried, err := Configure(reg, opts...)(ExtractBatch)
	require.NoError(t, err)

	assert.Equal(t, direct.Name(), curried.Name())
	assert.Equal(t, direct.EnableCache(), curried.EnableCache())
	assert.Equal(t, direct.Outputs(), curried.Outputs())
}

func TestEagerKeyValidationWithDeclaredOutputs(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := New(reg, ExtractBatch,
		WithOutputs("orders"),
		WithOutputMaterializers(map[string]any{"customers": "json"}),
	)
	require.Error(t, err)

	var cfgErr *steperr.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "output_materializers", cfgErr.Option)
}

func TestKeyValidationDeferredWithoutDeclaredOutputs(t *testing.T) {
	reg := newTestRegistry(t)

	def, err := New(reg, ExtractBatch,
		WithOutputMaterializers(map[string]any{"customers": "json"}),
	)
	require.NoError(t, err)
	assert.Empty(t, def.Outputs())
}

func TestMaterializersForFallsBackToWildcard(t *testing.T) {
	reg := newTestRegistry(t)

	def, err := New(reg, ExtractBatch,
		WithOutputs("orders", "customers"),
		WithOutputMaterializers(map[string]any{"orders": "csv"}),
	)
	require.NoError(t, err)

	orders := def.MaterializersFor("orders")
	require.Len(t, orders, 1)
	assert.Equal(t, "csv", orders[0].Name)
	assert.Empty(t, def.MaterializersFor("customers"))

	wildcarded, err := New(reg, ExtractBatch,
		WithOutputs("orders", "customers"),
		WithOutputMaterializers("json"),
	)
	require.NoError(t, err)
	customers := wildcarded.MaterializersFor("customers")
	require.Len(t, customers, 1)
	assert.Equal(t, "json", customers[0].Name)
}

func TestAmendLayersOptionsOverDefinition(t *testing.T) {
	reg := newTestRegistry(t)

	def, err := New(reg, ExtractBatch, WithOutputs("orders"), WithSettings(
		map[string]map[string]any{"docker": {"image": "base"}},
	))
	require.NoError(t, err)

	amended, err := Amend(reg, def, WithCache(false), WithExperimentTracker("mlflow"))
	require.NoError(t, err)

	assert.Equal(t, "ExtractBatch", amended.Name())
	assert.False(t, amended.EnableCache())
	assert.Equal(t, "mlflow", amended.ExperimentTracker())
	assert.Equal(t, []string{"orders"}, amended.Outputs())
	assert.Equal(t, map[string]any{"image": "base"}, amended.Settings()["docker"])

	// The original definition is untouched.
	assert.True(t, def.EnableCache())
	assert.Empty(t, def.ExperimentTracker())
}

func TestHookOptionsResolveThroughRegistry(t *testing.T) {
	reg := newTestRegistry(t)
	reg.RegisterHook("alerts.page", func() {})

	def, err := New(reg, ExtractBatch, OnFailure("alerts.page"), OnSuccess(func() {}))
	require.NoError(t, err)

	assert.Equal(t, "alerts.page", def.OnFailure().Name)
	assert.False(t, def.OnSuccess().IsZero())
}

func TestUnknownHookNameFailsAtBuildTime(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := New(reg, ExtractBatch, OnFailure("missing"))
	require.Error(t, err)

	var cfgErr *steperr.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "on_failure", cfgErr.Option)
}

func TestArtifactFlagsDefaultToUnset(t *testing.T) {
	reg := newTestRegistry(t)

	def, err := New(reg, ExtractBatch)
	require.NoError(t, err)
	assert.Nil(t, def.EnableArtifactMetadata())
	assert.Nil(t, def.EnableArtifactVisualization())

	flagged, err := New(reg, ExtractBatch, WithArtifactMetadata(true), WithArtifactVisualization(false))
	require.NoError(t, err)
	require.NotNil(t, flagged.EnableArtifactMetadata())
	assert.True(t, *flagged.EnableArtifactMetadata())
	require.NotNil(t, flagged.EnableArtifactVisualization())
	assert.False(t, *flagged.EnableArtifactVisualization())
}
