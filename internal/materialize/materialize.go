// Package materialize ships the built-in materializers: minimal artifact
// sinks that persist step outputs to the local filesystem.
//
// Materializer semantics beyond these built-ins are out of scope; they
// exist so that a locally executed pipeline produces inspectable artifacts
// and so the registry and binding machinery have real implementations to
// exercise.
package materialize

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/specialistvlad/stepflow/internal/profiling"
	"github.com/specialistvlad/stepflow/internal/registry"
)

// Built-in materializer names.
const (
	JSONName    = "json"
	ProfileName = "profile"
)

// RegisterBuiltins registers the built-in materializers.
func RegisterBuiltins(r *registry.Registry) {
	r.RegisterMaterializer(JSONName, &JSON{})
	r.RegisterMaterializer(ProfileName, &Profile{})
}

// JSON persists any JSON-encodable output as an indented .json file under
// <dir>/<step>/<output>.json.
type JSON struct{}

// Materialize implements registry.Materializer.
func (m *JSON) Materialize(ctx context.Context, dir, stepName, outputName string, value any) (string, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding output %q of step %q: %w", outputName, stepName, err)
	}
	return writeArtifact(ctx, dir, stepName, outputName+".json", data)
}

// Profile persists a profiling.ProfileResult: the finalized tag set and the
// per-column statistical payload, as one JSON document.
type Profile struct{}

// Materialize implements registry.Materializer. The value must be a
// *profiling.ProfileResult.
func (m *Profile) Materialize(ctx context.Context, dir, stepName, outputName string, value any) (string, error) {
	result, ok := value.(*profiling.ProfileResult)
	if !ok {
		return "", fmt.Errorf("profile materializer needs a *profiling.ProfileResult, got %T", value)
	}
	doc := struct {
		Dataset   string                              `json:"dataset"`
		Timestamp string                              `json:"timestamp"`
		Tags      map[string]string                   `json:"tags"`
		Columns   map[string]*profiling.ColumnProfile `json:"columns"`
	}{
		Dataset:   result.DatasetName(),
		Timestamp: result.Timestamp().UTC().Format(time.RFC3339),
		Tags:      result.Tags(),
		Columns:   result.Columns(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding profile of step %q: %w", stepName, err)
	}
	return writeArtifact(ctx, dir, stepName, outputName+".profile.json", data)
}

func writeArtifact(ctx context.Context, dir, stepName, fileName string, data []byte) (string, error) {
	stepDir := filepath.Join(dir, stepName)
	if err := os.MkdirAll(stepDir, 0o755); err != nil {
		return "", fmt.Errorf("creating artifact directory: %w", err)
	}
	path := filepath.Join(stepDir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Artifact written.", "path", path)
	return path, nil
}
