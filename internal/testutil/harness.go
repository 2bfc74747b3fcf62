// Package testutil provides the shared harness for integration-style
// tests: a thread-safe log buffer and a helper that stands up a full App
// from in-memory pipeline files.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/stepflow/internal/app"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements io.Writer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements fmt.Stringer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of a pipeline test run.
type HarnessResult struct {
	LogOutput string
	OutputDir string
	Err       error
	App       *app.App
}

// RunPipelineTest stands up an App from the given step modules and
// in-memory pipeline files, runs it to completion, and returns the
// combined outcome. Files are written relative to a fresh temporary
// directory; the map may be empty to run with no overrides.
func RunPipelineTest(t *testing.T, files map[string]string, modules ...app.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	pipelineDir := filepath.Join(tmpDir, "pipeline")
	outputDir := filepath.Join(tmpDir, "out")
	require.NoError(t, os.Mkdir(pipelineDir, 0o755))

	for name, content := range files {
		path := filepath.Join(pipelineDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg, err := app.NewConfig(app.Config{
		OutputDir: outputDir,
		LogFormat: "text",
		LogLevel:  "debug",
	})
	require.NoError(t, err)
	if len(files) > 0 {
		cfg.PipelinePath = pipelineDir
	}

	logBuffer := &SafeBuffer{}
	testApp, err := app.NewApp(logBuffer, cfg, modules...)
	if err != nil {
		return &HarnessResult{LogOutput: logBuffer.String(), OutputDir: outputDir, Err: err}
	}

	runErr := testApp.Run(context.Background())
	return &HarnessResult{
		LogOutput: logBuffer.String(),
		OutputDir: outputDir,
		Err:       runErr,
		App:       testApp,
	}
}
