package app

// Config holds everything an App instance needs to run.
type Config struct {
	// PipelinePath points at an .hcl override file or a directory of them.
	// Empty means the compiled-in step configuration runs unmodified.
	PipelinePath string

	// OutputDir is where materialized artifacts land.
	OutputDir string

	LogFormat string
	LogLevel  string
}

// NewConfig validates and returns the configuration. Field-level validation
// of log options happens in the CLI layer where the values originate.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "out"
	}
	return &cfg, nil
}
