// Package steperr defines the error taxonomy shared by the step
// configuration and profiling packages.
//
// Why distinct error types instead of sentinel values?
//
// Callers need to distinguish *when* an error can occur, not just what
// produced it. Configuration and identity errors are raised synchronously
// while a step definition is being built, before anything runs, and abort
// pipeline construction entirely. Resource and profiling errors are raised
// during a run and surface as a failed step. Each category carries the
// context a caller actually needs (the offending option name, the resource
// that failed to initialize) and wraps its cause so errors.Is/As keep
// working through the chain.
package steperr

import "fmt"

// ConfigurationError reports an invalid or ambiguous step configuration
// value. It is raised while a step definition is being built and names the
// option that caused it.
type ConfigurationError struct {
	// Option is the configuration surface option that was rejected,
	// e.g. "output_materializers" or "on_failure".
	Option string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid step configuration for %q: %v", e.Option, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewConfiguration builds a ConfigurationError for the named option.
func NewConfiguration(option, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Option: option, Err: fmt.Errorf(format, args...)}
}

// ResourceInitError reports a failure to construct an external resource,
// such as a profiling session. No retry is attempted at this layer.
type ResourceInitError struct {
	// Resource identifies what failed to come up, e.g. "profiling session".
	Resource string
	Err      error
}

func (e *ResourceInitError) Error() string {
	return fmt.Sprintf("failed to initialize %s: %v", e.Resource, e.Err)
}

func (e *ResourceInitError) Unwrap() error { return e.Err }

// ProfilingError reports that a dataset could not be profiled. It
// propagates to the execution engine unmodified; hook dispatch is the only
// escape valve.
type ProfilingError struct {
	Dataset string
	Err     error
}

func (e *ProfilingError) Error() string {
	return fmt.Sprintf("failed to profile dataset %q: %v", e.Dataset, e.Err)
}

func (e *ProfilingError) Unwrap() error { return e.Err }

// IdentityResolutionError reports that no usable step identity was
// available. Given the default-resolution rules this should not occur in
// practice; it exists so the failure mode is explicit rather than an empty
// string silently flowing through the system.
type IdentityResolutionError struct {
	Err error
}

func (e *IdentityResolutionError) Error() string {
	return fmt.Sprintf("could not resolve a step identity: %v", e.Err)
}

func (e *IdentityResolutionError) Unwrap() error { return e.Err }
