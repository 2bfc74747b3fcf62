package profiling

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/stepflow/internal/dataset"
	"github.com/specialistvlad/stepflow/internal/steperr"
)

// Writer is an output sink a session can forward finalized profiles to.
// Step-scoped sessions are constructed without writers, since persistence
// is delegated to the downstream materializer, but the sink contract lives
// here so other session owners can attach one.
type Writer interface {
	WriteProfile(ctx context.Context, p *ProfileResult) error
}

// Session is the external stateful resource behind a resource-scoped step
// context. It groups all profiles logged during one step run under a
// project and grouping key.
//
// A session is exclusively owned by the context that created it and is
// never shared across runs or step identities.
type Session struct {
	project  string
	grouping string
	writers  []Writer
}

// NewSession constructs a profiling session. The project name is required;
// writers are optional output sinks invoked when a logger is closed.
func NewSession(project, grouping string, writers ...Writer) (*Session, error) {
	if project == "" {
		return nil, fmt.Errorf("session requires a non-empty project name")
	}
	if grouping == "" {
		grouping = project
	}
	return &Session{project: project, grouping: grouping, writers: writers}, nil
}

// Project returns the session's project name.
func (s *Session) Project() string { return s.project }

// Grouping returns the session's grouping key.
func (s *Session) Grouping() string { return s.grouping }

// Logger opens a profiling logger scoped to one dataset. A zero timestamp
// defaults to the current time. The tag map is copied; the caller's map is
// never retained or mutated.
func (s *Session) Logger(datasetName string, timestamp time.Time, tags map[string]string) (*Logger, error) {
	if datasetName == "" {
		return nil, fmt.Errorf("logger requires a non-empty dataset name")
	}
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	copied := make(map[string]string, len(tags))
	for k, v := range tags {
		copied[k] = v
	}
	return &Logger{
		session:     s,
		datasetName: datasetName,
		timestamp:   timestamp,
		tags:        copied,
		columns:     make(map[string]*accumulator),
	}, nil
}

// Logger accumulates statistics for one dataset until closed.
type Logger struct {
	session     *Session
	datasetName string
	timestamp   time.Time
	tags        map[string]string
	columns     map[string]*accumulator
	closed      bool
}

// LogTable feeds the structured content of a table into the logger. Only
// scalar cell values are profilable; a column containing nested structures
// fails with a ProfilingError.
func (l *Logger) LogTable(t *dataset.Table) error {
	if l.closed {
		return &steperr.ProfilingError{
			Dataset: l.datasetName,
			Err:     fmt.Errorf("logger is already closed"),
		}
	}
	if t == nil {
		return &steperr.ProfilingError{
			Dataset: l.datasetName,
			Err:     fmt.Errorf("no dataset given"),
		}
	}
	for _, name := range t.Columns() {
		acc, ok := l.columns[name]
		if !ok {
			acc = newAccumulator()
			l.columns[name] = acc
		}
		values, _ := t.Column(name)
		for _, v := range values {
			if err := acc.observe(v); err != nil {
				return &steperr.ProfilingError{
					Dataset: l.datasetName,
					Err:     fmt.Errorf("column %q: %w", name, err),
				}
			}
		}
	}
	return nil
}

// Close finalizes the accumulated statistics, forwards the profile to the
// session's writers, and returns it. A logger can only be closed once.
func (l *Logger) Close(ctx context.Context) (*ProfileResult, error) {
	if l.closed {
		return nil, &steperr.ProfilingError{
			Dataset: l.datasetName,
			Err:     fmt.Errorf("logger is already closed"),
		}
	}
	l.closed = true

	columns := make(map[string]*ColumnProfile, len(l.columns))
	for name, acc := range l.columns {
		columns[name] = acc.finalize()
	}
	result := &ProfileResult{
		datasetName: l.datasetName,
		timestamp:   l.timestamp,
		tags:        l.tags,
		columns:     columns,
	}

	for _, w := range l.session.writers {
		if err := w.WriteProfile(ctx, result); err != nil {
			return nil, &steperr.ProfilingError{
				Dataset: l.datasetName,
				Err:     fmt.Errorf("writing profile: %w", err),
			}
		}
	}
	return result, nil
}

// accumulator tracks running statistics for one column.
type accumulator struct {
	total    int64
	nulls    int64
	distinct map[any]struct{}
	numeric  NumericStats
	sum      float64
	strings  StringStats
	bools    BoolStats
}

func newAccumulator() *accumulator {
	return &accumulator{distinct: make(map[any]struct{})}
}

func (a *accumulator) observe(v any) error {
	a.total++
	if v == nil {
		a.nulls++
		return nil
	}

	switch val := v.(type) {
	case bool:
		a.bools.Count++
		if val {
			a.bools.TrueCount++
		}
	case string:
		if a.strings.Count == 0 || len(val) < a.strings.MinLen {
			a.strings.MinLen = len(val)
		}
		if len(val) > a.strings.MaxLen {
			a.strings.MaxLen = len(val)
		}
		a.strings.Count++
	case float64:
		a.observeNumber(val)
	case float32:
		a.observeNumber(float64(val))
	case int:
		a.observeNumber(float64(val))
	case int32:
		a.observeNumber(float64(val))
	case int64:
		a.observeNumber(float64(val))
	case uint:
		a.observeNumber(float64(val))
	case uint32:
		a.observeNumber(float64(val))
	case uint64:
		a.observeNumber(float64(val))
	default:
		// Unhashable values must never reach the distinct set below.
		return fmt.Errorf("unsupported value type %T", v)
	}
	a.distinct[v] = struct{}{}
	return nil
}

func (a *accumulator) observeNumber(n float64) {
	if a.numeric.Count == 0 || n < a.numeric.Min {
		a.numeric.Min = n
	}
	if a.numeric.Count == 0 || n > a.numeric.Max {
		a.numeric.Max = n
	}
	a.numeric.Count++
	a.sum += n
}

func (a *accumulator) finalize() *ColumnProfile {
	profile := &ColumnProfile{
		Total:    a.total,
		Nulls:    a.nulls,
		Distinct: int64(len(a.distinct)),
	}
	if a.numeric.Count > 0 {
		stats := a.numeric
		stats.Mean = a.sum / float64(stats.Count)
		profile.Numeric = &stats
	}
	if a.strings.Count > 0 {
		stats := a.strings
		profile.Strings = &stats
	}
	if a.bools.Count > 0 {
		stats := a.bools
		profile.Bools = &stats
	}
	return profile
}
