// Package profiling implements the resource-scoped step capability: a
// lazily-created statistical profiling session owned by exactly one step
// run, and the dataset-logging operation that produces profile artifacts.
package profiling

import (
	"time"
)

// NumericStats summarizes the numeric values observed in one column.
type NumericStats struct {
	Count int64
	Min   float64
	Max   float64
	Mean  float64
}

// StringStats summarizes the string values observed in one column.
type StringStats struct {
	Count  int64
	MinLen int
	MaxLen int
}

// BoolStats summarizes the boolean values observed in one column.
type BoolStats struct {
	Count     int64
	TrueCount int64
}

// ColumnProfile holds the finalized statistics of a single column.
type ColumnProfile struct {
	Total    int64
	Nulls    int64
	Distinct int64
	Numeric  *NumericStats
	Strings  *StringStats
	Bools    *BoolStats
}

// ProfileResult is the immutable artifact produced by closing a profiling
// logger. It carries the finalized tag set and the statistical payload.
// Ownership passes to the caller; any further persistence is the caller's
// responsibility.
type ProfileResult struct {
	datasetName string
	timestamp   time.Time
	tags        map[string]string
	columns     map[string]*ColumnProfile
}

// DatasetName returns the name the profile was logged under.
func (p *ProfileResult) DatasetName() string { return p.datasetName }

// Timestamp returns the timestamp associated with the profile.
func (p *ProfileResult) Timestamp() time.Time { return p.timestamp }

// Tags returns a copy of the finalized tag set.
func (p *ProfileResult) Tags() map[string]string {
	out := make(map[string]string, len(p.tags))
	for k, v := range p.tags {
		out[k] = v
	}
	return out
}

// Columns returns the per-column statistics. The returned map is a copy;
// the profiles themselves are finalized and must not be modified.
func (p *ProfileResult) Columns() map[string]*ColumnProfile {
	out := make(map[string]*ColumnProfile, len(p.columns))
	for k, v := range p.columns {
		out[k] = v
	}
	return out
}
