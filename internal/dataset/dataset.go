// Package dataset provides the minimal column-oriented table type that the
// profiling logger consumes.
//
// Why a dedicated type instead of []map[string]any?
//
// The profiler needs a stable column order and a cheap way to iterate one
// column at a time. A slice of maps gives neither: ordering is random and
// every row lookup re-hashes the column name. Table keeps the schema fixed
// at construction and stores rows positionally, so appending a row is an
// arity check plus a slice append, and column iteration is an index walk.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Table is an in-memory structured dataset with a fixed set of named
// columns. Cell values are arbitrary; nil marks a missing value.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

// New creates an empty table with the given column names. It returns an
// error if no columns are given or a name repeats.
func New(columns ...string) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("a table requires at least one column")
	}
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if name == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, exists := index[name]; exists {
			return nil, fmt.Errorf("duplicate column name %q", name)
		}
		index[name] = i
	}
	return &Table{columns: append([]string(nil), columns...), index: index}, nil
}

// AppendRow adds one row of cell values in column order.
func (t *Table) AppendRow(values ...any) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.columns))
	}
	t.rows = append(t.rows, append([]any(nil), values...))
	return nil
}

// Columns returns the column names in schema order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// NumRows returns the number of appended rows.
func (t *Table) NumRows() int { return len(t.rows) }

// Column returns all values of the named column in row order, and whether
// the column exists.
func (t *Table) Column(name string) ([]any, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	values := make([]any, len(t.rows))
	for r, row := range t.rows {
		values[r] = row[i]
	}
	return values, true
}

// FromRecords builds a table from row-oriented records. The schema is the
// union of all record keys, sorted for determinism; keys missing from a
// record become nil cells.
func FromRecords(records []map[string]any) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no records given")
	}
	seen := make(map[string]struct{})
	var columns []string
	for _, rec := range records {
		for k := range rec {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)

	t, err := New(columns...)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		row := make([]any, len(columns))
		for i, name := range columns {
			if v, ok := rec[name]; ok {
				row[i] = v
			}
		}
		if err := t.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// ReadCSV builds a table from CSV input. The first record is the header.
// Cells that parse as numbers become float64, "true"/"false" become bool,
// empty cells become nil, and everything else stays a string.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	t, err := New(header...)
	if err != nil {
		return nil, err
	}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		row := make([]any, len(record))
		for i, cell := range record {
			row[i] = coerceCell(cell)
		}
		if err := t.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func coerceCell(cell string) any {
	switch cell {
	case "":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(cell, 64); err == nil {
		return n
	}
	return cell
}
