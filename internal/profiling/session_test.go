package profiling

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/stepflow/internal/dataset"
	"github.com/specialistvlad/stepflow/internal/steperr"
)

func ordersTable(t *testing.T) *dataset.Table {
	t.Helper()
	table, err := dataset.New("id", "amount", "express", "note")
	require.NoError(t, err)
	require.NoError(t, table.AppendRow(1, 10.0, true, "rush"))
	require.NoError(t, table.AppendRow(2, 20.0, false, "rush"))
	require.NoError(t, table.AppendRow(3, nil, true, "standard"))
	return table
}

func TestNewSessionRequiresProject(t *testing.T) {
	_, err := NewSession("", "")
	require.Error(t, err)
}

func TestGroupingDefaultsToProject(t *testing.T) {
	s, err := NewSession("ingest", "")
	require.NoError(t, err)
	assert.Equal(t, "ingest", s.Project())
	assert.Equal(t, "ingest", s.Grouping())

	s, err = NewSession("ingest", "nightly")
	require.NoError(t, err)
	assert.Equal(t, "nightly", s.Grouping())
}

func TestLoggerRequiresDatasetName(t *testing.T) {
	s, err := NewSession("ingest", "")
	require.NoError(t, err)

	_, err = s.Logger("", time.Time{}, nil)
	require.Error(t, err)
}

func TestColumnStatistics(t *testing.T) {
	s, err := NewSession("ingest", "")
	require.NoError(t, err)
	logger, err := s.Logger("orders", time.Time{}, nil)
	require.NoError(t, err)
	require.NoError(t, logger.LogTable(ordersTable(t)))

	result, err := logger.Close(context.Background())
	require.NoError(t, err)

	columns := result.Columns()
	require.Contains(t, columns, "amount")

	amount := columns["amount"]
	assert.Equal(t, int64(3), amount.Total)
	assert.Equal(t, int64(1), amount.Nulls)
	assert.Equal(t, int64(2), amount.Distinct)
	require.NotNil(t, amount.Numeric)
	assert.Equal(t, 10.0, amount.Numeric.Min)
	assert.Equal(t, 20.0, amount.Numeric.Max)
	assert.Equal(t, 15.0, amount.Numeric.Mean)
	assert.Nil(t, amount.Strings)

	express := columns["express"]
	require.NotNil(t, express.Bools)
	assert.Equal(t, int64(3), express.Bools.Count)
	assert.Equal(t, int64(2), express.Bools.TrueCount)

	note := columns["note"]
	assert.Equal(t, int64(2), note.Distinct)
	require.NotNil(t, note.Strings)
	assert.Equal(t, 4, note.Strings.MinLen)
	assert.Equal(t, 8, note.Strings.MaxLen)
}

func TestLogTableAcrossMultipleCalls(t *testing.T) {
	s, err := NewSession("ingest", "")
	require.NoError(t, err)
	logger, err := s.Logger("orders", time.Time{}, nil)
	require.NoError(t, err)

	require.NoError(t, logger.LogTable(ordersTable(t)))
	require.NoError(t, logger.LogTable(ordersTable(t)))

	result, err := logger.Close(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), result.Columns()["id"].Total)
}

func TestUnsupportedCellTypeFails(t *testing.T) {
	table, err := dataset.New("payload")
	require.NoError(t, err)
	require.NoError(t, table.AppendRow(map[string]any{"nested": true}))

	s, err := NewSession("ingest", "")
	require.NoError(t, err)
	logger, err := s.Logger("orders", time.Time{}, nil)
	require.NoError(t, err)

	err = logger.LogTable(table)
	require.Error(t, err)

	var profErr *steperr.ProfilingError
	require.ErrorAs(t, err, &profErr)
	assert.Equal(t, "orders", profErr.Dataset)
}

func TestCloseIsOnceOnly(t *testing.T) {
	s, err := NewSession("ingest", "")
	require.NoError(t, err)
	logger, err := s.Logger("orders", time.Time{}, nil)
	require.NoError(t, err)

	_, err = logger.Close(context.Background())
	require.NoError(t, err)

	_, err = logger.Close(context.Background())
	require.Error(t, err)
	require.Error(t, logger.LogTable(ordersTable(t)))
}

type recordingWriter struct {
	profiles []*ProfileResult
	fail     bool
}

func (w *recordingWriter) WriteProfile(ctx context.Context, p *ProfileResult) error {
	if w.fail {
		return fmt.Errorf("sink unavailable")
	}
	w.profiles = append(w.profiles, p)
	return nil
}

func TestCloseForwardsToWriters(t *testing.T) {
	sink := &recordingWriter{}
	s, err := NewSession("ingest", "", sink)
	require.NoError(t, err)
	logger, err := s.Logger("orders", time.Time{}, nil)
	require.NoError(t, err)
	require.NoError(t, logger.LogTable(ordersTable(t)))

	result, err := logger.Close(context.Background())
	require.NoError(t, err)
	require.Len(t, sink.profiles, 1)
	assert.Same(t, result, sink.profiles[0])
}

func TestWriterFailureSurfacesAsProfilingError(t *testing.T) {
	s, err := NewSession("ingest", "", &recordingWriter{fail: true})
	require.NoError(t, err)
	logger, err := s.Logger("orders", time.Time{}, nil)
	require.NoError(t, err)

	_, err = logger.Close(context.Background())
	require.Error(t, err)

	var profErr *steperr.ProfilingError
	assert.ErrorAs(t, err, &profErr)
}

func TestLoggerTimestampAndTagIsolation(t *testing.T) {
	s, err := NewSession("ingest", "")
	require.NoError(t, err)

	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tags := map[string]string{"source": "demo"}
	logger, err := s.Logger("orders", ts, tags)
	require.NoError(t, err)

	tags["source"] = "mutated"
	result, err := logger.Close(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ts, result.Timestamp())
	assert.Equal(t, "demo", result.Tags()["source"])
}
