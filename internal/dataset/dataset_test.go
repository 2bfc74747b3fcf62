package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadSchemas(t *testing.T) {
	_, err := New()
	require.Error(t, err)

	_, err = New("a", "a")
	require.Error(t, err)

	_, err = New("a", "")
	require.Error(t, err)
}

func TestAppendRowChecksArity(t *testing.T) {
	table, err := New("a", "b")
	require.NoError(t, err)

	require.NoError(t, table.AppendRow(1, 2))
	require.Error(t, table.AppendRow(1))
	assert.Equal(t, 1, table.NumRows())
}

func TestColumnReturnsValuesInRowOrder(t *testing.T) {
	table, err := New("name", "amount")
	require.NoError(t, err)
	require.NoError(t, table.AppendRow("x", 1.0))
	require.NoError(t, table.AppendRow("y", 2.0))

	values, ok := table.Column("amount")
	require.True(t, ok)
	assert.Equal(t, []any{1.0, 2.0}, values)

	_, ok = table.Column("missing")
	assert.False(t, ok)
}

func TestFromRecordsUnionsAndSortsColumns(t *testing.T) {
	table, err := FromRecords([]map[string]any{
		{"b": 1, "a": "x"},
		{"c": true},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, table.Columns())
	assert.Equal(t, 2, table.NumRows())

	values, ok := table.Column("a")
	require.True(t, ok)
	assert.Equal(t, []any{"x", nil}, values)
}

func TestReadCSVCoercesCells(t *testing.T) {
	input := "id,amount,express,note\n1,12.5,true,hello\n2,,false,\n"
	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "amount", "express", "note"}, table.Columns())
	assert.Equal(t, 2, table.NumRows())

	amounts, _ := table.Column("amount")
	assert.Equal(t, []any{12.5, nil}, amounts)

	express, _ := table.Column("express")
	assert.Equal(t, []any{true, false}, express)

	notes, _ := table.Column("note")
	assert.Equal(t, []any{"hello", nil}, notes)
}
