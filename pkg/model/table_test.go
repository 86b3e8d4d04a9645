package model

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable([]int64{10, 4, 7},
		NewColumn("price", DomainNumeric, Strings("1,200", "", "N/A")...),
		NewColumn("name", DomainText, String("ann"), Null(), String("bob")),
	)
	require.NoError(t, err)
	return table
}

func TestNewTable(t *testing.T) {
	dense, err := NewTable(nil, NewColumn("a", DomainText, Strings("x", "y")...))
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1}, dense.RowIDs())

	empty, err := NewTable(nil)
	require.NoError(t, err)
	assert.Zero(t, empty.Len())

	tests := []struct {
		name   string
		rowIDs []int64
		cols   []Column
	}{
		{"duplicate row id", []int64{1, 1}, []Column{NewColumn("a", DomainText, Strings("x", "y")...)}},
		{"duplicate column", nil, []Column{NewColumn("a", DomainText), NewColumn("a", DomainText)}},
		{"empty name", nil, []Column{NewColumn("", DomainText)}},
		{"ragged", nil, []Column{NewColumn("a", DomainText, Strings("x")...), NewColumn("b", DomainText)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.rowIDs, tt.cols...)
			assert.Error(t, err)
		})
	}
}

func TestTableCopiesCells(t *testing.T) {
	cells := Strings("x", "y")
	table := MustNewTable(nil, NewColumn("a", DomainText, cells...))
	cells[0] = String("changed")

	col, _ := table.Column("a")
	assert.Equal(t, String("x"), col.Cells[0])

	col.Cells[1] = String("changed")
	again, _ := table.Column("a")
	assert.Equal(t, String("y"), again.Cells[1])
}

func TestEntriesKeepRowIdentity(t *testing.T) {
	table := sampleTable(t)

	entries, err := table.Entries("name")
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{RowID: 10, Value: String("ann")},
		{RowID: 4, Value: Null()},
		{RowID: 7, Value: String("bob")},
	}, entries)

	_, err = table.Entries("missing")
	var unknown *UnknownColumnError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.Column)

	cell, ok := table.Cell("price", 7)
	require.True(t, ok)
	assert.Equal(t, String("N/A"), cell)
	_, ok = table.Cell("price", 99)
	assert.False(t, ok)
}

func TestSelectKeepsRowIDs(t *testing.T) {
	table := sampleTable(t)

	sub, err := table.Select("name")
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, sub.ColumnNames())
	assert.Equal(t, []int64{10, 4, 7}, sub.RowIDs())

	_, err = table.Select("name", "nope")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestRestoreIndex(t *testing.T) {
	table := sampleTable(t)

	got := table.RestoreIndex([]Entry{
		{RowID: 7, Value: String("N/A")},
		{RowID: 99, Value: String("stray")},
		{RowID: 10, Value: String("1,200")},
	})
	assert.Equal(t, []Entry{
		{RowID: 10, Value: String("1,200")},
		{RowID: 7, Value: String("N/A")},
	}, got)
}

func TestSetCellsAndClone(t *testing.T) {
	table := sampleTable(t)
	clone := table.Clone()

	require.NoError(t, table.SetCells("price", Strings("1200", "", "0")))
	assert.ErrorIs(t, table.SetCells("nope", nil), ErrUnknownColumn)
	assert.Error(t, table.SetCells("price", Strings("1")))

	original, _ := clone.Column("price")
	assert.Equal(t, Strings("1,200", "", "N/A"), original.Cells)
}

func TestCellStates(t *testing.T) {
	assert.False(t, Null().Equal(String("")))
	assert.False(t, String("").Equal(String("UNKNOWN")))
	assert.NotEqual(t, Null().Key(), String("").Key())
	assert.True(t, Number(math.NaN()).IsNull())

	assert.Equal(t, "1200", Number(1200).Text())
	assert.Equal(t, "0.5", Number(0.5).Text())
	assert.NotEqual(t, String("3").Key(), Number(3).Key())

	utc := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-15 09:30:00", Time(utc).Text())
	assert.Equal(t, "2024-01-15T09:30:00.25Z", Time(utc.Add(250*time.Millisecond)).Text())

	paris := utc.In(time.FixedZone("CET", 3600))
	assert.True(t, Time(utc).Equal(Time(paris)))
	assert.Equal(t, Time(utc).Key(), Time(paris).Key())
}

func TestParseDomain(t *testing.T) {
	for name, want := range map[string]Domain{
		"Numeric": DomainNumeric, " string ": DomainText, "timestamp": DomainDatetime,
	} {
		got, err := ParseDomain(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseDomain("geo")
	assert.Error(t, err)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		err   error
		want  ErrorCategory
		fatal bool
	}{
		{nil, ErrorCategoryNone, false},
		{&TransformError{Stage: "s", Err: errors.New("boom")}, ErrorCategoryCellLevel, false},
		{&UnknownColumnError{Column: "c"}, ErrorCategoryLookup, true},
		{&UnknownDiagnosticError{Name: "d"}, ErrorCategoryLookup, true},
		{&ConfigurationError{Component: "catalog", Reason: "empty"}, ErrorCategoryConfiguration, true},
		{fmt.Errorf("run: %w", &BackendConversionError{Backend: "arrow", Err: errors.New("mixed")}), ErrorCategoryBackend, true},
		{errors.New("other"), ErrorCategoryUnknown, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Categorize(tt.err), "%v", tt.err)
		assert.Equal(t, tt.fatal, IsFatal(tt.err), "%v", tt.err)
	}
}

func TestColumnOutcomeTotals(t *testing.T) {
	o := ColumnOutcome{Stages: []StageOutcome{
		{StageName: "strip_spaces", Matched: 3, Changed: 3},
		{StageName: "strip_symbols", Matched: 2, Changed: 1, NotCleaned: 1},
	}}
	assert.Equal(t, 4, o.Changed())
	assert.Equal(t, 1, o.NotCleaned())
}
