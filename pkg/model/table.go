// pkg/model/table.go
package model

import (
	"errors"
	"fmt"
	"slices"
)

// Entry pairs a row id with the value found at that row
type Entry struct {
	RowID int64
	Value Cell
}

// Column is a named, ordered sequence of cells
type Column struct {
	Name   string
	Domain Domain
	Cells  []Cell
}

// NewColumn creates a column from cells
func NewColumn(name string, domain Domain, cells ...Cell) Column {
	return Column{Name: name, Domain: domain, Cells: cells}
}

// Len returns the number of cells in the column
func (c Column) Len() int {
	return len(c.Cells)
}

// Table is an ordered collection of named columns sharing one row-id space.
// Row ids are unique and survive every operation that does not reindex.
type Table struct {
	rowIDs  []int64
	rowPos  map[int64]int
	columns []Column
	byName  map[string]int
}

// NewTable creates a table. A nil rowIDs slice yields dense ids 0..n-1.
func NewTable(rowIDs []int64, cols ...Column) (*Table, error) {
	n := len(rowIDs)
	if rowIDs == nil && len(cols) > 0 {
		n = cols[0].Len()
	}

	t := &Table{
		rowIDs:  make([]int64, n),
		rowPos:  make(map[int64]int, n),
		columns: make([]Column, 0, len(cols)),
		byName:  make(map[string]int, len(cols)),
	}

	for i := 0; i < n; i++ {
		id := int64(i)
		if rowIDs != nil {
			id = rowIDs[i]
		}
		if _, dup := t.rowPos[id]; dup {
			return nil, fmt.Errorf("duplicate row id %d", id)
		}
		t.rowIDs[i] = id
		t.rowPos[id] = i
	}

	for _, col := range cols {
		if col.Name == "" {
			return nil, errors.New("column name cannot be empty")
		}
		if _, dup := t.byName[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", col.Name)
		}
		if col.Len() != n {
			return nil, fmt.Errorf("column %q has %d cells, table has %d rows", col.Name, col.Len(), n)
		}
		t.byName[col.Name] = len(t.columns)
		t.columns = append(t.columns, Column{
			Name:   col.Name,
			Domain: col.Domain,
			Cells:  slices.Clone(col.Cells),
		})
	}

	return t, nil
}

// MustNewTable is NewTable that panics on error. Intended for tests and fixtures.
func MustNewTable(rowIDs []int64, cols ...Column) *Table {
	t, err := NewTable(rowIDs, cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rowIDs)
}

// RowIDs returns a copy of the row ids in table order
func (t *Table) RowIDs() []int64 {
	return slices.Clone(t.rowIDs)
}

// HasRow reports whether id belongs to the table
func (t *Table) HasRow(id int64) bool {
	_, ok := t.rowPos[id]
	return ok
}

// ColumnNames returns the column names in table order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name
	}
	return names
}

// Columns returns copies of all columns
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	for i, col := range t.columns {
		out[i] = Column{Name: col.Name, Domain: col.Domain, Cells: slices.Clone(col.Cells)}
	}
	return out
}

// HasColumn reports whether the table has a column with the given name
func (t *Table) HasColumn(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Column returns a copy of the named column
func (t *Table) Column(name string) (Column, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return Column{}, false
	}
	col := t.columns[idx]
	return Column{Name: col.Name, Domain: col.Domain, Cells: slices.Clone(col.Cells)}, true
}

// Cell returns the value at a row id in a column
func (t *Table) Cell(column string, rowID int64) (Cell, bool) {
	idx, ok := t.byName[column]
	if !ok {
		return Cell{}, false
	}
	pos, ok := t.rowPos[rowID]
	if !ok {
		return Cell{}, false
	}
	return t.columns[idx].Cells[pos], true
}

// Entries returns the column as an ordered (row id, value) sequence
func (t *Table) Entries(column string) ([]Entry, error) {
	idx, ok := t.byName[column]
	if !ok {
		return nil, &UnknownColumnError{Column: column}
	}

	cells := t.columns[idx].Cells
	entries := make([]Entry, len(cells))
	for i, cell := range cells {
		entries[i] = Entry{RowID: t.rowIDs[i], Value: cell}
	}
	return entries, nil
}

// Select returns a new table holding only the named columns, same row ids
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		col, ok := t.Column(name)
		if !ok {
			return nil, &UnknownColumnError{Column: name}
		}
		cols = append(cols, col)
	}
	return NewTable(t.rowIDs, cols...)
}

// SetCells replaces the cells of a column. Lengths must match the table.
func (t *Table) SetCells(column string, cells []Cell) error {
	idx, ok := t.byName[column]
	if !ok {
		return &UnknownColumnError{Column: column}
	}
	if len(cells) != len(t.rowIDs) {
		return fmt.Errorf("column %q: got %d cells, table has %d rows", column, len(cells), len(t.rowIDs))
	}
	t.columns[idx].Cells = slices.Clone(cells)
	return nil
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	clone, _ := NewTable(t.rowIDs, t.columns...)
	return clone
}

// RestoreIndex orders entries by the table's row order and drops any entry
// whose row id the table does not own
func (t *Table) RestoreIndex(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if _, ok := t.rowPos[e.RowID]; ok {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b Entry) int {
		return t.rowPos[a.RowID] - t.rowPos[b.RowID]
	})
	return out
}
