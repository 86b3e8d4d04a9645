// pkg/classifier/report.go
package classifier

import (
	"fmt"
	"slices"

	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// ColumnReport holds one column's classification: for each diagnostic, the
// (row id, value) pairs where it was true, in table row order
type ColumnReport struct {
	Column  string
	Domain  model.Domain
	Backend string
	Rows    int

	order   []string
	matches map[string][]model.Entry
}

func newColumnReport(column string, domain model.Domain, backendName string, rows int) ColumnReport {
	return ColumnReport{
		Column:  column,
		Domain:  domain,
		Backend: backendName,
		Rows:    rows,
		matches: make(map[string][]model.Entry),
	}
}

func (r *ColumnReport) set(name string, entries []model.Entry) {
	if _, ok := r.matches[name]; !ok {
		r.order = append(r.order, name)
	}
	r.matches[name] = entries
}

// Diagnostics returns the evaluated diagnostic names in catalog order
func (r ColumnReport) Diagnostics() []string {
	return slices.Clone(r.order)
}

// Get returns the entries a diagnostic matched
func (r ColumnReport) Get(name string) []model.Entry {
	return slices.Clone(r.matches[name])
}

// Has reports whether the diagnostic was evaluated for this column
func (r ColumnReport) Has(name string) bool {
	_, ok := r.matches[name]
	return ok
}

// RowIDs returns the row ids a diagnostic matched
func (r ColumnReport) RowIDs(name string) []int64 {
	entries := r.matches[name]
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.RowID
	}
	return ids
}

// Count returns how many cells a diagnostic matched
func (r ColumnReport) Count(name string) int {
	return len(r.matches[name])
}

// Counts returns diagnostic name to match count
func (r ColumnReport) Counts() map[string]int {
	counts := make(map[string]int, len(r.matches))
	for name, entries := range r.matches {
		counts[name] = len(entries)
	}
	return counts
}

// Report maps column to diagnostic to matched entries. It is built fresh by
// every classify call and never mutated by consumers.
type Report struct {
	order   []string
	columns map[string]ColumnReport
}

// NewReport creates an empty report
func NewReport() *Report {
	return &Report{columns: make(map[string]ColumnReport)}
}

// Add inserts one column's report. A column already present is an error.
func (r *Report) Add(cr ColumnReport) error {
	if _, dup := r.columns[cr.Column]; dup {
		return fmt.Errorf("report already has column %q", cr.Column)
	}
	r.columns[cr.Column] = cr
	r.order = append(r.order, cr.Column)
	return nil
}

// Merge adds other's columns to r. Reports from disjoint column sets merge by
// union; a column present in both is an error.
func (r *Report) Merge(other *Report) error {
	if other == nil {
		return nil
	}
	for _, name := range other.order {
		if _, dup := r.columns[name]; dup {
			return fmt.Errorf("cannot merge reports: column %q present in both", name)
		}
	}
	for _, name := range other.order {
		_ = r.Add(other.columns[name])
	}
	return nil
}

// Columns returns the classified columns in request order
func (r *Report) Columns() []string {
	return slices.Clone(r.order)
}

// ForColumn returns one column's report
func (r *Report) ForColumn(name string) (ColumnReport, bool) {
	cr, ok := r.columns[name]
	return cr, ok
}

// Diagnostic returns the entries matched by a diagnostic in a column
func (r *Report) Diagnostic(column, name string) []model.Entry {
	cr, ok := r.columns[column]
	if !ok {
		return nil
	}
	return cr.Get(name)
}

// Counts returns column to diagnostic to match count
func (r *Report) Counts() map[string]map[string]int {
	counts := make(map[string]map[string]int, len(r.columns))
	for name, cr := range r.columns {
		counts[name] = cr.Counts()
	}
	return counts
}

// Len returns the number of classified columns
func (r *Report) Len() int {
	return len(r.order)
}
