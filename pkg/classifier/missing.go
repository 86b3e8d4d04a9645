// pkg/classifier/missing.go
package classifier

import (
	"math"
	"slices"

	"github.com/TheDucky-2/DataLabX/pkg/model"
	"github.com/TheDucky-2/DataLabX/pkg/pattern"
)

// SummaryMethod selects how MissingSummary reports missing cells
type SummaryMethod string

const (
	SummaryCount   SummaryMethod = "count"
	SummaryPercent SummaryMethod = "percent"
)

// MissingKinds splits one column's missing cells into native nulls and
// placeholder tokens
type MissingKinds struct {
	Native       int
	Placeholders []string // distinct tokens in first-seen order
	Placeholder  int
}

// Total returns the number of missing cells of either kind
func (m MissingKinds) Total() int {
	return m.Native + m.Placeholder
}

// MissingTypes reports, per column, which kinds of missing values occur.
// A nil column list covers the whole table. Columns without missing cells
// are left out of the result.
func MissingTypes(table *model.Table, columns []string, placeholders []string) (map[string]MissingKinds, error) {
	columns, err := resolveColumns(table, columns)
	if err != nil {
		return nil, err
	}

	out := make(map[string]MissingKinds)
	for _, name := range columns {
		col, _ := table.Column(name)
		var kinds MissingKinds
		for _, cell := range col.Cells {
			if cell.IsNull() {
				kinds.Native++
				continue
			}
			s, ok := cell.Str()
			if !ok || !slices.Contains(placeholders, s) {
				continue
			}
			kinds.Placeholder++
			if !slices.Contains(kinds.Placeholders, s) {
				kinds.Placeholders = append(kinds.Placeholders, s)
			}
		}
		if kinds.Total() > 0 {
			out[name] = kinds
		}
	}
	return out, nil
}

// MissingSummary counts, per column of a report, the rows matched by
// is_missing or is_placeholder. Percentages are of the column's row count,
// rounded to two decimals. Columns without missing rows are left out.
func MissingSummary(report *Report, method SummaryMethod) (map[string]float64, error) {
	if method != SummaryCount && method != SummaryPercent {
		return nil, &model.ConfigurationError{
			Component: "missing summary",
			Name:      string(method),
			Reason:    "method must be count or percent",
		}
	}

	out := make(map[string]float64)
	for _, name := range report.Columns() {
		cr, _ := report.ForColumn(name)
		missing := missingRows(cr)
		if len(missing) == 0 {
			continue
		}
		switch method {
		case SummaryCount:
			out[name] = float64(len(missing))
		case SummaryPercent:
			pct := float64(len(missing)) / float64(cr.Rows) * 100
			out[name] = math.Round(pct*100) / 100
		}
	}
	return out, nil
}

// missingRows unions the row ids of both missing diagnostics
func missingRows(cr ColumnReport) map[int64]struct{} {
	rows := make(map[int64]struct{})
	for _, name := range []string{pattern.IsMissing, pattern.IsPlaceholder} {
		for _, id := range cr.RowIDs(name) {
			rows[id] = struct{}{}
		}
	}
	return rows
}

// RowsAllMissing returns, in table order, the ids of rows whose cells are
// null or a placeholder in every one of the given columns. A nil column
// list covers the whole table; a table without columns has no such rows.
func RowsAllMissing(table *model.Table, columns []string, placeholders []string) ([]int64, error) {
	columns, err := resolveColumns(table, columns)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, nil
	}

	missing := pattern.AnyOf("missing", pattern.Missing(pattern.IsMissing), pattern.OneOf(pattern.IsPlaceholder, placeholders...))
	var ids []int64
	for _, id := range table.RowIDs() {
		all := true
		for _, name := range columns {
			cell, _ := table.Cell(name, id)
			if !missing.Eval(cell) {
				all = false
				break
			}
		}
		if all {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func resolveColumns(table *model.Table, columns []string) ([]string, error) {
	if columns == nil {
		return table.ColumnNames(), nil
	}
	for _, name := range columns {
		if !table.HasColumn(name) {
			return nil, &model.UnknownColumnError{Column: name}
		}
	}
	return columns, nil
}
