package classifier

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/TheDucky-2/DataLabX/pkg/metrics"
	"github.com/TheDucky-2/DataLabX/pkg/model"
	"github.com/TheDucky-2/DataLabX/pkg/pattern"
	"github.com/TheDucky-2/DataLabX/pkg/run"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var cellComparer = cmp.Comparer(model.Cell.Equal)

func newClassifier(threshold int) *Classifier {
	return New(run.Context{Logger: zap.NewNop(), BackendThreshold: threshold, Workers: 4})
}

func numericCatalog(t *testing.T) *pattern.Catalog {
	t.Helper()
	c, err := pattern.Numeric(pattern.Options{Placeholders: []string{"UNKNOWN"}})
	require.NoError(t, err)
	return c
}

// distinctValues returns 500 numeric-domain values spread over the dirty shapes
func distinctValues() []model.Cell {
	shapes := []func(i int) model.Cell{
		func(i int) model.Cell { return model.String(fmt.Sprintf("%d", i)) },
		func(i int) model.Cell { return model.String(fmt.Sprintf("%d,000", i)) },
		func(i int) model.Cell { return model.String(fmt.Sprintf("  %d  ", i)) },
		func(i int) model.Cell { return model.String(fmt.Sprintf("%d.5e2", i)) },
		func(i int) model.Cell { return model.String(fmt.Sprintf("$%d", i)) },
		func(i int) model.Cell { return model.String(fmt.Sprintf("%d kg", i)) },
		func(i int) model.Cell { return model.String(fmt.Sprintf("%d.1.2", i)) },
		func(i int) model.Cell { return model.String(fmt.Sprintf("abc%d", i)) },
		func(i int) model.Cell { return model.String(fmt.Sprintf("-%d.25", i)) },
		func(i int) model.Cell {
			if i%20 == 9 {
				return model.Null()
			}
			return model.String(fmt.Sprintf("UNKNOWN%d", i))
		},
	}

	values := make([]model.Cell, 500)
	for i := range values {
		values[i] = shapes[i%len(shapes)](i)
	}
	return values
}

func repeatedTable(t *testing.T, values []model.Cell, times int) *model.Table {
	t.Helper()
	cells := make([]model.Cell, 0, len(values)*times)
	for r := 0; r < times; r++ {
		cells = append(cells, values...)
	}
	table, err := model.NewTable(nil, model.NewColumn("amount", model.DomainNumeric, cells...))
	require.NoError(t, err)
	return table
}

func valueSet(entries []model.Entry) []string {
	seen := make(map[string]bool)
	for _, e := range entries {
		seen[e.Value.Key()] = true
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestClassifyNumericScenario(t *testing.T) {
	table := model.MustNewTable(nil,
		model.NewColumn("amount", model.DomainNumeric, model.Strings("abc", "12,000", "  15  ", "3.5e2", "$10")...))

	report, err := newClassifier(0).Classify(context.Background(), table, nil, numericCatalog(t))
	require.NoError(t, err)

	assert.Empty(t, report.Diagnostic("amount", pattern.IsValid))
	assert.Equal(t, []model.Entry{{RowID: 1, Value: model.String("12,000")}}, report.Diagnostic("amount", pattern.HasCommas))
	assert.Equal(t, []model.Entry{{RowID: 2, Value: model.String("  15  ")}}, report.Diagnostic("amount", pattern.HasSpaces))
	assert.Equal(t, []model.Entry{{RowID: 3, Value: model.String("3.5e2")}}, report.Diagnostic("amount", pattern.IsScientific))
	assert.Equal(t, []model.Entry{{RowID: 4, Value: model.String("$10")}}, report.Diagnostic("amount", pattern.HasCurrency))

	cr, ok := report.ForColumn("amount")
	require.True(t, ok)
	assert.Equal(t, BackendRow, cr.Backend)
	assert.Equal(t, numericCatalog(t).Names(), cr.Diagnostics())
}

func TestBackendSizePolicy(t *testing.T) {
	values := distinctValues()
	small := repeatedTable(t, values, 1)
	large := repeatedTable(t, values, 300)
	require.Equal(t, 150_000, large.Len())

	c := New(run.Context{Logger: zap.NewNop()})
	catalog := numericCatalog(t)

	smallReport, err := c.Classify(context.Background(), small, nil, catalog)
	require.NoError(t, err)
	largeReport, err := c.Classify(context.Background(), large, nil, catalog)
	require.NoError(t, err)

	smallCol, _ := smallReport.ForColumn("amount")
	largeCol, _ := largeReport.ForColumn("amount")
	assert.Equal(t, BackendRow, smallCol.Backend)
	assert.Equal(t, BackendArrow, largeCol.Backend)

	for _, name := range catalog.Names() {
		assert.Equal(t, 300*smallCol.Count(name), largeCol.Count(name), name)
		assert.Equal(t, valueSet(smallCol.Get(name)), valueSet(largeCol.Get(name)), name)
	}
	assert.Positive(t, smallCol.Count(pattern.HasCommas))
	assert.Positive(t, smallCol.Count(pattern.IsMissing))
	assert.Positive(t, smallCol.Count(pattern.IsPlaceholder)+smallCol.Count(pattern.HasText))
}

func mixedTable(t *testing.T) *model.Table {
	t.Helper()
	base := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)

	table, err := model.NewTable([]int64{40, 7, 1000, 3, 12, 99},
		model.NewColumn("amount", model.DomainNumeric, model.Strings("1,000", "  5", "7.5", "", "x1", "3e4")...),
		model.NewColumn("count", model.DomainNumeric,
			model.Number(1), model.Number(-2.5), model.Null(), model.Number(1e21), model.Number(0), model.Number(3)),
		model.NewColumn("seen", model.DomainDatetime,
			model.Time(base), model.Null(), model.Time(base.Add(time.Nanosecond)),
			model.Time(base.AddDate(1, 0, 0)), model.Time(base), model.Null()),
		model.NewColumn("name", model.DomainText, model.Null(), model.Strings("Ann", " bob", "N/A", "", "r2d2")...),
	)
	require.NoError(t, err)
	return table
}

func TestBackendEquivalence(t *testing.T) {
	table := mixedTable(t)

	catalogs := []*pattern.Catalog{numericCatalog(t)}
	for _, build := range []func(pattern.Options) (*pattern.Catalog, error){pattern.Text, pattern.Datetime} {
		c, err := build(pattern.Options{})
		require.NoError(t, err)
		catalogs = append(catalogs, c)
	}

	for _, catalog := range catalogs {
		t.Run(catalog.Domain().String(), func(t *testing.T) {
			rowReport, err := newClassifier(1<<30).Classify(context.Background(), table, nil, catalog)
			require.NoError(t, err)
			arrowReport, err := newClassifier(1).Classify(context.Background(), table, nil, catalog)
			require.NoError(t, err)

			require.Equal(t, rowReport.Columns(), arrowReport.Columns())
			for _, column := range rowReport.Columns() {
				for _, name := range catalog.Names() {
					want := rowReport.Diagnostic(column, name)
					got := arrowReport.Diagnostic(column, name)
					if diff := cmp.Diff(want, got, cellComparer); diff != "" {
						t.Errorf("%s/%s mismatch (-row +arrow):\n%s", column, name, diff)
					}
				}
			}
		})
	}
}

func TestRowIdentityRoundTrip(t *testing.T) {
	table := mixedTable(t)

	for _, threshold := range []int{1, 1 << 30} {
		report, err := newClassifier(threshold).Classify(context.Background(), table, nil, numericCatalog(t))
		require.NoError(t, err)

		for _, column := range report.Columns() {
			cr, _ := report.ForColumn(column)
			for _, name := range cr.Diagnostics() {
				for _, e := range cr.Get(name) {
					original, ok := table.Cell(column, e.RowID)
					require.True(t, ok, "row id %d not in table", e.RowID)
					assert.True(t, original.Equal(e.Value), "%s/%s row %d", column, name, e.RowID)
				}
			}
		}
	}
}

func TestSurrogateNeverCollides(t *testing.T) {
	table := model.MustNewTable(nil,
		model.NewColumn("__row_id_fixed", model.DomainNumeric, model.Strings("1", "x")...),
		model.NewColumn("amount", model.DomainNumeric, model.Strings("2", "y")...),
	)

	names := []string{"__row_id_fixed", "amount", "__row_id_free"}
	b := newArrowBackend()
	b.newSurrogate = func() string {
		name := names[0]
		names = names[1:]
		return name
	}

	valid, ok := numericCatalog(t).Lookup(pattern.IsValid)
	require.True(t, ok)

	got, err := b.Filter(context.Background(), table, "__row_id_fixed", []pattern.Predicate{valid})
	require.NoError(t, err)
	assert.Equal(t, []model.Entry{{RowID: 0, Value: model.String("1")}}, got[pattern.IsValid])
	assert.Empty(t, names)
}

func TestMixedKindsFailOnBothBackends(t *testing.T) {
	table := model.MustNewTable(nil,
		model.NewColumn("amount", model.DomainNumeric, model.String("1"), model.Number(2), model.Null()))

	for _, threshold := range []int{1, 1 << 30} {
		_, err := newClassifier(threshold).Classify(context.Background(), table, nil, numericCatalog(t))
		require.Error(t, err)

		var convErr *model.BackendConversionError
		require.ErrorAs(t, err, &convErr)
		assert.Equal(t, "amount", convErr.Column)
		assert.True(t, model.IsFatal(err))
	}
}

func TestClassifySelectedDiagnostics(t *testing.T) {
	table := mixedTable(t)

	report, err := newClassifier(0).Classify(context.Background(), table, []string{"amount", "absent"}, numericCatalog(t),
		pattern.HasCommas, pattern.HasSpaces)
	require.NoError(t, err)

	assert.Equal(t, []string{"amount"}, report.Columns())
	cr, _ := report.ForColumn("amount")
	assert.Equal(t, []string{pattern.HasCommas, pattern.HasSpaces}, cr.Diagnostics())
	assert.Equal(t, []int64{40}, cr.RowIDs(pattern.HasCommas))
	assert.Equal(t, []int64{7}, cr.RowIDs(pattern.HasSpaces))
	assert.False(t, cr.Has(pattern.IsValid))
}

func TestUnknownDiagnosticFailsBeforeWork(t *testing.T) {
	collector := metrics.NewCollector("", nil)
	c := New(run.Context{Metrics: collector})

	_, err := c.Classify(context.Background(), mixedTable(t), nil, numericCatalog(t), pattern.IsValid, "is_bogus")

	var unknown *model.UnknownDiagnosticError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "is_bogus", unknown.Name)
	assert.Empty(t, collector.Summary().Columns)
	assert.Equal(t, 1, collector.Summary().ErrorCounts[model.ErrorCategoryLookup])
}

func TestClassifyColumn(t *testing.T) {
	c := newClassifier(0)
	table := mixedTable(t)

	cr, err := c.ClassifyColumn(context.Background(), table, "name", numericCatalog(t), pattern.IsText)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 1000}, cr.RowIDs(pattern.IsText))

	_, err = c.ClassifyColumn(context.Background(), table, "absent", numericCatalog(t))
	assert.True(t, errors.Is(err, model.ErrUnknownColumn))
}

func TestClassifyRecordsMetrics(t *testing.T) {
	collector := metrics.NewCollector("", nil)
	c := New(run.Context{Metrics: collector, Workers: 2})

	_, err := c.Classify(context.Background(), mixedTable(t), []string{"amount", "name"}, numericCatalog(t))
	require.NoError(t, err)

	summary := collector.Summary()
	require.Len(t, summary.Columns, 2)
	assert.Equal(t, 12, summary.CellsClassified)
}

func TestClassifyHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newClassifier(0).Classify(ctx, mixedTable(t), nil, numericCatalog(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportMerge(t *testing.T) {
	c := newClassifier(0)
	table := mixedTable(t)

	left, err := c.Classify(context.Background(), table, []string{"amount"}, numericCatalog(t))
	require.NoError(t, err)
	right, err := c.Classify(context.Background(), table, []string{"count"}, numericCatalog(t))
	require.NoError(t, err)

	require.NoError(t, left.Merge(right))
	assert.Equal(t, []string{"amount", "count"}, left.Columns())
	assert.Len(t, left.Counts(), 2)

	assert.Error(t, left.Merge(right))
}
