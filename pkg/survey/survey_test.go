package survey

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/TheDucky-2/DataLabX/pkg/cleaner"
	"github.com/TheDucky-2/DataLabX/pkg/model"
	"github.com/TheDucky-2/DataLabX/pkg/pattern"
	"github.com/TheDucky-2/DataLabX/pkg/registry"
	"github.com/TheDucky-2/DataLabX/pkg/run"
	"github.com/TheDucky-2/DataLabX/pkg/runner"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memorySource serves fixed tables and fails reads of broken ones
type memorySource struct {
	tables map[string]*model.Table
	broken map[string]bool
	limits []int
}

func (m *memorySource) ListTables(_ context.Context, schema string) ([]string, error) {
	if schema != "PUBLIC" {
		return nil, errors.New("schema does not exist")
	}
	names := make([]string, 0, len(m.tables)+len(m.broken))
	for name := range m.tables {
		names = append(names, name)
	}
	for name := range m.broken {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *memorySource) ReadTable(_ context.Context, _, table string, _ []string, limit int) (*model.Table, error) {
	m.limits = append(m.limits, limit)
	if m.broken[table] {
		return nil, errors.New("permission denied")
	}
	return m.tables[table].Clone(), nil
}

func newSource() *memorySource {
	return &memorySource{
		tables: map[string]*model.Table{
			"ORDERS": model.MustNewTable(nil,
				model.NewColumn("amount", model.DomainNumeric, model.Strings("1,200", "$3", "7")...),
				model.NewColumn("placed_at", model.DomainDatetime, model.Strings("2024-01-15", "soon", " 2024-02-01")...),
			),
			"CUSTOMERS": model.MustNewTable(nil,
				model.NewColumn("name", model.DomainText, model.Strings("  ann ", "bob", "N/A")...),
			),
			"ORDERS_ARCHIVE": model.MustNewTable(nil,
				model.NewColumn("amount", model.DomainNumeric, model.Strings("1")...),
			),
		},
		broken: map[string]bool{"SECRETS": true},
	}
}

func newSurveyor(t *testing.T, src TableSource, opts ...Option) *Surveyor {
	t.Helper()
	reg, err := registry.Default(registry.Options{Placeholders: []string{"N/A"}})
	require.NoError(t, err)
	m := runner.NewManager(reg, run.New(zaptest.NewLogger(t)), runner.WithWorkerCount(2))
	return NewSurveyor(src, m, opts...)
}

func TestSurveySchema(t *testing.T) {
	src := newSource()
	s := newSurveyor(t, src, WithRowLimit(500))

	res, err := s.SurveySchema(context.Background(), "PUBLIC", "", "%_ARCHIVE")
	require.NoError(t, err)

	assert.Equal(t, []string{"ORDERS_ARCHIVE"}, res.Excluded)
	assert.Equal(t, []string{"CUSTOMERS", "ORDERS"}, res.Succeeded())
	assert.Equal(t, []string{"SECRETS"}, res.Failed())
	for _, limit := range src.limits {
		assert.Equal(t, 500, limit)
	}

	var orders TableResult
	for _, tr := range res.Tables {
		if tr.Table == "ORDERS" {
			orders = tr
		}
	}
	assert.Equal(t, 3, orders.Rows)
	assert.Equal(t, []model.Entry{{RowID: 0, Value: model.String("1,200")}}, orders.Report.Diagnostic("amount", pattern.HasCommas))
	assert.Nil(t, orders.Cleaned)
}

func TestSurveyTableWithCleaning(t *testing.T) {
	s := newSurveyor(t, newSource(), WithCleaning(true))

	res := s.SurveyTable(context.Background(), "PUBLIC", "ORDERS")
	require.NoError(t, res.Err)
	require.True(t, res.Success)

	amount, _ := res.Cleaned.Column("amount")
	assert.Equal(t, model.Strings("1200", "3", "7"), amount.Cells)
	assert.True(t, res.Ledger.Contains("placed_at", cleaner.StageStandardizeDatetime, model.String("soon")))
	assert.True(t, res.Ledger.Frozen())
}

func TestSurveyAll(t *testing.T) {
	s := newSurveyor(t, newSource())

	results, err := s.SurveyAll(context.Background(), []string{"MISSING", "PUBLIC"}, "ORDERS%", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"ORDERS", "ORDERS_ARCHIVE"}, results[0].Succeeded())
	assert.Equal(t, []string{"CUSTOMERS", "SECRETS"}, results[0].Excluded)

	_, err = s.SurveyAll(context.Background(), nil, "", "")
	assert.Error(t, err)
}

func TestSurveyCancelled(t *testing.T) {
	s := newSurveyor(t, newSource())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.SurveySchema(ctx, "PUBLIC", "", "")
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Empty(t, res.Tables)
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		name, pattern string
		want          bool
	}{
		{"ORDERS", "", true},
		{"ORDERS", "%", true},
		{"ORDERS", "orders", true},
		{"ORDERS_2024", "ORDERS%", true},
		{"OLD_ORDERS", "%ORDERS", true},
		{"MY_ORDERS_X", "%ORDERS%", true},
		{"ORDERS", "ORDER_", true},
		{"ORDERS", "ORDER", false},
		{"ORDERS.BAK", "ORDERS.BAK", true},
		{"ORDERSXBAK", "ORDERS.BAK", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchPattern(tt.name, tt.pattern), "%s LIKE %s", tt.name, tt.pattern)
	}
}
