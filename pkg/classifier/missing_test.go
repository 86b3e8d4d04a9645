package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheDucky-2/DataLabX/pkg/model"
)

func missingTable(t *testing.T) *model.Table {
	t.Helper()
	table, err := model.NewTable([]int64{10, 20, 30, 40},
		model.NewColumn("price", model.DomainNumeric, model.Null(), model.String("UNKNOWN"), model.String("12"), model.Null()),
		model.NewColumn("qty", model.DomainNumeric, model.String("UNKNOWN"), model.String("UNKNOWN"), model.String("3"), model.Null()),
		model.NewColumn("code", model.DomainNumeric, model.String("7"), model.String("8"), model.String("9"), model.String("10")),
	)
	require.NoError(t, err)
	return table
}

func TestMissingTypes(t *testing.T) {
	kinds, err := MissingTypes(missingTable(t), nil, []string{"UNKNOWN", "N/A"})
	require.NoError(t, err)

	assert.Equal(t, map[string]MissingKinds{
		"price": {Native: 2, Placeholder: 1, Placeholders: []string{"UNKNOWN"}},
		"qty":   {Native: 1, Placeholder: 2, Placeholders: []string{"UNKNOWN"}},
	}, kinds)
	assert.Equal(t, 3, kinds["qty"].Total())

	kinds, err = MissingTypes(missingTable(t), []string{"price"}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]MissingKinds{"price": {Native: 2}}, kinds)

	_, err = MissingTypes(missingTable(t), []string{"nope"}, nil)
	assert.ErrorIs(t, err, model.ErrUnknownColumn)
}

func TestMissingSummary(t *testing.T) {
	report, err := newClassifier(1<<30).Classify(context.Background(), missingTable(t), nil, numericCatalog(t))
	require.NoError(t, err)

	counts, err := MissingSummary(report, SummaryCount)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"price": 3, "qty": 3}, counts)

	percents, err := MissingSummary(report, SummaryPercent)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"price": 75, "qty": 75}, percents)
}

func TestMissingSummaryPercentRounds(t *testing.T) {
	table := model.MustNewTable(nil,
		model.NewColumn("price", model.DomainNumeric, model.Null(), model.String("1"), model.String("2")),
	)
	report, err := newClassifier(1<<30).Classify(context.Background(), table, nil, numericCatalog(t))
	require.NoError(t, err)

	percents, err := MissingSummary(report, SummaryPercent)
	require.NoError(t, err)
	assert.Equal(t, 33.33, percents["price"])
}

func TestMissingSummaryRejectsUnknownMethod(t *testing.T) {
	_, err := MissingSummary(NewReport(), "sum")

	var cfgErr *model.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "sum", cfgErr.Name)
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestRowsAllMissing(t *testing.T) {
	table := missingTable(t)
	placeholders := []string{"UNKNOWN"}

	tests := []struct {
		name    string
		columns []string
		want    []int64
	}{
		{"whole table", nil, nil},
		{"price and qty", []string{"price", "qty"}, []int64{10, 20, 40}},
		{"price only", []string{"price"}, []int64{10, 20, 40}},
		{"with a full column", []string{"qty", "code"}, nil},
		{"no columns", []string{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := RowsAllMissing(table, tt.columns, placeholders)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}

	ids, err := RowsAllMissing(table, []string{"price", "qty"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{40}, ids)

	_, err = RowsAllMissing(table, []string{"price", "nope"}, placeholders)
	assert.ErrorIs(t, err, model.ErrUnknownColumn)
}
