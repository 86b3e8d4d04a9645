package pattern

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheDucky-2/DataLabX/pkg/model"
)

func matching(t *testing.T, c *Catalog, name string, cells []model.Cell) []string {
	t.Helper()
	p, ok := c.Lookup(name)
	require.True(t, ok, "predicate %s", name)

	var out []string
	for _, cell := range cells {
		if p.Eval(cell) {
			out = append(out, cell.Text())
		}
	}
	return out
}

func TestNumericCatalogDirtyShapes(t *testing.T) {
	c, err := Numeric(Options{})
	require.NoError(t, err)

	cells := model.Strings("abc", "12,000", "  15  ", "3.5e2", "$10")

	assert.Empty(t, matching(t, c, IsValid, cells))
	assert.Len(t, matching(t, c, IsDirty, cells), 5)
	assert.Equal(t, []string{"12,000"}, matching(t, c, HasCommas, cells))
	assert.Equal(t, []string{"  15  "}, matching(t, c, HasSpaces, cells))
	assert.Equal(t, []string{"3.5e2"}, matching(t, c, IsScientific, cells))
	assert.Equal(t, []string{"$10"}, matching(t, c, HasCurrency, cells))
	assert.Equal(t, []string{"abc"}, matching(t, c, IsText, cells))
}

func TestNumericCatalogShapes(t *testing.T) {
	c, err := Numeric(Options{})
	require.NoError(t, err)

	tests := []struct {
		value string
		want  []string
	}{
		{"42", []string{IsValid}},
		{"-3.25", []string{IsValid, HasDecimals}},
		{"10 kg", []string{IsDirty, HasUnits}},
		{"1.2.3", []string{IsDirty, HasMultipleDecimal}},
		{"1,000,000", []string{IsDirty, HasCommas, HasMultipleCommas}},
		{"10€", []string{IsDirty, HasCurrency}},
		{"abc123", []string{IsDirty, HasText}},
		{"?", []string{IsDirty, IsSymbol}},
		{"12#4", []string{IsDirty, HasSymbols}},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got := c.Evaluate(model.String(tt.value))
			for _, name := range tt.want {
				assert.True(t, got[name], "%s should match %q", name, tt.value)
			}
		})
	}
}

func TestNullAndEmptyAreDistinct(t *testing.T) {
	numeric, err := Numeric(Options{})
	require.NoError(t, err)
	text, err := Text(Options{})
	require.NoError(t, err)

	for _, c := range []*Catalog{numeric, text} {
		null := c.Evaluate(model.Null())
		assert.True(t, null[IsMissing])
		assert.False(t, null[IsValid])
		assert.False(t, null[IsDirty])

		empty := c.Evaluate(model.String(""))
		assert.False(t, empty[IsMissing])
		assert.True(t, empty[IsDirty])
	}

	assert.True(t, text.Evaluate(model.String(""))[IsEmpty])
	assert.False(t, text.Evaluate(model.Null())[IsEmpty])
}

func TestPlaceholdersAreNotMissing(t *testing.T) {
	c, err := Text(Options{Placeholders: []string{"UNKNOWN", "N/A"}})
	require.NoError(t, err)

	got := c.Evaluate(model.String("UNKNOWN"))
	assert.True(t, got[IsPlaceholder])
	assert.False(t, got[IsMissing])

	assert.False(t, c.Evaluate(model.Null())[IsPlaceholder])
}

func TestTextCatalog(t *testing.T) {
	c, err := Text(Options{})
	require.NoError(t, err)

	cells := model.Strings("hello", " padded", "N/A", "room 101", "***")

	assert.Equal(t, []string{"hello", " padded"}, matching(t, c, IsValid, cells))
	assert.Equal(t, []string{"N/A", "***"}, matching(t, c, HasSymbols, cells))
	assert.Equal(t, []string{"room 101"}, matching(t, c, HasNumbers, cells))
	assert.Equal(t, []string{" padded"}, matching(t, c, HasSpaces, cells))
	assert.Equal(t, []string{"***"}, matching(t, c, IsSymbol, cells))
}

func TestDatetimeCatalog(t *testing.T) {
	c, err := Datetime(Options{})
	require.NoError(t, err)

	tests := []struct {
		cell model.Cell
		want string
	}{
		{model.String("2024-01-31"), IsValidDate},
		{model.String("31/01/2024"), IsValidDate},
		{model.String("13:45"), IsValidTime},
		{model.String("2024-01-31 13:45:00"), IsValidDatetime},
		{model.String("2024-01-31T13:45:00Z"), IsValidDatetime},
		{model.Time(time.Date(2024, 1, 31, 13, 45, 0, 0, time.UTC)), IsValidDatetime},
		{model.Time(time.Date(2024, 1, 31, 13, 45, 0, 500, time.UTC)), IsValidDatetime},
		{model.String("20240131"), IsNumericEncoding},
		{model.Number(20240131), IsNumericEncoding},
		{model.String("yesterday"), IsText},
		{model.Null(), IsMissing},
	}

	for _, tt := range tests {
		t.Run(tt.cell.Text(), func(t *testing.T) {
			assert.True(t, c.Evaluate(tt.cell)[tt.want])
		})
	}

	dirty := c.Evaluate(model.String("yesterday"))
	assert.True(t, dirty[IsDirty])
	assert.False(t, dirty[IsValid])
	assert.False(t, c.Evaluate(model.String("2024-01-31"))[IsDirty])
	assert.False(t, c.Evaluate(model.Null())[IsDirty])
}

func TestDefaultCatalogsComplementarity(t *testing.T) {
	cells := append(defaultSample(),
		model.Strings("", "\t", "0", "007", "1e", "e5", "£ 3", "—", "ünïcode", "12:30:00.5")...)

	for _, domain := range []model.Domain{model.DomainNumeric, model.DomainText, model.DomainDatetime} {
		c, err := ForDomain(domain, Options{Placeholders: []string{"N/A"}})
		require.NoError(t, err)

		for _, pair := range c.Complements() {
			a, _ := c.Lookup(pair[0])
			b, _ := c.Lookup(pair[1])
			for _, cell := range cells {
				assert.NotEqual(t, a.Eval(cell), b.Eval(cell),
					"%s: %s/%s on %q", domain, pair[0], pair[1], cell.Text())
			}
		}
	}
}

func TestNewCatalogConfigurationErrors(t *testing.T) {
	valid := Regex("is_valid", `^\d+$`)
	letters := Regex("is_letters", `^[a-z]+$`)

	tests := []struct {
		name  string
		preds []Predicate
		opts  []CatalogOption
	}{
		{"empty name", []Predicate{{Name: "", Match: model.Cell.IsNull}}, nil},
		{"nil match", []Predicate{{Name: "x"}}, nil},
		{"duplicate name", []Predicate{valid, valid}, nil},
		{"unknown pair member", []Predicate{valid}, []CatalogOption{WithComplement("is_valid", "is_dirty")}},
		{"broken pair", []Predicate{valid, letters}, []CatalogOption{WithComplement("is_valid", "is_letters")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(model.DomainNumeric, tt.preds, tt.opts...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrConfiguration))

			var cfgErr *model.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr))
		})
	}
}

func TestValidationSampleDecidesComplementarity(t *testing.T) {
	valid := Regex("is_valid", `^\d+$`)
	letters := Regex("is_letters", `^[a-z]+$`)

	_, err := NewCatalog(model.DomainNumeric, []Predicate{valid, letters},
		WithComplement("is_valid", "is_letters"),
		WithValidationSample(model.Strings("12", "ab", "7")...),
	)
	assert.NoError(t, err)
}

func TestExtendLeavesOriginalUntouched(t *testing.T) {
	base, err := Numeric(Options{})
	require.NoError(t, err)

	extended, err := base.Extend(Regex("is_percentage", `^\d+(?:\.\d+)?%$`))
	require.NoError(t, err)

	assert.False(t, base.Has("is_percentage"))
	assert.True(t, extended.Has("is_percentage"))
	assert.Equal(t, base.Len()+1, extended.Len())
	assert.Equal(t, base.Names(), extended.Names()[:base.Len()])
	assert.True(t, extended.Evaluate(model.String("12.5%"))["is_percentage"])

	_, err = base.Extend(Regex(IsValid, `.*`))
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestSelectUnknownDiagnostic(t *testing.T) {
	c, err := Text(Options{})
	require.NoError(t, err)

	preds, err := c.Select(IsValid, HasSpaces)
	require.NoError(t, err)
	assert.Len(t, preds, 2)

	_, err = c.Select(IsValid, "is_bogus")
	var unknown *model.UnknownDiagnosticError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "is_bogus", unknown.Name)
}

func TestPanickingPredicateIsTotal(t *testing.T) {
	p := Predicate{Name: "boom", Match: func(model.Cell) bool { panic("bad") }}

	assert.NotPanics(t, func() {
		assert.False(t, p.Eval(model.String("x")))
	})
}

func TestForDomainUnknown(t *testing.T) {
	_, err := ForDomain(model.Domain("geo"), Options{})
	assert.ErrorIs(t, err, model.ErrConfiguration)
}
