package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheDucky-2/DataLabX/pkg/cleaner"
	"github.com/TheDucky-2/DataLabX/pkg/model"
	"github.com/TheDucky-2/DataLabX/pkg/pattern"
)

func TestDefaultRegistry(t *testing.T) {
	r, err := Default(Options{Placeholders: []string{"N/A"}})
	require.NoError(t, err)

	assert.Equal(t, []model.Domain{model.DomainDatetime, model.DomainNumeric, model.DomainText}, r.Domains())

	catalog, err := r.Catalog(model.DomainNumeric)
	require.NoError(t, err)
	assert.True(t, catalog.Has(pattern.IsPlaceholder))

	stages, err := r.Stages(model.DomainText)
	require.NoError(t, err)
	assert.Equal(t, cleaner.StageReplacePlaceholders, stages[0].Name)
}

func TestRegisterNewDomain(t *testing.T) {
	r := New()
	geo := model.Domain("geo")
	catalog := pattern.MustCatalog(geo, []pattern.Predicate{
		pattern.Regex("is_coordinate", `^-?\d+\.\d+,\s*-?\d+\.\d+$`),
	})

	require.NoError(t, r.Register(geo, catalog, []cleaner.Stage{cleaner.CollapseSpaces()}))

	got, err := r.Catalog(geo)
	require.NoError(t, err)
	assert.Same(t, catalog, got)
}

func TestRegisterErrors(t *testing.T) {
	numeric, err := pattern.Numeric(pattern.Options{})
	require.NoError(t, err)

	r := New()
	assert.ErrorIs(t, r.Register("", numeric, []cleaner.Stage{cleaner.StripSpaces()}), model.ErrConfiguration)
	assert.ErrorIs(t, r.Register(model.DomainText, numeric, []cleaner.Stage{cleaner.StripSpaces()}), model.ErrConfiguration)
	assert.ErrorIs(t, r.Register(model.DomainNumeric, nil, []cleaner.Stage{cleaner.StripSpaces()}), model.ErrConfiguration)
	assert.ErrorIs(t, r.Register(model.DomainNumeric, numeric, nil), model.ErrConfiguration)

	_, err = r.Catalog(model.DomainNumeric)
	assert.ErrorIs(t, err, model.ErrConfiguration)
}
