package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheDucky-2/DataLabX/pkg/model"
)

const pricesYAML = `
name: prices
domain: numeric
in_place: true
stages:
  - name: replace_placeholders
    params:
      tokens: ["N/A", "-"]
  - name: strip_spaces
  - name: replace_commas
    params:
      replacement: ""
  - name: round_off
    params:
      decimals: 1
`

func TestBuildPipelineFromYAML(t *testing.T) {
	spec, err := ParsePipelineSpec([]byte(pricesYAML))
	require.NoError(t, err)
	assert.Equal(t, "prices", spec.Name)
	require.Len(t, spec.Stages, 4)

	p, err := BuildPipeline(spec)
	require.NoError(t, err)
	assert.Equal(t, "prices", p.Name())
	assert.True(t, p.InPlace())
	assert.Equal(t, []string{StageReplacePlaceholders, StageStripSpaces, StageReplaceCommas, StageRoundOff}, p.Names())

	out, delta := p.ApplyColumn("price", model.Strings("N/A", " 1,234.56 ", "-"))
	assert.Equal(t, []model.Cell{model.Null(), model.String("1234.6"), model.Null()}, out)
	assert.True(t, delta.IsEmpty())

	override, err := BuildPipeline(spec, WithInPlace(false))
	require.NoError(t, err)
	assert.False(t, override.InPlace())
}

func TestPipelineSpecRoundTrip(t *testing.T) {
	spec, err := ParsePipelineSpec([]byte(pricesYAML))
	require.NoError(t, err)

	data, err := spec.Marshal()
	require.NoError(t, err)

	again, err := ParsePipelineSpec(data)
	require.NoError(t, err)
	assert.Equal(t, spec.Name, again.Name)
	assert.Equal(t, spec.InPlace, again.InPlace)
	require.Len(t, again.Stages, len(spec.Stages))
	for i := range spec.Stages {
		assert.Equal(t, spec.Stages[i].Name, again.Stages[i].Name)
	}
}

func TestPipelineSpecErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown stage", "stages:\n  - name: teleport\n"},
		{"unknown key", "stages:\n  - name: strip_spaces\n    weight: 3\n"},
		{"no stages", "name: empty\n"},
		{"bad param type", "stages:\n  - name: round_off\n    params:\n      decimals: two\n"},
		{"negative decimals", "stages:\n  - name: round_off\n    params:\n      decimals: -1\n"},
		{"too many decimals", "stages:\n  - name: round_off\n    params:\n      decimals: 400\n"},
		{"unknown domain", "domain: geo\nstages:\n  - name: strip_spaces\n"},
		{"duplicate stage", "stages:\n  - name: strip_spaces\n  - name: strip_spaces\n"},
		{"placeholders without tokens", "stages:\n  - name: replace_placeholders\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParsePipelineSpec([]byte(tt.yaml))
			if err == nil {
				_, err = BuildPipeline(spec)
			}
			assert.ErrorIs(t, err, model.ErrConfiguration)
		})
	}
}

func TestCustomFactory(t *testing.T) {
	f := NewFactories()
	f.Register("shout", func(Params) (Stage, error) { return ToUppercase(), nil })
	assert.Contains(t, f.Names(), "shout")

	p, err := f.BuildPipeline(PipelineSpec{Stages: []StageSpec{{Name: "shout"}}})
	require.NoError(t, err)

	out, _ := p.ApplyColumn("c", model.Strings("hi"))
	assert.Equal(t, model.Strings("HI"), out)
}
