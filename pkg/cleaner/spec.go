// pkg/cleaner/spec.go
package cleaner

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// StageSpec names one stage and its parameters
type StageSpec struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params,omitempty"`
}

// PipelineSpec is the serializable form of a pipeline
type PipelineSpec struct {
	Name    string      `yaml:"name"`
	Domain  string      `yaml:"domain,omitempty"`
	InPlace bool        `yaml:"in_place,omitempty"`
	Stages  []StageSpec `yaml:"stages"`
}

// ParsePipelineSpec decodes a YAML pipeline definition. Unknown keys are rejected.
func ParsePipelineSpec(data []byte) (PipelineSpec, error) {
	var spec PipelineSpec

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return PipelineSpec{}, &model.ConfigurationError{Component: "pipeline", Reason: fmt.Sprintf("invalid pipeline spec: %v", err)}
	}
	if len(spec.Stages) == 0 {
		return PipelineSpec{}, &model.ConfigurationError{Component: "pipeline", Name: spec.Name, Reason: "pipeline spec has no stages"}
	}
	return spec, nil
}

// Marshal encodes the spec as YAML
func (s PipelineSpec) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Factory builds a stage from its parameters
type Factory func(params Params) (Stage, error)

// Factories maps stage names to factories. The zero value is empty; use
// NewFactories for the built-in stages.
type Factories map[string]Factory

// NewFactories returns the built-in stage factories
func NewFactories() Factories {
	return Factories{
		StageStripSpaces:           func(Params) (Stage, error) { return StripSpaces(), nil },
		StageRemoveUnits:           func(Params) (Stage, error) { return RemoveUnits(), nil },
		StageRemoveCurrencySymbols: func(Params) (Stage, error) { return RemoveCurrencySymbols(), nil },
		StageScientificNotation:    func(Params) (Stage, error) { return ConvertScientificNotation(), nil },
		StageLowercase:             func(Params) (Stage, error) { return ToLowercase(), nil },
		StageUppercase:             func(Params) (Stage, error) { return ToUppercase(), nil },
		StageCollapseSpaces:        func(Params) (Stage, error) { return CollapseSpaces(), nil },
		StageReplaceCommas: func(p Params) (Stage, error) {
			repl, err := p.String("replacement", "")
			return ReplaceCommas(repl), err
		},
		StageTextToNumbers: func(p Params) (Stage, error) {
			m, err := p.Map("mapping")
			return ConvertTextToNumbers(m), err
		},
		StageRoundOff: func(p Params) (Stage, error) {
			n, err := p.Int("decimals", 2)
			if err == nil && (n < 0 || n > MaxRoundDecimals) {
				err = fmt.Errorf("decimals must be between 0 and %d, got %d", MaxRoundDecimals, n)
			}
			return RoundOff(n), err
		},
		StageReplaceSplitters: func(p Params) (Stage, error) {
			m, err := p.Map("replacements")
			return ReplaceSplitters(m), err
		},
		StageReplaceSymbols: func(p Params) (Stage, error) {
			m, err := p.Map("replacements")
			return ReplaceSymbols(m), err
		},
		StageStripSymbols: func(p Params) (Stage, error) {
			known, err := p.String("symbols", DefaultSymbols)
			return StripSymbols(known), err
		},
		StageStandardizeDatetime: func(p Params) (Stage, error) {
			layouts, err := p.Strings("layouts")
			return StandardizeDatetime(layouts...), err
		},
		StageReplacePlaceholders: func(p Params) (Stage, error) {
			tokens, err := p.Strings("tokens")
			if err != nil {
				return Stage{}, err
			}
			if len(tokens) == 0 {
				return Stage{}, errors.New("tokens cannot be empty")
			}
			repl := model.Null()
			if _, ok := p["replacement"]; ok {
				s, err := p.String("replacement", "")
				if err != nil {
					return Stage{}, err
				}
				repl = model.String(s)
			}
			return ReplacePlaceholders(tokens, repl), nil
		},
	}
}

// Register adds or replaces a factory
func (f Factories) Register(name string, factory Factory) {
	f[name] = factory
}

// Names returns the registered stage names, sorted
func (f Factories) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates the stages a spec lists, in order
func (f Factories) Build(spec PipelineSpec) ([]Stage, error) {
	stages := make([]Stage, 0, len(spec.Stages))
	for _, ss := range spec.Stages {
		factory, ok := f[ss.Name]
		if !ok {
			return nil, &model.ConfigurationError{Component: "pipeline", Name: ss.Name, Reason: "unknown stage"}
		}
		stage, err := factory(Params(ss.Params))
		if err != nil {
			return nil, &model.ConfigurationError{Component: "pipeline", Name: ss.Name, Reason: err.Error()}
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

// BuildPipeline builds a pipeline from a spec with the built-in factories.
// The spec's in_place flag applies unless an option overrides it.
func BuildPipeline(spec PipelineSpec, opts ...PipelineOption) (*Pipeline, error) {
	return NewFactories().BuildPipeline(spec, opts...)
}

// BuildPipeline builds a pipeline from a spec with these factories
func (f Factories) BuildPipeline(spec PipelineSpec, opts ...PipelineOption) (*Pipeline, error) {
	if spec.Domain != "" {
		if _, err := model.ParseDomain(spec.Domain); err != nil {
			return nil, &model.ConfigurationError{Component: "pipeline", Name: spec.Name, Reason: err.Error()}
		}
	}

	stages, err := f.Build(spec)
	if err != nil {
		return nil, err
	}

	base := []PipelineOption{WithInPlace(spec.InPlace)}
	if spec.Name != "" {
		base = append(base, WithName(spec.Name))
	}
	return NewPipeline(stages, append(base, opts...)...)
}

// Params holds decoded stage parameters
type Params map[string]any

// String returns a string parameter or def when absent
func (p Params) String(key, def string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return def, fmt.Errorf("param %s: expected string, got %T", key, v)
	}
	return s, nil
}

// Int returns an integer parameter or def when absent
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return def, fmt.Errorf("param %s: expected integer, got %v", key, n)
		}
		return int(n), nil
	default:
		return def, fmt.Errorf("param %s: expected integer, got %T", key, v)
	}
}

// Strings returns a list parameter. Absent means nil.
func (p Params) Strings(key string) ([]string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("param %s[%d]: expected string, got %T", key, i, item)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("param %s: expected list, got %T", key, v)
	}
}

// Map returns a string-to-string map parameter. Absent means empty.
func (p Params) Map(key string) (map[string]string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return map[string]string{}, nil
	}
	switch m := v.(type) {
	case map[string]string:
		return m, nil
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, item := range m {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("param %s.%s: expected string, got %T", key, k, item)
			}
			out[k] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("param %s: expected map, got %T", key, v)
	}
}
