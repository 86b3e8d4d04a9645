// pkg/cleaner/stage.go
package cleaner

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/TheDucky-2/DataLabX/pkg/ledger"
	"github.com/TheDucky-2/DataLabX/pkg/model"
	"github.com/TheDucky-2/DataLabX/pkg/pattern"
)

// TransformFunc rewrites one matched cell
type TransformFunc func(model.Cell) (model.Cell, error)

// Stage is one matcher plus transform repair unit. It holds no state and may
// be shared across columns and pipelines.
type Stage struct {
	Name      string
	Matcher   pattern.Predicate
	Transform TransformFunc
}

// NewStage creates a stage
func NewStage(name string, matcher pattern.Predicate, transform TransformFunc) Stage {
	return Stage{Name: name, Matcher: matcher, Transform: transform}
}

// Validate checks that the stage can run
func (s Stage) Validate() error {
	if s.Name == "" {
		return &model.ConfigurationError{Component: "stage", Reason: "stage name cannot be empty"}
	}
	if s.Matcher.Match == nil {
		return &model.ConfigurationError{Component: "stage", Name: s.Name, Reason: "stage has no matcher"}
	}
	if s.Transform == nil {
		return &model.ConfigurationError{Component: "stage", Name: s.Name, Reason: "stage has no transform"}
	}
	return nil
}

// Matches reports whether the stage considers a cell
func (s Stage) Matches(c model.Cell) bool {
	return s.Matcher.Eval(c)
}

// Rewrite runs the transform on one cell. A panic is returned as an error.
func (s Stage) Rewrite(c model.Cell) (after model.Cell, err error) {
	defer func() {
		if r := recover(); r != nil {
			after = c
			err = fmt.Errorf("transform panicked: %v", r)
		}
	}()

	after, err = s.Transform(c)
	if err != nil {
		return c, err
	}
	return after, nil
}

// Apply runs the stage over a column. Unmatched cells pass through untouched.
// Matched cells whose value does not change, including those whose transform
// failed, are recorded in the returned ledger under (column, stage name).
func (s Stage) Apply(column string, cells []model.Cell) ([]model.Cell, *ledger.Ledger) {
	out, delta, _ := s.apply(column, cells, zap.NewNop())
	return out, delta
}

func (s Stage) apply(column string, cells []model.Cell, logger *zap.Logger) ([]model.Cell, *ledger.Ledger, model.StageOutcome) {
	out := make([]model.Cell, len(cells))
	delta := ledger.New()
	outcome := model.StageOutcome{ColumnName: column, StageName: s.Name}

	for i, before := range cells {
		if !s.Matches(before) {
			out[i] = before
			continue
		}
		outcome.Matched++

		after, err := s.Rewrite(before)
		if err != nil {
			outcome.Failed++
			logger.Debug("Transform failed, keeping value",
				zap.Error(&model.TransformError{Stage: s.Name, Column: column, Value: before, Err: err}))
			after = before
		}

		if after.Equal(before) {
			outcome.NotCleaned++
			_ = delta.Add(column, s.Name, before)
			out[i] = before
			continue
		}

		outcome.Changed++
		out[i] = after
	}

	return out, delta, outcome
}
