// pkg/cleaner/cleaner.go
package cleaner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TheDucky-2/DataLabX/pkg/ledger"
	"github.com/TheDucky-2/DataLabX/pkg/model"
	"github.com/TheDucky-2/DataLabX/pkg/run"
)

// Pipeline runs an ordered list of stages over table columns. Stage order and
// the mutation policy are fixed at construction.
type Pipeline struct {
	name    string
	stages  []Stage
	inPlace bool
	rc      run.Context
	logger  *zap.Logger
}

// PipelineOption configures a pipeline at construction
type PipelineOption func(*Pipeline)

// WithInPlace makes Run mutate its input table instead of returning a copy
func WithInPlace(inPlace bool) PipelineOption {
	return func(p *Pipeline) {
		p.inPlace = inPlace
	}
}

// WithRunContext binds the logger, worker limit and metrics of a run
func WithRunContext(rc run.Context) PipelineOption {
	return func(p *Pipeline) {
		p.rc = rc
	}
}

// WithName labels the pipeline in logs
func WithName(name string) PipelineOption {
	return func(p *Pipeline) {
		p.name = name
	}
}

// NewPipeline creates a pipeline. Zero stages, an invalid stage or a
// duplicate stage name is a configuration error.
func NewPipeline(stages []Stage, opts ...PipelineOption) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, &model.ConfigurationError{Component: "pipeline", Reason: "pipeline needs at least one stage"}
	}

	seen := make(map[string]bool, len(stages))
	for _, s := range stages {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.Name] {
			return nil, &model.ConfigurationError{Component: "pipeline", Name: s.Name, Reason: "duplicate stage name"}
		}
		seen[s.Name] = true
	}

	p := &Pipeline{
		name:   "default",
		stages: append([]Stage(nil), stages...),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.rc = p.rc.WithDefaults()
	p.logger = p.rc.Logger.Named("cleaner").With(
		zap.String("pipeline", p.name),
		zap.String("runID", p.rc.RunID),
	)

	return p, nil
}

// MustPipeline is NewPipeline that panics on error
func MustPipeline(stages []Stage, opts ...PipelineOption) *Pipeline {
	p, err := NewPipeline(stages, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the pipeline label
func (p *Pipeline) Name() string {
	return p.name
}

// Stages returns a copy of the stage list in execution order
func (p *Pipeline) Stages() []Stage {
	return append([]Stage(nil), p.stages...)
}

// Names returns the stage names in execution order
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// InPlace reports whether Run mutates its input table
func (p *Pipeline) InPlace() bool {
	return p.inPlace
}

// ApplyColumn runs every stage in order, each on the previous stage's output,
// and returns the cleaned cells with the column's ledger delta
func (p *Pipeline) ApplyColumn(column string, cells []model.Cell) ([]model.Cell, *ledger.Ledger) {
	out, delta, _ := p.applyColumn(column, "", cells)
	return out, delta
}

// CleanColumn is ApplyColumn for a table column, also returning the per-stage
// outcome. Callers that fan out columns themselves use it and merge the
// deltas at column boundaries.
func (p *Pipeline) CleanColumn(col model.Column) ([]model.Cell, *ledger.Ledger, model.ColumnOutcome) {
	return p.applyColumn(col.Name, col.Domain, col.Cells)
}

func (p *Pipeline) applyColumn(column string, domain model.Domain, cells []model.Cell) ([]model.Cell, *ledger.Ledger, model.ColumnOutcome) {
	start := time.Now()
	logger := p.logger.With(zap.String("column", column))

	outcome := model.ColumnOutcome{ColumnName: column, Domain: domain}
	delta := ledger.New()
	current := cells

	for _, s := range p.stages {
		next, stageDelta, so := s.apply(column, current, logger)
		_ = delta.Merge(stageDelta)
		outcome.Stages = append(outcome.Stages, so)
		current = next

		if so.Matched > 0 {
			logger.Debug("Stage applied",
				zap.String("stage", s.Name),
				zap.Int("matched", so.Matched),
				zap.Int("changed", so.Changed),
				zap.Int("notCleaned", so.NotCleaned))
		}
	}

	outcome.Duration = time.Since(start)
	return current, delta, outcome
}

// Run cleans the named columns, or every column when columns is nil. Columns
// absent from the table are skipped. The returned ledger is frozen. Unless
// the pipeline was built in place, the input table is left untouched.
func (p *Pipeline) Run(ctx context.Context, table *model.Table, columns []string) (*model.Table, *ledger.Ledger, error) {
	target := table
	if !p.inPlace {
		target = table.Clone()
	}

	if columns == nil {
		columns = target.ColumnNames()
	}

	present := make([]model.Column, 0, len(columns))
	seen := make(map[string]bool, len(columns))
	for _, name := range columns {
		if seen[name] {
			continue
		}
		seen[name] = true
		col, ok := target.Column(name)
		if !ok {
			p.logger.Debug("Skipping absent column", zap.String("column", name))
			continue
		}
		present = append(present, col)
	}

	type result struct {
		cells   []model.Cell
		delta   *ledger.Ledger
		outcome model.ColumnOutcome
	}
	results := make([]result, len(present))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.rc.Workers)
	for i, col := range present {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cells, delta, outcome := p.applyColumn(col.Name, col.Domain, col.Cells)
			results[i] = result{cells: cells, delta: delta, outcome: outcome}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	runLedger := ledger.New()
	for _, r := range results {
		if err := target.SetCells(r.outcome.ColumnName, r.cells); err != nil {
			return nil, nil, fmt.Errorf("failed to write column %s: %w", r.outcome.ColumnName, err)
		}
		if err := runLedger.Merge(r.delta); err != nil {
			return nil, nil, fmt.Errorf("failed to merge ledger for column %s: %w", r.outcome.ColumnName, err)
		}
		if p.rc.Metrics != nil {
			p.rc.Metrics.RecordCleaning(r.outcome)
		}
	}
	runLedger.Freeze()

	p.logger.Info("Cleaned table",
		zap.Int("columns", len(present)),
		zap.Int("rows", target.Len()),
		zap.Int("notCleaned", runLedger.Len()),
		zap.Bool("inPlace", p.inPlace))

	return target, runLedger, nil
}
