// pkg/classifier/classifier.go
package classifier

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TheDucky-2/DataLabX/pkg/model"
	"github.com/TheDucky-2/DataLabX/pkg/pattern"
	"github.com/TheDucky-2/DataLabX/pkg/run"
)

// Classifier evaluates a pattern catalog against table columns
type Classifier struct {
	rc     run.Context
	logger *zap.Logger
	row    backend
	arrow  backend
}

// New creates a classifier bound to a run context
func New(rc run.Context) *Classifier {
	rc = rc.WithDefaults()
	return &Classifier{
		rc:     rc,
		logger: rc.Logger.Named("classifier").With(zap.String("runID", rc.RunID)),
		row:    rowBackend{},
		arrow:  newArrowBackend(),
	}
}

// backendFor applies the size policy: the columnar backend at or above the threshold
func (c *Classifier) backendFor(rows int) backend {
	if rows >= c.rc.BackendThreshold {
		return c.arrow
	}
	return c.row
}

// Classify evaluates the catalog, or the named subset of it, against columns.
// A nil columns slice means every column. Columns absent from the table are
// skipped; unknown diagnostic names fail before any work starts.
func (c *Classifier) Classify(ctx context.Context, table *model.Table, columns []string, catalog *pattern.Catalog, diagnostics ...string) (*Report, error) {
	preds, err := catalog.Select(diagnostics...)
	if err != nil {
		c.recordError(err)
		return nil, err
	}

	if columns == nil {
		columns = table.ColumnNames()
	}

	present := make([]string, 0, len(columns))
	seen := make(map[string]bool, len(columns))
	for _, name := range columns {
		if seen[name] {
			continue
		}
		seen[name] = true
		if !table.HasColumn(name) {
			c.logger.Debug("Skipping absent column", zap.String("column", name))
			continue
		}
		present = append(present, name)
	}

	results := make([]ColumnReport, len(present))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.rc.Workers)
	for i, name := range present {
		g.Go(func() error {
			cr, err := c.classifyColumn(gctx, table, name, catalog.Domain(), preds)
			if err != nil {
				return err
			}
			results[i] = cr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.recordError(err)
		return nil, err
	}

	report := NewReport()
	for _, cr := range results {
		if err := report.Add(cr); err != nil {
			return nil, err
		}
	}

	c.logger.Info("Classified table",
		zap.Int("columns", report.Len()),
		zap.Int("rows", table.Len()),
		zap.String("domain", catalog.Domain().String()),
		zap.Int("diagnostics", len(preds)))

	return report, nil
}

// ClassifyColumn classifies one explicitly requested column. Unlike Classify,
// an absent column is an error.
func (c *Classifier) ClassifyColumn(ctx context.Context, table *model.Table, column string, catalog *pattern.Catalog, diagnostics ...string) (ColumnReport, error) {
	preds, err := catalog.Select(diagnostics...)
	if err != nil {
		c.recordError(err)
		return ColumnReport{}, err
	}
	if !table.HasColumn(column) {
		err := &model.UnknownColumnError{Column: column}
		c.recordError(err)
		return ColumnReport{}, err
	}

	cr, err := c.classifyColumn(ctx, table, column, catalog.Domain(), preds)
	if err != nil {
		c.recordError(err)
		return ColumnReport{}, err
	}
	return cr, nil
}

func (c *Classifier) classifyColumn(ctx context.Context, table *model.Table, column string, domain model.Domain, preds []pattern.Predicate) (ColumnReport, error) {
	start := time.Now()
	b := c.backendFor(table.Len())

	logger := c.logger.With(zap.String("column", column), zap.String("backend", b.Name()))
	logger.Debug("Classifying column", zap.Int("rows", table.Len()))

	matches, err := b.Filter(ctx, table, column, preds)
	if err != nil {
		if model.Categorize(err) == model.ErrorCategoryBackend {
			logger.Error("Backend conversion failed", zap.Error(err))
		}
		return ColumnReport{}, err
	}

	cr := newColumnReport(column, domain, b.Name(), table.Len())
	for _, p := range preds {
		cr.set(p.Name, matches[p.Name])
	}

	if c.rc.Metrics != nil {
		c.rc.Metrics.RecordClassification(column, domain, b.Name(), table.Len(), cr.Counts(), time.Since(start))
	}
	logger.Debug("Classified column", zap.Duration("duration", time.Since(start)))

	return cr, nil
}

func (c *Classifier) recordError(err error) {
	if c.rc.Metrics != nil {
		c.rc.Metrics.RecordError(err)
	}
}
