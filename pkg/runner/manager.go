package runner

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/TheDucky-2/DataLabX/pkg/classifier"
	"github.com/TheDucky-2/DataLabX/pkg/cleaner"
	"github.com/TheDucky-2/DataLabX/pkg/config"
	"github.com/TheDucky-2/DataLabX/pkg/ledger"
	"github.com/TheDucky-2/DataLabX/pkg/model"
	"github.com/TheDucky-2/DataLabX/pkg/registry"
	"github.com/TheDucky-2/DataLabX/pkg/run"
	"github.com/TheDucky-2/DataLabX/pkg/verify"
)

// Manager orchestrates per-column diagnosis and cleaning, selecting each
// column's catalog and default pipeline by its domain tag
type Manager struct {
	registry    *registry.Registry
	rc          run.Context
	classifier  *classifier.Classifier
	verifier    *verify.Verifier
	logger      *zap.Logger
	workers     []*Worker
	workerCount int
	inPlace     bool
	verifyRuns  bool
}

// Option configures a manager
type Option func(*Manager)

// WithWorkerCount sets the number of worker goroutines
func WithWorkerCount(count int) Option {
	return func(m *Manager) {
		if count > 0 {
			m.workerCount = count
		}
	}
}

// WithInPlace makes Clean mutate its input table
func WithInPlace(inPlace bool) Option {
	return func(m *Manager) {
		m.inPlace = inPlace
	}
}

// WithVerification runs the verify checks after every call and records
// failures as summary warnings
func WithVerification(enabled bool) Option {
	return func(m *Manager) {
		m.verifyRuns = enabled
	}
}

// NewManager creates a manager over a registry
func NewManager(reg *registry.Registry, rc run.Context, opts ...Option) *Manager {
	rc = rc.WithDefaults()
	m := &Manager{
		registry:    reg,
		rc:          rc,
		classifier:  classifier.New(rc),
		verifier:    verify.NewVerifier(rc),
		logger:      rc.Logger.Named("runner").With(zap.String("runID", rc.RunID)),
		workerCount: rc.Workers,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.workers = make([]*Worker, m.workerCount)
	for i := range m.workers {
		m.workers[i] = NewWorker(i, m.classifier, m.logger)
	}

	if rc.Metrics != nil {
		rc.Metrics.Begin(rc.RunID)
	}
	return m
}

// FromConfig builds the default registry and a manager from loaded configuration
func FromConfig(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Manager, error) {
	reg, err := registry.Default(registry.Options{Placeholders: cfg.Placeholders})
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}
	opts = append([]Option{WithInPlace(cfg.InPlace)}, opts...)
	return NewManager(reg, run.FromConfig(cfg, logger), opts...), nil
}

// RunContext returns the context the manager runs under
func (m *Manager) RunContext() run.Context {
	return m.rc
}

// Diagnose classifies each column with the catalog registered for its
// domain. Columns absent from the table or with no registered domain are
// skipped. If any column fails, for instance with a backend conversion
// error, no report is returned; the summary still records every column.
func (m *Manager) Diagnose(ctx context.Context, table *model.Table, columns []string) (*classifier.Report, *Summary, error) {
	summary := NewSummary(m.rc.RunID, JobDiagnose)

	var jobs []ColumnJob
	for i, col := range m.resolve(table, columns, summary) {
		catalog, err := m.registry.Catalog(col.Domain)
		if err != nil {
			summary.MarkSkipped(col.Name, err.Error())
			continue
		}
		job := NewColumnJob(JobDiagnose, col.Name, col.Domain)
		job.Position = i
		job.table = table
		job.catalog = catalog
		jobs = append(jobs, job)
	}

	err := m.execute(ctx, jobs, func(result ColumnResult) error {
		summary.AddResult(result)
		return nil
	})
	summary.Complete()
	if err != nil {
		return nil, summary, err
	}
	if err := summary.FatalErr(); err != nil {
		m.logger.Error("Diagnosis aborted",
			zap.Strings("failed", summary.Failed()),
			zap.Error(err))
		return nil, summary, err
	}

	report := classifier.NewReport()
	for _, r := range summary.Columns {
		if !r.Success {
			continue
		}
		if err := report.Add(r.report); err != nil {
			return nil, summary, err
		}
	}

	if m.verifyRuns {
		res := m.verifier.VerifyRowIdentity(table, report)
		m.warnOnFailure(summary, res)
	}

	m.logger.Info("Diagnosis completed",
		zap.Int("columns", len(summary.Columns)),
		zap.Int("failed", len(summary.Failed())),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Duration("duration", summary.Duration))

	return report, summary, nil
}

// Clean runs each column's default pipeline. The returned ledger is frozen.
// Unless the manager was built in place, the input table is left untouched.
// Cleaned columns are written only once every job has succeeded, so a failed
// call never leaves an in-place table half written.
func (m *Manager) Clean(ctx context.Context, table *model.Table, columns []string) (*model.Table, *ledger.Ledger, *Summary, error) {
	summary := NewSummary(m.rc.RunID, JobClean)

	target := table
	if !m.inPlace {
		target = table.Clone()
	}

	pipelines := make(map[model.Domain]*cleaner.Pipeline)
	var jobs []ColumnJob
	for i, col := range m.resolve(target, columns, summary) {
		p, ok := pipelines[col.Domain]
		if !ok {
			stages, err := m.registry.Stages(col.Domain)
			if err != nil {
				summary.MarkSkipped(col.Name, err.Error())
				continue
			}
			p, err = cleaner.NewPipeline(stages,
				cleaner.WithName(col.Domain.String()),
				cleaner.WithRunContext(m.rc))
			if err != nil {
				return nil, nil, summary, err
			}
			pipelines[col.Domain] = p
		}

		job := NewColumnJob(JobClean, col.Name, col.Domain)
		job.Position = i
		job.data = col
		job.pipeline = p
		jobs = append(jobs, job)
	}

	err := m.execute(ctx, jobs, func(result ColumnResult) error {
		summary.AddResult(result)
		return nil
	})
	summary.Complete()
	if err != nil {
		return nil, nil, summary, err
	}
	if err := summary.FatalErr(); err != nil {
		m.logger.Error("Cleaning aborted",
			zap.Strings("failed", summary.Failed()),
			zap.Error(err))
		return nil, nil, summary, err
	}

	runLedger := ledger.New()
	for _, result := range summary.Columns {
		if !result.Success {
			continue
		}
		if err := target.SetCells(result.Column, result.cells); err != nil {
			return nil, nil, summary, fmt.Errorf("failed to write column %s: %w", result.Column, err)
		}
		if err := runLedger.Merge(result.delta); err != nil {
			return nil, nil, summary, err
		}
		if m.rc.Metrics != nil {
			m.rc.Metrics.RecordCleaning(result.outcome)
		}
	}
	runLedger.Freeze()

	if m.verifyRuns {
		for _, p := range pipelines {
			res := m.verifier.VerifyLedgerSoundness(p.Stages(), ledgerFor(runLedger, p, jobs))
			m.warnOnFailure(summary, res)
		}
	}

	m.logger.Info("Cleaning completed",
		zap.Int("columns", len(summary.Columns)),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Int("notCleaned", runLedger.Len()),
		zap.Bool("inPlace", m.inPlace),
		zap.Duration("duration", summary.Duration))

	return target, runLedger, summary, nil
}

// resolve returns the requested columns present in the table, in request
// order without duplicates. A nil columns slice means every column.
func (m *Manager) resolve(table *model.Table, columns []string, summary *Summary) []model.Column {
	if columns == nil {
		columns = table.ColumnNames()
	}

	seen := make(map[string]bool, len(columns))
	out := make([]model.Column, 0, len(columns))
	for _, name := range columns {
		if seen[name] {
			continue
		}
		seen[name] = true

		col, ok := table.Column(name)
		if !ok {
			m.logger.Debug("Skipping absent column", zap.String("column", name))
			summary.MarkSkipped(name, "column not in table")
			continue
		}
		out = append(out, col)
	}
	return out
}

// execute runs jobs on the worker pool and hands each result to collect on
// the calling goroutine, so collect needs no locking
func (m *Manager) execute(ctx context.Context, jobs []ColumnJob, collect func(ColumnResult) error) error {
	if len(jobs) == 0 {
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobQueue := make(chan ColumnJob, len(jobs))
	resultQueue := make(chan ColumnResult, len(jobs))

	var wg sync.WaitGroup
	for _, w := range m.workers[:min(len(m.workers), len(jobs))] {
		wg.Add(1)
		go func(worker *Worker) {
			defer wg.Done()
			worker.Start(ctx, jobQueue, resultQueue)
		}(w)
	}

	for _, job := range jobs {
		jobQueue <- job
		m.logger.Debug("Submitted job",
			zap.String("kind", string(job.Kind)),
			zap.String("column", job.Column),
			zap.String("jobID", job.ID))
	}
	close(jobQueue)

	go func() {
		wg.Wait()
		close(resultQueue)
	}()

	var collectErr error
	for result := range resultQueue {
		if collectErr != nil {
			continue
		}
		if err := collect(result); err != nil {
			collectErr = err
			cancel()
		}
	}

	if collectErr != nil {
		return collectErr
	}
	return ctx.Err()
}

// ledgerFor narrows the run ledger to the columns a pipeline cleaned
func ledgerFor(l *ledger.Ledger, p *cleaner.Pipeline, jobs []ColumnJob) *ledger.Ledger {
	narrowed := ledger.New()
	for _, job := range jobs {
		if job.pipeline != p {
			continue
		}
		for stage, values := range l.ForColumn(job.Column) {
			for _, v := range values {
				_ = narrowed.Add(job.Column, stage, v)
			}
		}
	}
	return narrowed
}

func (m *Manager) warnOnFailure(summary *Summary, res verify.Result) {
	if res.Passed {
		return
	}
	for _, d := range res.Discrepancies {
		summary.AddWarning(fmt.Sprintf("%s: %s", res.Check, d))
	}
}
