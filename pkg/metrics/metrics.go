package metrics

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// DefaultNamespace prefixes every metric name
const DefaultNamespace = "datalab"

// ColumnSummary tracks metrics for a single column across one run
type ColumnSummary struct {
	ColumnName     string
	Domain         model.Domain
	Backend        string
	CellsSeen      int
	DiagnosticHits map[string]int
	Changed        int
	NotCleaned     int
	Failed         int
	Duration       time.Duration
}

// RunSummary is an in-memory view of what one run did
type RunSummary struct {
	RunID           string
	StartTime       time.Time
	EndTime         time.Time
	Columns         []ColumnSummary
	CellsClassified int
	CellsChanged    int
	NotCleaned      int
	ErrorCounts     map[model.ErrorCategory]int
}

// Duration returns the total duration of the run
func (s RunSummary) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Collector records classification and repair metrics, both as Prometheus
// series and as an in-memory run summary
type Collector struct {
	mu       sync.Mutex
	logger   *zap.Logger
	registry *prometheus.Registry

	cellsClassified *prometheus.CounterVec
	diagnosticHits  *prometheus.CounterVec
	backendSelected *prometheus.CounterVec
	stageMatched    *prometheus.CounterVec
	stageChanged    *prometheus.CounterVec
	notCleaned      *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	classifySeconds *prometheus.HistogramVec
	cleanSeconds    *prometheus.HistogramVec

	runID     string
	startTime time.Time
	endTime   time.Time
	columns   map[string]*ColumnSummary
	order     []string
	errors    map[model.ErrorCategory]int
}

// NewCollector creates a collector registered on its own registry
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Collector{
		logger:   logger.Named("metrics"),
		registry: prometheus.NewRegistry(),
		cellsClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cells_classified_total",
			Help:      "Cells evaluated by the classifier.",
		}, []string{"domain"}),
		diagnosticHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostic_hits_total",
			Help:      "Cells matched by a diagnostic predicate.",
		}, []string{"domain", "diagnostic"}),
		backendSelected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_selected_total",
			Help:      "Columns classified per backend.",
		}, []string{"backend"}),
		stageMatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_matched_total",
			Help:      "Cells selected by a repair stage matcher.",
		}, []string{"stage"}),
		stageChanged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_changed_total",
			Help:      "Cells rewritten by a repair stage.",
		}, []string{"stage"}),
		notCleaned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "not_cleaned_total",
			Help:      "Matched cells a repair stage left unchanged.",
		}, []string{"stage"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors by category.",
		}, []string{"category"}),
		classifySeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_column_seconds",
			Help:      "Time spent classifying one column.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend"}),
		cleanSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "clean_column_seconds",
			Help:      "Time spent running a pipeline over one column.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"domain"}),
		startTime: time.Now(),
		columns:   make(map[string]*ColumnSummary),
		errors:    make(map[model.ErrorCategory]int),
	}

	c.registry.MustRegister(
		c.cellsClassified,
		c.diagnosticHits,
		c.backendSelected,
		c.stageMatched,
		c.stageChanged,
		c.notCleaned,
		c.errorsTotal,
		c.classifySeconds,
		c.cleanSeconds,
	)
	return c
}

// Registry exposes the collector's registry, e.g. for promhttp.HandlerFor
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Begin starts a new run summary
func (c *Collector) Begin(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.runID = runID
	c.startTime = time.Now()
	c.endTime = time.Time{}
	c.columns = make(map[string]*ColumnSummary)
	c.order = nil
	c.errors = make(map[model.ErrorCategory]int)

	c.logger.Debug("Started run", zap.String("runID", runID))
}

// column returns the summary entry, creating it on first use. Callers hold mu.
func (c *Collector) column(name string) *ColumnSummary {
	cs, ok := c.columns[name]
	if !ok {
		cs = &ColumnSummary{ColumnName: name, DiagnosticHits: make(map[string]int)}
		c.columns[name] = cs
		c.order = append(c.order, name)
	}
	return cs
}

// RecordClassification records the outcome of classifying one column
func (c *Collector) RecordClassification(column string, domain model.Domain, backend string, cells int, hits map[string]int, d time.Duration) {
	c.cellsClassified.WithLabelValues(domain.String()).Add(float64(cells))
	c.backendSelected.WithLabelValues(backend).Inc()
	c.classifySeconds.WithLabelValues(backend).Observe(d.Seconds())
	for name, n := range hits {
		c.diagnosticHits.WithLabelValues(domain.String(), name).Add(float64(n))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cs := c.column(column)
	cs.Domain = domain
	cs.Backend = backend
	cs.CellsSeen = cells
	cs.Duration += d
	for name, n := range hits {
		cs.DiagnosticHits[name] += n
	}
}

// RecordCleaning records the outcome of a pipeline run over one column
func (c *Collector) RecordCleaning(outcome model.ColumnOutcome) {
	for _, s := range outcome.Stages {
		c.stageMatched.WithLabelValues(s.StageName).Add(float64(s.Matched))
		c.stageChanged.WithLabelValues(s.StageName).Add(float64(s.Changed))
		c.notCleaned.WithLabelValues(s.StageName).Add(float64(s.NotCleaned))
	}
	c.cleanSeconds.WithLabelValues(outcome.Domain.String()).Observe(outcome.Duration.Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	cs := c.column(outcome.ColumnName)
	if outcome.Domain != "" {
		cs.Domain = outcome.Domain
	}
	cs.Duration += outcome.Duration
	for _, s := range outcome.Stages {
		cs.Changed += s.Changed
		cs.NotCleaned += s.NotCleaned
		cs.Failed += s.Failed
	}
}

// RecordError increments the count for the error's category
func (c *Collector) RecordError(err error) {
	if err == nil {
		return
	}
	category := model.Categorize(err)
	c.errorsTotal.WithLabelValues(category.String()).Inc()

	c.mu.Lock()
	c.errors[category]++
	c.mu.Unlock()
}

// Complete marks the run as finished and logs its summary
func (c *Collector) Complete() RunSummary {
	c.mu.Lock()
	c.endTime = time.Now()
	c.mu.Unlock()

	summary := c.Summary()
	c.logger.Info("Run completed",
		zap.String("runID", summary.RunID),
		zap.Duration("duration", summary.Duration()),
		zap.Int("columns", len(summary.Columns)),
		zap.Int("cellsClassified", summary.CellsClassified),
		zap.Int("cellsChanged", summary.CellsChanged),
		zap.Int("notCleaned", summary.NotCleaned))
	return summary
}

// Summary snapshots the current run
func (c *Collector) Summary() RunSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := RunSummary{
		RunID:       c.runID,
		StartTime:   c.startTime,
		EndTime:     c.endTime,
		Columns:     make([]ColumnSummary, 0, len(c.order)),
		ErrorCounts: make(map[model.ErrorCategory]int, len(c.errors)),
	}
	for _, name := range c.order {
		cs := *c.columns[name]
		cs.DiagnosticHits = make(map[string]int, len(c.columns[name].DiagnosticHits))
		for k, v := range c.columns[name].DiagnosticHits {
			cs.DiagnosticHits[k] = v
		}
		s.Columns = append(s.Columns, cs)
		s.CellsClassified += cs.CellsSeen
		s.CellsChanged += cs.Changed
		s.NotCleaned += cs.NotCleaned
	}
	for k, v := range c.errors {
		s.ErrorCounts[k] = v
	}
	return s
}

// Report renders a human-readable summary of the run
func (s RunSummary) Report() string {
	report := fmt.Sprintf(`
Run Report
==========
Run ID:            %s
Duration:          %s
Columns:           %d
Cells Classified:  %d
Cells Changed:     %d
Not Cleaned:       %d
`,
		s.RunID,
		formatDuration(s.Duration()),
		len(s.Columns),
		s.CellsClassified,
		s.CellsChanged,
		s.NotCleaned,
	)

	report += "\nColumn Details\n--------------\n"
	for _, cs := range s.Columns {
		report += fmt.Sprintf("- %s (%s): %d cells, %d changed, %d not cleaned, %s\n",
			cs.ColumnName, cs.Domain, cs.CellsSeen, cs.Changed, cs.NotCleaned, formatDuration(cs.Duration))

		names := make([]string, 0, len(cs.DiagnosticHits))
		for name := range cs.DiagnosticHits {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			report += fmt.Sprintf("    %s: %d\n", name, cs.DiagnosticHits[name])
		}
	}

	if len(s.ErrorCounts) > 0 {
		report += "\nError Distribution\n------------------\n"
		for category, count := range s.ErrorCounts {
			report += fmt.Sprintf("- %s: %d\n", category.String(), count)
		}
	}
	return report
}

// ToJSON serializes the summary to JSON
func (s RunSummary) ToJSON() ([]byte, error) {
	errs := make(map[string]int, len(s.ErrorCounts))
	for k, v := range s.ErrorCounts {
		errs[k.String()] = v
	}

	return json.Marshal(struct {
		RunID           string          `json:"runId"`
		Duration        string          `json:"duration"`
		CellsClassified int             `json:"cellsClassified"`
		CellsChanged    int             `json:"cellsChanged"`
		NotCleaned      int             `json:"notCleaned"`
		Columns         []ColumnSummary `json:"columns"`
		Errors          map[string]int  `json:"errors"`
	}{
		RunID:           s.RunID,
		Duration:        formatDuration(s.Duration()),
		CellsClassified: s.CellsClassified,
		CellsChanged:    s.CellsChanged,
		NotCleaned:      s.NotCleaned,
		Columns:         s.Columns,
		Errors:          errs,
	})
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
