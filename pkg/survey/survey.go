// pkg/survey/survey.go
package survey

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TheDucky-2/DataLabX/pkg/classifier"
	"github.com/TheDucky-2/DataLabX/pkg/ledger"
	"github.com/TheDucky-2/DataLabX/pkg/model"
	"github.com/TheDucky-2/DataLabX/pkg/runner"
)

// TableSource lists and reads the tables of a database schema.
// connector.Source satisfies it.
type TableSource interface {
	ListTables(ctx context.Context, schema string) ([]string, error)
	ReadTable(ctx context.Context, schema, table string, columns []string, limit int) (*model.Table, error)
}

// Surveyor diagnoses, and optionally cleans, every table of a schema
type Surveyor struct {
	source   TableSource
	manager  *runner.Manager
	logger   *zap.Logger
	rowLimit int
	clean    bool
}

// Option configures a surveyor
type Option func(*Surveyor)

// WithRowLimit caps the rows read from each table
func WithRowLimit(limit int) Option {
	return func(s *Surveyor) {
		s.rowLimit = limit
	}
}

// WithCleaning also runs each table through the default pipelines
func WithCleaning(enabled bool) Option {
	return func(s *Surveyor) {
		s.clean = enabled
	}
}

// NewSurveyor creates a surveyor over a table source
func NewSurveyor(source TableSource, manager *runner.Manager, opts ...Option) *Surveyor {
	rc := manager.RunContext()
	s := &Surveyor{
		source:  source,
		manager: manager,
		logger:  rc.Logger.Named("survey").With(zap.String("runID", rc.RunID)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TableResult represents the outcome of surveying one table
type TableResult struct {
	Schema    string
	Table     string
	Rows      int
	Success   bool
	Report    *classifier.Report
	Diagnosis *runner.Summary
	Cleaned   *model.Table   // Only with cleaning
	Ledger    *ledger.Ledger // Only with cleaning
	Cleaning  *runner.Summary
	Err       error
	Duration  time.Duration
}

// SchemaResult represents the outcome of surveying a schema
type SchemaResult struct {
	Schema   string
	Tables   []TableResult
	Excluded []string
	Duration time.Duration
}

// Succeeded returns the tables surveyed without error
func (r *SchemaResult) Succeeded() []string {
	var names []string
	for _, t := range r.Tables {
		if t.Success {
			names = append(names, t.Table)
		}
	}
	return names
}

// Failed returns the tables whose survey errored
func (r *SchemaResult) Failed() []string {
	var names []string
	for _, t := range r.Tables {
		if !t.Success {
			names = append(names, t.Table)
		}
	}
	return names
}

// SurveyTable reads one table and diagnoses every column. Failures are
// recorded in the result rather than returned.
func (s *Surveyor) SurveyTable(ctx context.Context, schema, table string) TableResult {
	start := time.Now()
	result := TableResult{Schema: schema, Table: table}
	defer func() {
		result.Duration = time.Since(start)
	}()

	logger := s.logger.With(zap.String("schema", schema), zap.String("table", table))

	data, err := s.source.ReadTable(ctx, schema, table, nil, s.rowLimit)
	if err != nil {
		result.Err = err
		logger.Warn("Failed to read table", zap.Error(err))
		return result
	}
	result.Rows = data.Len()

	report, diagnosis, err := s.manager.Diagnose(ctx, data, nil)
	result.Report, result.Diagnosis = report, diagnosis
	if err != nil {
		result.Err = err
		return result
	}

	if s.clean {
		cleaned, l, cleaning, err := s.manager.Clean(ctx, data, nil)
		result.Cleaned, result.Ledger, result.Cleaning = cleaned, l, cleaning
		if err != nil {
			result.Err = err
			return result
		}
	}

	result.Success = true
	logger.Info("Table surveyed",
		zap.Int("rows", result.Rows),
		zap.Int("columns", len(report.Columns())),
		zap.Int("failedColumns", len(diagnosis.Failed())))
	return result
}

// SurveySchema surveys the schema's tables matching includePattern and not
// matching excludePattern. Patterns use SQL LIKE syntax; empty matches all.
func (s *Surveyor) SurveySchema(ctx context.Context, schema, includePattern, excludePattern string) (*SchemaResult, error) {
	s.logger.Info("Starting schema survey",
		zap.String("schema", schema),
		zap.String("includePattern", includePattern),
		zap.String("excludePattern", excludePattern))

	start := time.Now()
	result := &SchemaResult{Schema: schema}

	tables, err := s.source.ListTables(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to get table list: %w", err)
	}

	for _, table := range tables {
		if !shouldIncludeTable(table, includePattern, excludePattern) {
			result.Excluded = append(result.Excluded, table)
			continue
		}
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
		result.Tables = append(result.Tables, s.SurveyTable(ctx, schema, table))
	}

	result.Duration = time.Since(start)
	s.logger.Info("Schema survey completed",
		zap.String("schema", schema),
		zap.Int("successfulTables", len(result.Succeeded())),
		zap.Int("failedTables", len(result.Failed())),
		zap.Int("excludedTables", len(result.Excluded)),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// SurveyAll surveys each schema in turn, stopping early on cancellation.
// A schema whose table list cannot be read is logged and skipped.
func (s *Surveyor) SurveyAll(ctx context.Context, schemas []string, includePattern, excludePattern string) ([]*SchemaResult, error) {
	if len(schemas) == 0 {
		return nil, fmt.Errorf("no schemas provided for survey")
	}

	var results []*SchemaResult
	for _, schema := range schemas {
		res, err := s.SurveySchema(ctx, schema, includePattern, excludePattern)
		if ctxErr := ctx.Err(); ctxErr != nil {
			if res != nil {
				results = append(results, res)
			}
			return results, ctxErr
		}
		if err != nil {
			s.logger.Error("Failed to survey schema",
				zap.String("schema", schema),
				zap.Error(err))
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

// shouldIncludeTable checks if a table should be included based on patterns
func shouldIncludeTable(tableName, includePattern, excludePattern string) bool {
	if includePattern != "" && !matchPattern(tableName, includePattern) {
		return false
	}
	if excludePattern != "" && matchPattern(tableName, excludePattern) {
		return false
	}
	return true
}

// matchPattern matches a name against a SQL LIKE pattern, case-insensitively:
// % is any run of characters, _ is exactly one. An empty pattern matches all.
func matchPattern(s, pattern string) bool {
	if pattern == "" {
		return true
	}

	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(s)
}
