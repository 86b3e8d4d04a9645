package runner

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TheDucky-2/DataLabX/pkg/classifier"
	"github.com/TheDucky-2/DataLabX/pkg/cleaner"
	"github.com/TheDucky-2/DataLabX/pkg/ledger"
	"github.com/TheDucky-2/DataLabX/pkg/model"
	"github.com/TheDucky-2/DataLabX/pkg/pattern"
)

// JobKind selects what a worker does with a column
type JobKind string

const (
	JobDiagnose JobKind = "diagnose"
	JobClean    JobKind = "clean"
)

// ColumnJob represents one column's unit of work
type ColumnJob struct {
	ID        string    // Unique job identifier
	Kind      JobKind   // Diagnose or clean
	Column    string    // Column name
	Domain    model.Domain
	Position  int       // Column position in the request, used to order results
	CreatedAt time.Time // Job creation timestamp

	table    *model.Table      // diagnose: read-only for the whole call
	data     model.Column      // clean: snapshot taken before workers start
	catalog  *pattern.Catalog  // diagnose
	pipeline *cleaner.Pipeline // clean
}

// NewColumnJob creates a job for a column
func NewColumnJob(kind JobKind, column string, domain model.Domain) ColumnJob {
	return ColumnJob{
		ID:        uuid.New().String(),
		Kind:      kind,
		Column:    column,
		Domain:    domain,
		CreatedAt: time.Now(),
	}
}

// ColumnResult represents the result of a column job
type ColumnResult struct {
	JobID      string
	Kind       JobKind
	Column     string
	Domain     model.Domain
	Position   int
	Success    bool
	Backend    string         // Diagnose only
	Hits       map[string]int // Diagnose only: diagnostic to match count
	Changed    int            // Clean only
	NotCleaned int            // Clean only
	Failed     int            // Clean only: transforms that errored
	Err        error
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	WorkerID   int

	report  classifier.ColumnReport
	cells   []model.Cell
	delta   *ledger.Ledger
	outcome model.ColumnOutcome
}

// NewColumnResult initializes a result for a job
func NewColumnResult(job ColumnJob, workerID int) *ColumnResult {
	return &ColumnResult{
		JobID:     job.ID,
		Kind:      job.Kind,
		Column:    job.Column,
		Domain:    job.Domain,
		Position:  job.Position,
		StartTime: time.Now(),
		WorkerID:  workerID,
	}
}

// Complete marks the result as finished and calculates duration
func (r *ColumnResult) Complete(err error) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Err = err
	r.Success = err == nil
}

// Summary represents the outcome of a Diagnose or Clean call
type Summary struct {
	RunID           string
	Kind            JobKind
	Columns         []ColumnResult // In request order
	Skipped         []string
	ErrorCategories map[model.ErrorCategory]int
	Warnings        []string
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}

// NewSummary initializes a summary
func NewSummary(runID string, kind JobKind) *Summary {
	return &Summary{
		RunID:           runID,
		Kind:            kind,
		StartTime:       time.Now(),
		ErrorCategories: make(map[model.ErrorCategory]int),
	}
}

// AddResult incorporates a column result
func (s *Summary) AddResult(result ColumnResult) {
	s.Columns = append(s.Columns, result)
	if result.Err != nil {
		s.ErrorCategories[model.Categorize(result.Err)]++
	}
}

// MarkSkipped records a column that was not processed
func (s *Summary) MarkSkipped(column, reason string) {
	s.Skipped = append(s.Skipped, column)
	s.Warnings = append(s.Warnings, fmt.Sprintf("skipped column %s: %s", column, reason))
}

// AddWarning records a non-fatal finding
func (s *Summary) AddWarning(warning string) {
	s.Warnings = append(s.Warnings, warning)
}

// Complete sorts results into request order and calculates duration
func (s *Summary) Complete() {
	sort.SliceStable(s.Columns, func(i, j int) bool {
		return s.Columns[i].Position < s.Columns[j].Position
	})
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// Succeeded returns the number of columns processed without error
func (s *Summary) Succeeded() int {
	n := 0
	for _, r := range s.Columns {
		if r.Success {
			n++
		}
	}
	return n
}

// Failed returns the names of columns whose job errored
func (s *Summary) Failed() []string {
	var failed []string
	for _, r := range s.Columns {
		if !r.Success {
			failed = append(failed, r.Column)
		}
	}
	return failed
}

// Result returns one column's result
func (s *Summary) Result(column string) (ColumnResult, bool) {
	for _, r := range s.Columns {
		if r.Column == column {
			return r, true
		}
	}
	return ColumnResult{}, false
}

// Err joins the errors of failed columns, or returns nil
func (s *Summary) Err() error {
	var errs []error
	for _, r := range s.Columns {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("column %s: %w", r.Column, r.Err))
		}
	}
	return errors.Join(errs...)
}

// FatalErr joins the errors that must abort the call, or returns nil.
// Backend conversion failures always count; absorbed cell-level errors never do.
func (s *Summary) FatalErr() error {
	var errs []error
	for _, r := range s.Columns {
		if r.Err != nil && model.IsFatal(r.Err) {
			errs = append(errs, fmt.Errorf("column %s: %w", r.Column, r.Err))
		}
	}
	return errors.Join(errs...)
}

// SuccessRate returns the percentage of processed columns without error
func (s *Summary) SuccessRate() float64 {
	if len(s.Columns) == 0 {
		return 0
	}
	return float64(s.Succeeded()) / float64(len(s.Columns)) * 100
}

// Report renders the summary as text
func (s *Summary) Report() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s run %s: %d columns, %d succeeded, %d skipped (%.1f%%) in %s\n",
		s.Kind, s.RunID, len(s.Columns), s.Succeeded(), len(s.Skipped), s.SuccessRate(), s.Duration.Round(time.Millisecond))

	for _, r := range s.Columns {
		status := "ok"
		if !r.Success {
			status = "FAILED: " + r.Err.Error()
		}
		switch r.Kind {
		case JobDiagnose:
			fmt.Fprintf(&b, "  %-20s %-9s backend=%s diagnostics=%d %s\n", r.Column, r.Domain, r.Backend, len(r.Hits), status)
		case JobClean:
			fmt.Fprintf(&b, "  %-20s %-9s changed=%d not_cleaned=%d failed=%d %s\n", r.Column, r.Domain, r.Changed, r.NotCleaned, r.Failed, status)
		}
	}
	for _, w := range s.Warnings {
		fmt.Fprintf(&b, "  warning: %s\n", w)
	}
	return b.String()
}
