// pkg/verify/verifier.go
package verify

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/TheDucky-2/DataLabX/pkg/classifier"
	"github.com/TheDucky-2/DataLabX/pkg/cleaner"
	"github.com/TheDucky-2/DataLabX/pkg/ledger"
	"github.com/TheDucky-2/DataLabX/pkg/model"
	"github.com/TheDucky-2/DataLabX/pkg/pattern"
	"github.com/TheDucky-2/DataLabX/pkg/run"
)

// Check names
const (
	CheckRowIdentity        = "row_identity"
	CheckLedgerSoundness    = "ledger_soundness"
	CheckComplementarity    = "complementarity"
	CheckBackendEquivalence = "backend_equivalence"
)

// Discrepancy is one violation found by a check
type Discrepancy struct {
	Column     string
	Diagnostic string // diagnostic or stage name, if any
	RowID      int64
	Value      model.Cell
	Detail     string
}

func (d Discrepancy) String() string {
	return fmt.Sprintf("%s/%s row %d %#v: %s", d.Column, d.Diagnostic, d.RowID, d.Value, d.Detail)
}

// Result holds the outcome of a single check
type Result struct {
	Check         string
	Passed        bool
	Checked       int // items examined
	Discrepancies []Discrepancy
	Truncated     bool // more discrepancies existed than were kept
	Duration      time.Duration
}

func (r *Result) fail(d Discrepancy, limit int) {
	r.Passed = false
	if len(r.Discrepancies) >= limit {
		r.Truncated = true
		return
	}
	r.Discrepancies = append(r.Discrepancies, d)
}

// VerificationReport groups the results of a verification pass
type VerificationReport struct {
	VerificationTime time.Time
	Results          []Result
	Duration         time.Duration
}

// Passed reports whether every check passed
func (r *VerificationReport) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Failed returns the names of checks that did not pass
func (r *VerificationReport) Failed() []string {
	var failed []string
	for _, res := range r.Results {
		if !res.Passed {
			failed = append(failed, res.Check)
		}
	}
	return failed
}

// Verifier checks classification and repair properties at runtime
type Verifier struct {
	rc               run.Context
	logger           *zap.Logger
	maxDiscrepancies int
}

// NewVerifier creates a verifier
func NewVerifier(rc run.Context) *Verifier {
	rc = rc.WithDefaults()
	return &Verifier{
		rc:               rc,
		logger:           rc.Logger.Named("verify"),
		maxDiscrepancies: 100,
	}
}

// WithMaxDiscrepancies caps the discrepancies kept per check
func (v *Verifier) WithMaxDiscrepancies(n int) *Verifier {
	if n > 0 {
		v.maxDiscrepancies = n
	}
	return v
}

// VerifyRowIdentity checks that every reported entry names a row the table
// owns, carries that row's current value, and appears in table row order
func (v *Verifier) VerifyRowIdentity(table *model.Table, report *classifier.Report) Result {
	start := time.Now()
	res := Result{Check: CheckRowIdentity, Passed: true}

	positions := make(map[int64]int, table.Len())
	for i, id := range table.RowIDs() {
		positions[id] = i
	}

	for _, column := range report.Columns() {
		cr, _ := report.ForColumn(column)
		for _, diagnostic := range cr.Diagnostics() {
			last := -1
			for _, e := range cr.Get(diagnostic) {
				res.Checked++
				pos, ok := positions[e.RowID]
				if !ok {
					res.fail(Discrepancy{Column: column, Diagnostic: diagnostic, RowID: e.RowID, Value: e.Value, Detail: "row id not in table"}, v.maxDiscrepancies)
					continue
				}
				if pos <= last {
					res.fail(Discrepancy{Column: column, Diagnostic: diagnostic, RowID: e.RowID, Value: e.Value, Detail: "entry out of table row order"}, v.maxDiscrepancies)
				}
				last = pos

				actual, ok := table.Cell(column, e.RowID)
				if !ok || !actual.Equal(e.Value) {
					res.fail(Discrepancy{Column: column, Diagnostic: diagnostic, RowID: e.RowID, Value: e.Value, Detail: fmt.Sprintf("table holds %#v", actual)}, v.maxDiscrepancies)
				}
			}
		}
	}

	res.Duration = time.Since(start)
	v.log(res)
	return res
}

// VerifyLedgerSoundness checks that every ledgered value is one its stage's
// matcher selects and its transform leaves unchanged or fails on
func (v *Verifier) VerifyLedgerSoundness(stages []cleaner.Stage, l *ledger.Ledger) Result {
	start := time.Now()
	res := Result{Check: CheckLedgerSoundness, Passed: true}

	byName := make(map[string]cleaner.Stage, len(stages))
	for _, s := range stages {
		byName[s.Name] = s
	}

	for _, column := range l.Columns() {
		for stageName, values := range l.ForColumn(column) {
			s, ok := byName[stageName]
			for _, value := range values {
				res.Checked++
				if !ok {
					res.fail(Discrepancy{Column: column, Diagnostic: stageName, Value: value, Detail: "stage not in pipeline"}, v.maxDiscrepancies)
					continue
				}
				if !s.Matches(value) {
					res.fail(Discrepancy{Column: column, Diagnostic: stageName, Value: value, Detail: "matcher does not select value"}, v.maxDiscrepancies)
					continue
				}
				if after, err := s.Rewrite(value); err == nil && !after.Equal(value) {
					res.fail(Discrepancy{Column: column, Diagnostic: stageName, Value: value, Detail: fmt.Sprintf("transform rewrites value to %#v", after)}, v.maxDiscrepancies)
				}
			}
		}
	}

	res.Duration = time.Since(start)
	v.log(res)
	return res
}

// VerifyComplementarity checks that exactly one predicate of each declared
// complementary pair holds on every non-null cell
func (v *Verifier) VerifyComplementarity(catalog *pattern.Catalog, cells []model.Cell) Result {
	start := time.Now()
	res := Result{Check: CheckComplementarity, Passed: true}

	for _, pair := range catalog.Complements() {
		a, _ := catalog.Lookup(pair[0])
		b, _ := catalog.Lookup(pair[1])
		for i, c := range cells {
			if c.IsNull() {
				continue
			}
			res.Checked++
			if a.Eval(c) == b.Eval(c) {
				res.fail(Discrepancy{
					Diagnostic: pair[0] + "/" + pair[1],
					RowID:      int64(i),
					Value:      c,
					Detail:     fmt.Sprintf("both predicates returned %t", a.Eval(c)),
				}, v.maxDiscrepancies)
			}
		}
	}

	res.Duration = time.Since(start)
	v.log(res)
	return res
}

// VerifyBackendEquivalence classifies the columns once on each backend and
// checks that both produce the same (row id, value) sets per diagnostic
func (v *Verifier) VerifyBackendEquivalence(ctx context.Context, table *model.Table, columns []string, catalog *pattern.Catalog) (Result, error) {
	start := time.Now()
	res := Result{Check: CheckBackendEquivalence, Passed: true}
	if columns != nil && len(columns) == 0 {
		return res, nil
	}

	quiet := v.rc
	quiet.Metrics = nil
	rowReport, err := classifier.New(quiet.WithThreshold(math.MaxInt)).Classify(ctx, table, columns, catalog)
	if err != nil {
		return res, fmt.Errorf("row backend: %w", err)
	}
	arrowReport, err := classifier.New(quiet.WithThreshold(1)).Classify(ctx, table, columns, catalog)
	if err != nil {
		return res, fmt.Errorf("arrow backend: %w", err)
	}

	for _, column := range rowReport.Columns() {
		rowCol, _ := rowReport.ForColumn(column)
		arrowCol, ok := arrowReport.ForColumn(column)
		if !ok {
			res.fail(Discrepancy{Column: column, Detail: "column missing from arrow report"}, v.maxDiscrepancies)
			continue
		}
		for _, diagnostic := range rowCol.Diagnostics() {
			res.Checked++
			want := entrySet(rowCol.Get(diagnostic))
			got := entrySet(arrowCol.Get(diagnostic))
			for key, e := range want {
				if _, ok := got[key]; !ok {
					res.fail(Discrepancy{Column: column, Diagnostic: diagnostic, RowID: e.RowID, Value: e.Value, Detail: "matched by row backend only"}, v.maxDiscrepancies)
				}
			}
			for key, e := range got {
				if _, ok := want[key]; !ok {
					res.fail(Discrepancy{Column: column, Diagnostic: diagnostic, RowID: e.RowID, Value: e.Value, Detail: "matched by arrow backend only"}, v.maxDiscrepancies)
				}
			}
		}
	}

	res.Duration = time.Since(start)
	v.log(res)
	return res, nil
}

func entrySet(entries []model.Entry) map[string]model.Entry {
	set := make(map[string]model.Entry, len(entries))
	for _, e := range entries {
		set[fmt.Sprintf("%d|%s", e.RowID, e.Value.Key())] = e
	}
	return set
}

// GenerateVerificationReport runs the classification checks for one catalog:
// row identity of the given report, complementarity over every cell of the
// classified columns and backend equivalence
func (v *Verifier) GenerateVerificationReport(ctx context.Context, table *model.Table, catalog *pattern.Catalog, report *classifier.Report) (*VerificationReport, error) {
	startTime := time.Now()
	out := &VerificationReport{VerificationTime: startTime}

	out.Results = append(out.Results, v.VerifyRowIdentity(table, report))

	var cells []model.Cell
	for _, column := range report.Columns() {
		if col, ok := table.Column(column); ok {
			cells = append(cells, col.Cells...)
		}
	}
	out.Results = append(out.Results, v.VerifyComplementarity(catalog, cells))

	columns := report.Columns()
	if columns == nil {
		columns = []string{}
	}
	equivalence, err := v.VerifyBackendEquivalence(ctx, table, columns, catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to verify backend equivalence: %w", err)
	}
	out.Results = append(out.Results, equivalence)

	out.Duration = time.Since(startTime)
	v.logger.Info("Verification report completed",
		zap.Bool("passed", out.Passed()),
		zap.Strings("failed", out.Failed()),
		zap.Duration("duration", out.Duration))

	return out, nil
}

func (v *Verifier) log(res Result) {
	if res.Passed {
		v.logger.Debug("Verification passed",
			zap.String("check", res.Check),
			zap.Int("checked", res.Checked))
		return
	}
	v.logger.Warn("Verification failed",
		zap.String("check", res.Check),
		zap.Int("checked", res.Checked),
		zap.Int("discrepancies", len(res.Discrepancies)),
		zap.Bool("truncated", res.Truncated))
}
