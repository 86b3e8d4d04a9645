// pkg/classifier/backend.go
package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/TheDucky-2/DataLabX/pkg/model"
	"github.com/TheDucky-2/DataLabX/pkg/pattern"
)

// Backend names, as reported in ColumnReport.Backend and metrics
const (
	BackendRow   = "row"
	BackendArrow = "arrow"
)

// backend evaluates predicates over one column and returns, per predicate name,
// the (row id, value) entries the predicate matched, in table row order
type backend interface {
	Name() string
	Filter(ctx context.Context, table *model.Table, column string, preds []pattern.Predicate) (map[string][]model.Entry, error)
}

// Timestamps outside this range do not fit in int64 nanoseconds
var (
	minTimestamp = time.Unix(0, -1<<63).UTC()
	maxTimestamp = time.Unix(0, 1<<63-1).UTC()
)

// columnShape describes the uniform kind of a column's non-null cells
type columnShape struct {
	kind     model.Kind
	location *time.Location
}

// inspect checks that a column can be represented by either backend: every
// non-null cell shares one kind, and timestamps share one location and fit in
// nanosecond precision. Both backends reject the same columns.
func inspect(backendName, column string, entries []model.Entry) (columnShape, error) {
	shape := columnShape{kind: model.KindNull, location: time.UTC}

	fail := func(format string, args ...any) (columnShape, error) {
		return columnShape{}, &model.BackendConversionError{
			Backend: backendName,
			Column:  column,
			Err:     fmt.Errorf(format, args...),
		}
	}

	for _, e := range entries {
		kind := e.Value.Kind()
		switch kind {
		case model.KindNull:
			continue
		case model.KindString, model.KindNumber, model.KindTime:
		default:
			return fail("row %d: unsupported cell kind %s", e.RowID, kind)
		}

		if shape.kind == model.KindNull {
			shape.kind = kind
			if ts, ok := e.Value.Timestamp(); ok {
				shape.location = ts.Location()
			}
		} else if kind != shape.kind {
			return fail("row %d: mixed cell kinds %s and %s", e.RowID, shape.kind, kind)
		}

		if ts, ok := e.Value.Timestamp(); ok {
			if ts.Before(minTimestamp) || ts.After(maxTimestamp) {
				return fail("row %d: timestamp %s out of nanosecond range", e.RowID, ts)
			}
			if ts.Location().String() != shape.location.String() {
				return fail("row %d: mixed time locations %s and %s", e.RowID, shape.location, ts.Location())
			}
		}
	}
	return shape, nil
}

// rowBackend pairs every cell with its row id and evaluates predicates directly
type rowBackend struct{}

func (rowBackend) Name() string {
	return BackendRow
}

func (b rowBackend) Filter(ctx context.Context, table *model.Table, column string, preds []pattern.Predicate) (map[string][]model.Entry, error) {
	entries, err := table.Entries(column)
	if err != nil {
		return nil, err
	}
	if _, err := inspect(b.Name(), column, entries); err != nil {
		return nil, err
	}

	result := make(map[string][]model.Entry, len(preds))
	for _, p := range preds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		matched := make([]model.Entry, 0)
		for _, e := range entries {
			if p.Eval(e.Value) {
				matched = append(matched, e)
			}
		}
		result[p.Name] = matched
	}
	return result, nil
}
