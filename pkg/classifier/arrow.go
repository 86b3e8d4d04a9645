// pkg/classifier/arrow.go
package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"

	"github.com/TheDucky-2/DataLabX/pkg/model"
	"github.com/TheDucky-2/DataLabX/pkg/pattern"
)

// surrogatePrefix starts every synthesized row-id column name
const surrogatePrefix = "__row_id_"

// arrowBackend round-trips a column through an Arrow record and filters it
// with the compute kernels. Row identity travels as a surrogate int64 column.
type arrowBackend struct {
	mem          memory.Allocator
	newSurrogate func() string
}

func newArrowBackend() *arrowBackend {
	return &arrowBackend{
		mem: memory.NewGoAllocator(),
		newSurrogate: func() string {
			return surrogatePrefix + strings.ReplaceAll(uuid.New().String(), "-", "")
		},
	}
}

func (*arrowBackend) Name() string {
	return BackendArrow
}

// surrogateName draws names until one collides with no table column
func (b *arrowBackend) surrogateName(table *model.Table) string {
	name := b.newSurrogate()
	for table.HasColumn(name) {
		name = b.newSurrogate()
	}
	return name
}

func (b *arrowBackend) Filter(ctx context.Context, table *model.Table, column string, preds []pattern.Predicate) (map[string][]model.Entry, error) {
	entries, err := table.Entries(column)
	if err != nil {
		return nil, err
	}
	shape, err := inspect(b.Name(), column, entries)
	if err != nil {
		return nil, err
	}

	// Row identity is fixed before any conversion or filtering happens
	surrogate := b.surrogateName(table)

	rec, err := b.toRecord(column, surrogate, shape, entries)
	if err != nil {
		return nil, b.conversionErr(column, err)
	}
	defer rec.Release()

	values, err := b.decodeColumn(rec, column, shape)
	if err != nil {
		return nil, b.conversionErr(column, err)
	}
	for i, e := range entries {
		if !values[i].Equal(e.Value) {
			return nil, b.conversionErr(column, fmt.Errorf("row %d: value did not survive conversion", e.RowID))
		}
	}

	result := make(map[string][]model.Entry, len(preds))
	for _, p := range preds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		matched, err := b.filter(ctx, table, rec, column, surrogate, shape, values, p)
		if err != nil {
			return nil, b.conversionErr(column, err)
		}
		result[p.Name] = matched
	}
	return result, nil
}

func (b *arrowBackend) conversionErr(column string, err error) error {
	return &model.BackendConversionError{Backend: b.Name(), Column: column, Err: err}
}

// filter builds the predicate's boolean mask, filters the record and restores
// row identity from the surrogate column
func (b *arrowBackend) filter(ctx context.Context, table *model.Table, rec arrow.Record, column, surrogate string, shape columnShape, values []model.Cell, p pattern.Predicate) ([]model.Entry, error) {
	mb := array.NewBooleanBuilder(b.mem)
	defer mb.Release()

	mb.Reserve(len(values))
	for _, v := range values {
		mb.UnsafeAppend(p.Eval(v))
	}
	mask := mb.NewBooleanArray()
	defer mask.Release()

	filtered, err := compute.FilterRecordBatch(ctx, rec, mask, compute.DefaultFilterOptions())
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", p.Name, err)
	}
	defer filtered.Release()

	ids, err := b.decodeRowIDs(filtered, surrogate)
	if err != nil {
		return nil, err
	}
	cells, err := b.decodeColumn(filtered, column, shape)
	if err != nil {
		return nil, err
	}

	matched := make([]model.Entry, len(ids))
	for i, id := range ids {
		matched[i] = model.Entry{RowID: id, Value: cells[i]}
	}

	restored := table.RestoreIndex(matched)
	if len(restored) != len(matched) {
		return nil, fmt.Errorf("filter %s: %d row ids not owned by table", p.Name, len(matched)-len(restored))
	}
	return restored, nil
}

// valueType maps a column shape to its Arrow type
func valueType(shape columnShape) arrow.DataType {
	switch shape.kind {
	case model.KindNumber:
		return arrow.PrimitiveTypes.Float64
	case model.KindTime:
		return arrow.FixedWidthTypes.Timestamp_ns
	default:
		return arrow.BinaryTypes.String
	}
}

// toRecord builds a two-column record: the surrogate row id and the values
func (b *arrowBackend) toRecord(column, surrogate string, shape columnShape, entries []model.Entry) (arrow.Record, error) {
	dt := valueType(shape)
	schema := arrow.NewSchema([]arrow.Field{
		{Name: surrogate, Type: arrow.PrimitiveTypes.Int64},
		{Name: column, Type: dt, Nullable: true},
	}, nil)

	rb := array.NewRecordBuilder(b.mem, schema)
	defer rb.Release()

	idb := rb.Field(0).(*array.Int64Builder)
	idb.Reserve(len(entries))
	for _, e := range entries {
		idb.UnsafeAppend(e.RowID)
	}

	vb := rb.Field(1)
	vb.Reserve(len(entries))
	for _, e := range entries {
		if err := appendCell(vb, e.Value); err != nil {
			return nil, fmt.Errorf("row %d: %w", e.RowID, err)
		}
	}

	return rb.NewRecord(), nil
}

// appendCell appends one cell to a builder of the column's type
func appendCell(b array.Builder, c model.Cell) error {
	if c.IsNull() {
		b.AppendNull()
		return nil
	}

	switch vb := b.(type) {
	case *array.StringBuilder:
		s, ok := c.Str()
		if !ok {
			return fmt.Errorf("expected string, got %s", c.Kind())
		}
		vb.Append(s)
	case *array.Float64Builder:
		f, ok := c.Float()
		if !ok {
			return fmt.Errorf("expected number, got %s", c.Kind())
		}
		vb.Append(f)
	case *array.TimestampBuilder:
		ts, ok := c.Timestamp()
		if !ok {
			return fmt.Errorf("expected time, got %s", c.Kind())
		}
		vb.Append(arrow.Timestamp(ts.UnixNano()))
	default:
		return fmt.Errorf("unsupported builder %T", b)
	}
	return nil
}

func fieldIndex(rec arrow.Record, name string) (int, error) {
	indices := rec.Schema().FieldIndices(name)
	if len(indices) != 1 {
		return 0, fmt.Errorf("record has %d fields named %q", len(indices), name)
	}
	return indices[0], nil
}

func (b *arrowBackend) decodeRowIDs(rec arrow.Record, surrogate string) ([]int64, error) {
	idx, err := fieldIndex(rec, surrogate)
	if err != nil {
		return nil, err
	}
	col, ok := rec.Column(idx).(*array.Int64)
	if !ok {
		return nil, fmt.Errorf("surrogate column has type %s", rec.Column(idx).DataType())
	}

	ids := make([]int64, col.Len())
	for i := range ids {
		if col.IsNull(i) {
			return nil, fmt.Errorf("surrogate row id missing at position %d", i)
		}
		ids[i] = col.Value(i)
	}
	return ids, nil
}

// decodeColumn reads the value column back into cells. The surrogate column is
// never part of the value payload.
func (b *arrowBackend) decodeColumn(rec arrow.Record, column string, shape columnShape) ([]model.Cell, error) {
	idx, err := fieldIndex(rec, column)
	if err != nil {
		return nil, err
	}
	arr := rec.Column(idx)

	cells := make([]model.Cell, arr.Len())
	for i := range cells {
		if arr.IsNull(i) {
			cells[i] = model.Null()
			continue
		}

		switch a := arr.(type) {
		case *array.String:
			cells[i] = model.String(a.Value(i))
		case *array.Float64:
			cells[i] = model.Number(a.Value(i))
		case *array.Timestamp:
			cells[i] = model.Time(a.Value(i).ToTime(arrow.Nanosecond).In(shape.location))
		default:
			return nil, fmt.Errorf("unsupported array type %s", arr.DataType())
		}
	}
	return cells, nil
}

var (
	_ backend = (*arrowBackend)(nil)
	_ backend = rowBackend{}
)
