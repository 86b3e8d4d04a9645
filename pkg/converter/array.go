// pkg/converter/array.go
package converter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// ChunkedToCells converts every chunk of a table column, in order
func (c *TypeConverter) ChunkedToCells(chunked *arrow.Chunked) ([]model.Cell, error) {
	cells := make([]model.Cell, 0, chunked.Len())
	for _, chunk := range chunked.Chunks() {
		part, err := c.ArrayToCells(chunk)
		if err != nil {
			return nil, err
		}
		cells = append(cells, part...)
	}
	return cells, nil
}

// ArrayToCells converts an Arrow array to cells. Nulls stay null; strings go
// through the same null-token rules as driver values.
func (c *TypeConverter) ArrayToCells(arr arrow.Array) ([]model.Cell, error) {
	if dict, ok := arr.(*array.Dictionary); ok {
		return c.dictionaryToCells(dict)
	}

	value, err := c.cellReader(arr)
	if err != nil {
		return nil, err
	}

	cells := make([]model.Cell, arr.Len())
	for i := range cells {
		if arr.IsNull(i) {
			cells[i] = model.Null()
			continue
		}
		cells[i] = value(i)
	}
	return cells, nil
}

func (c *TypeConverter) dictionaryToCells(dict *array.Dictionary) ([]model.Cell, error) {
	values, err := c.ArrayToCells(dict.Dictionary())
	if err != nil {
		return nil, err
	}

	cells := make([]model.Cell, dict.Len())
	for i := range cells {
		if dict.IsNull(i) {
			cells[i] = model.Null()
			continue
		}
		cells[i] = values[dict.GetValueIndex(i)]
	}
	return cells, nil
}

// cellReader returns an accessor for the non-null positions of an array
func (c *TypeConverter) cellReader(arr arrow.Array) (func(int) model.Cell, error) {
	switch a := arr.(type) {
	case *array.String:
		return func(i int) model.Cell { return c.textCell(a.Value(i)) }, nil
	case *array.LargeString:
		return func(i int) model.Cell { return c.textCell(a.Value(i)) }, nil
	case *array.Binary:
		return func(i int) model.Cell { return c.textCell(string(a.Value(i))) }, nil
	case *array.LargeBinary:
		return func(i int) model.Cell { return c.textCell(string(a.Value(i))) }, nil
	case *array.Boolean:
		return func(i int) model.Cell { return model.String(strconv.FormatBool(a.Value(i))) }, nil
	case *array.Int8:
		return func(i int) model.Cell { return model.Number(float64(a.Value(i))) }, nil
	case *array.Int16:
		return func(i int) model.Cell { return model.Number(float64(a.Value(i))) }, nil
	case *array.Int32:
		return func(i int) model.Cell { return model.Number(float64(a.Value(i))) }, nil
	case *array.Int64:
		return func(i int) model.Cell { return model.Number(float64(a.Value(i))) }, nil
	case *array.Uint8:
		return func(i int) model.Cell { return model.Number(float64(a.Value(i))) }, nil
	case *array.Uint16:
		return func(i int) model.Cell { return model.Number(float64(a.Value(i))) }, nil
	case *array.Uint32:
		return func(i int) model.Cell { return model.Number(float64(a.Value(i))) }, nil
	case *array.Uint64:
		return func(i int) model.Cell { return model.Number(float64(a.Value(i))) }, nil
	case *array.Float32:
		return func(i int) model.Cell { return model.Number(float64(a.Value(i))) }, nil
	case *array.Float64:
		return func(i int) model.Cell { return model.Number(a.Value(i)) }, nil
	case *array.Decimal128:
		scale := a.DataType().(*arrow.Decimal128Type).Scale
		return func(i int) model.Cell { return model.Number(a.Value(i).ToFloat64(scale)) }, nil
	case *array.Date32:
		return func(i int) model.Cell { return model.Time(c.wallClock(a.Value(i).ToTime())) }, nil
	case *array.Date64:
		return func(i int) model.Cell { return model.Time(c.wallClock(a.Value(i).ToTime())) }, nil
	case *array.Timestamp:
		dt := a.DataType().(*arrow.TimestampType)
		toTime, err := dt.GetToTimeFunc()
		if err != nil {
			return nil, fmt.Errorf("timestamp column: %w", err)
		}
		if dt.TimeZone == "" {
			return func(i int) model.Cell { return model.Time(c.wallClock(toTime(a.Value(i)))) }, nil
		}
		return func(i int) model.Cell { return model.Time(toTime(a.Value(i))) }, nil
	default:
		return nil, fmt.Errorf("unsupported array type %s", arr.DataType())
	}
}

// wallClock reads a zone-less UTC time as wall-clock time in the default zone
func (c *TypeConverter) wallClock(t time.Time) time.Time {
	if c.location == time.UTC {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), c.location)
}

// arrowType picks the Arrow type for a column: the uniform kind of its
// non-null cells. All-null columns are strings.
func arrowType(col model.Column) (arrow.DataType, error) {
	kind := model.KindNull
	for i, cell := range col.Cells {
		if cell.IsNull() {
			continue
		}
		if kind != model.KindNull && cell.Kind() != kind {
			return nil, fmt.Errorf("column %s mixes %s and %s at position %d", col.Name, kind, cell.Kind(), i)
		}
		kind = cell.Kind()
	}

	switch kind {
	case model.KindNumber:
		return arrow.PrimitiveTypes.Float64, nil
	case model.KindTime:
		return arrow.FixedWidthTypes.Timestamp_ns, nil
	default:
		return arrow.BinaryTypes.String, nil
	}
}

// TableToRecord converts a table to an Arrow record, one field per column.
// Columns mixing cell kinds cannot be represented and return an error.
func (c *TypeConverter) TableToRecord(table *model.Table) (arrow.Record, error) {
	cols := table.Columns()

	fields := make([]arrow.Field, len(cols))
	for i, col := range cols {
		dt, err := arrowType(col)
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{Name: col.Name, Type: dt, Nullable: true}
	}

	rb := array.NewRecordBuilder(c.mem, arrow.NewSchema(fields, nil))
	defer rb.Release()

	for i, col := range cols {
		b := rb.Field(i)
		b.Reserve(col.Len())
		for _, cell := range col.Cells {
			if cell.IsNull() {
				b.AppendNull()
				continue
			}
			switch vb := b.(type) {
			case *array.Float64Builder:
				f, _ := cell.Float()
				vb.Append(f)
			case *array.TimestampBuilder:
				ts, _ := cell.Timestamp()
				vb.Append(arrow.Timestamp(ts.UnixNano()))
			case *array.StringBuilder:
				s, _ := cell.Str()
				vb.Append(s)
			}
		}
	}

	return rb.NewRecord(), nil
}
