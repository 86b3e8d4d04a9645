// pkg/model/cell.go
package model

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind identifies the type of value held by a Cell
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindTime
)

// String returns a string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// dateTimeLayout is used when rendering times without sub-second precision
const dateTimeLayout = "2006-01-02 15:04:05"

// Cell is a nullable, typed table value.
// Null, the empty string and placeholder strings are distinct states.
type Cell struct {
	kind Kind
	str  string
	num  float64
	ts   time.Time
}

// Null returns a null cell
func Null() Cell {
	return Cell{kind: KindNull}
}

// String returns a string cell. The empty string is not null.
func String(s string) Cell {
	return Cell{kind: KindString, str: s}
}

// Number returns a numeric cell. NaN is treated as missing and yields a null cell.
func Number(f float64) Cell {
	if math.IsNaN(f) {
		return Null()
	}
	return Cell{kind: KindNumber, num: f}
}

// Time returns a timestamp cell
func Time(t time.Time) Cell {
	return Cell{kind: KindTime, ts: t}
}

// Kind returns the kind of value held by the cell
func (c Cell) Kind() Kind {
	return c.kind
}

// IsNull reports whether the cell holds no value
func (c Cell) IsNull() bool {
	return c.kind == KindNull
}

// Str returns the string payload and whether the cell is a string
func (c Cell) Str() (string, bool) {
	return c.str, c.kind == KindString
}

// Float returns the numeric payload and whether the cell is a number
func (c Cell) Float() (float64, bool) {
	return c.num, c.kind == KindNumber
}

// Timestamp returns the time payload and whether the cell is a time
func (c Cell) Timestamp() (time.Time, bool) {
	return c.ts, c.kind == KindTime
}

// Text renders the value the way pattern predicates see it.
// Null cells render as the empty string; callers that care must check IsNull first.
func (c Cell) Text() string {
	switch c.kind {
	case KindString:
		return c.str
	case KindNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindTime:
		if c.ts.Nanosecond() == 0 {
			return c.ts.Format(dateTimeLayout)
		}
		return c.ts.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Equal compares kind and value. Times compare by instant.
func (c Cell) Equal(other Cell) bool {
	if c.kind != other.kind {
		return false
	}

	switch c.kind {
	case KindNull:
		return true
	case KindString:
		return c.str == other.str
	case KindNumber:
		return c.num == other.num
	case KindTime:
		return c.ts.Equal(other.ts)
	default:
		return false
	}
}

// Key returns a canonical key used for set membership
func (c Cell) Key() string {
	switch c.kind {
	case KindNull:
		return "null:"
	case KindTime:
		return "time:" + strconv.FormatInt(c.ts.UnixNano(), 10)
	case KindNumber:
		return "number:" + strconv.FormatFloat(c.num, 'g', -1, 64)
	default:
		return c.kind.String() + ":" + c.Text()
	}
}

// Value returns the payload as an interface value (nil for null)
func (c Cell) Value() interface{} {
	switch c.kind {
	case KindString:
		return c.str
	case KindNumber:
		return c.num
	case KindTime:
		return c.ts
	default:
		return nil
	}
}

// GoString makes cells readable in test failure output
func (c Cell) GoString() string {
	if c.kind == KindNull {
		return "model.Null()"
	}
	return fmt.Sprintf("model.Cell{%s %q}", c.kind, c.Text())
}

// Strings builds a slice of string cells
func Strings(values ...string) []Cell {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = String(v)
	}
	return cells
}
