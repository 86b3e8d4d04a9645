// pkg/converter/values.go
package converter

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// ToCell converts a driver or decoded JSON value to a cell. Strings are kept
// verbatim whatever the column's domain: "1,200" in a numeric column is a
// dirty value to diagnose, not a number.
func (c *TypeConverter) ToCell(value interface{}) (model.Cell, error) {
	switch v := value.(type) {
	case nil:
		return model.Null(), nil
	case string:
		return c.textCell(v), nil
	case []byte:
		return c.textCell(string(v)), nil
	case bool:
		return model.String(strconv.FormatBool(v)), nil
	case int:
		return model.Number(float64(v)), nil
	case int8:
		return model.Number(float64(v)), nil
	case int16:
		return model.Number(float64(v)), nil
	case int32:
		return model.Number(float64(v)), nil
	case int64:
		return model.Number(float64(v)), nil
	case uint:
		return model.Number(float64(v)), nil
	case uint8:
		return model.Number(float64(v)), nil
	case uint16:
		return model.Number(float64(v)), nil
	case uint32:
		return model.Number(float64(v)), nil
	case uint64:
		return model.Number(float64(v)), nil
	case float32:
		return model.Number(float64(v)), nil
	case float64:
		return model.Number(v), nil
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return model.Number(f), nil
		}
		return model.String(v.String()), nil
	case time.Time:
		return model.Time(v), nil
	case driver.Valuer:
		inner, err := v.Value()
		if err != nil {
			return model.Null(), fmt.Errorf("failed to read %T: %w", value, err)
		}
		if _, again := inner.(driver.Valuer); again {
			return model.Null(), fmt.Errorf("%T returned another valuer", value)
		}
		return c.ToCell(inner)
	default:
		// Arrays and objects from semi-structured columns are kept as JSON text
		jsonBytes, err := json.Marshal(v)
		if err != nil {
			return model.Null(), fmt.Errorf("cannot convert %T to a cell: %w", value, err)
		}
		return model.String(string(jsonBytes)), nil
	}
}

// ToCells converts a slice of values, stopping at the first failure
func (c *TypeConverter) ToCells(values []interface{}) ([]model.Cell, error) {
	cells := make([]model.Cell, len(values))
	for i, v := range values {
		cell, err := c.ToCell(v)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		cells[i] = cell
	}
	return cells, nil
}

func (c *TypeConverter) textCell(s string) model.Cell {
	if c.isNullToken(s) {
		return model.Null()
	}
	return model.String(s)
}
