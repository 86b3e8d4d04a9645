// pkg/converter/converter.go
package converter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// TypeConverter maps source column types to domains and source values to cells
type TypeConverter struct {
	logger *zap.Logger
	// Configuration options
	config   TypeConverterConfig
	location *time.Location
	mem      memory.Allocator
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Strings loaded as null. Empty by default: placeholders are data to diagnose.
	NullTokens []string
	// Whether to treat empty strings as null
	EmptyStringAsNull bool
	// Zone applied to timestamps that carry none
	DefaultTimezone string
	// Tag text columns as datetime when their names look like timestamps
	InferFromNames bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		DefaultTimezone: "UTC",
		InferFromNames:  true,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc := time.UTC
	if config.DefaultTimezone != "" {
		l, err := time.LoadLocation(config.DefaultTimezone)
		if err != nil {
			logger.Warn("Unknown default timezone, using UTC",
				zap.String("timezone", config.DefaultTimezone),
				zap.Error(err))
		} else {
			loc = l
		}
	}

	return &TypeConverter{
		logger:   logger,
		config:   config,
		location: loc,
		mem:      memory.NewGoAllocator(),
	}
}

// ColumnSpec describes a source column before its values are read
type ColumnSpec struct {
	Name       string
	SourceType string
	Nullable   bool
}

// ColumnDomain picks the domain for a source column from its declared type,
// refined by its name when the type says nothing more specific than text
func (c *TypeConverter) ColumnDomain(col ColumnSpec) model.Domain {
	domain, err := c.DomainForSQLType(col.SourceType)
	if err != nil {
		c.logger.Debug("Falling back to text domain",
			zap.String("column", col.Name),
			zap.Error(err))
	}
	return c.refineDomain(col.Name, domain)
}

// BuildColumns converts row-major driver values into typed columns. Drivers
// hand back NUMBER and NUMERIC values as strings; those are parsed when the
// declared type is numeric, since a typed column cannot hold dirty text.
func (c *TypeConverter) BuildColumns(specs []ColumnSpec, rows [][]interface{}) ([]model.Column, error) {
	cols := make([]model.Column, len(specs))
	typedNumeric := make([]bool, len(specs))
	for i, spec := range specs {
		cols[i] = model.Column{
			Name:   spec.Name,
			Domain: c.ColumnDomain(spec),
			Cells:  make([]model.Cell, len(rows)),
		}
		declared, err := c.DomainForSQLType(spec.SourceType)
		typedNumeric[i] = err == nil && spec.SourceType != "" && declared == model.DomainNumeric
	}

	for r, row := range rows {
		if len(row) != len(specs) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", r, len(row), len(specs))
		}
		for i, v := range row {
			cell, err := c.ToCell(v)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", r, specs[i].Name, err)
			}
			if typedNumeric[i] {
				if s, ok := cell.Str(); ok {
					if f, err := strconv.ParseFloat(s, 64); err == nil {
						cell = model.Number(f)
					}
				}
			}
			cols[i].Cells[r] = cell
		}
	}
	return cols, nil
}

// isNullToken reports whether a string loads as null under the configuration
func (c *TypeConverter) isNullToken(s string) bool {
	if s == "" {
		return c.config.EmptyStringAsNull
	}
	for _, tok := range c.config.NullTokens {
		if strings.EqualFold(s, tok) {
			return true
		}
	}
	return false
}
