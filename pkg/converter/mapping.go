// pkg/converter/mapping.go
package converter

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"

	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// getBaseType extracts the base type from a complex type definition:
// "NUMBER(38,0)" is NUMBER, "timestamp(3) with time zone" is TIMESTAMP
func getBaseType(fullType string) string {
	base := strings.ToUpper(strings.TrimSpace(fullType))
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = base[:i]
	}
	for _, suffix := range []string{" WITHOUT TIME ZONE", " WITH TIME ZONE", " WITH LOCAL TIME ZONE"} {
		base = strings.TrimSuffix(strings.TrimSpace(base), suffix)
	}
	return strings.TrimSpace(base)
}

// DomainForSQLType maps a Snowflake or PostgreSQL column type to a domain.
// Unknown types map to text and return an error describing the fallback.
func (c *TypeConverter) DomainForSQLType(sqlType string) (model.Domain, error) {
	if sqlType == "" || strings.EqualFold(sqlType, "NULL") {
		return model.DomainText, nil
	}

	switch getBaseType(sqlType) {
	case "NUMBER", "NUMERIC", "DECIMAL", "MONEY",
		"INT", "INTEGER", "BIGINT", "SMALLINT", "TINYINT", "BYTEINT",
		"INT2", "INT4", "INT8", "SERIAL", "BIGSERIAL", "SMALLSERIAL",
		"FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "DOUBLE PRECISION", "REAL", "FIXED":
		return model.DomainNumeric, nil

	case "DATE", "DATETIME", "TIME", "TIMETZ", "TIMESTAMP", "TIMESTAMPTZ",
		"TIMESTAMP_NTZ", "TIMESTAMP_LTZ", "TIMESTAMP_TZ":
		return model.DomainDatetime, nil

	case "VARCHAR", "CHAR", "CHARACTER", "CHARACTER VARYING", "BPCHAR", "NAME",
		"STRING", "TEXT", "CITEXT", "UUID", "BOOLEAN", "BOOL",
		"VARIANT", "OBJECT", "ARRAY", "JSON", "JSONB",
		"BINARY", "VARBINARY", "BYTEA", "GEOGRAPHY", "GEOMETRY":
		return model.DomainText, nil

	default:
		c.logger.Warn("Unknown source type encountered",
			zap.String("sourceType", sqlType))
		return model.DomainText, fmt.Errorf("unknown source type: %s (mapped to text as fallback)", sqlType)
	}
}

// DomainForArrowType maps an Arrow data type to a domain
func DomainForArrowType(dt arrow.DataType) model.Domain {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64,
		arrow.DECIMAL128, arrow.DECIMAL256:
		return model.DomainNumeric
	case arrow.DATE32, arrow.DATE64, arrow.TIMESTAMP:
		return model.DomainDatetime
	case arrow.DICTIONARY:
		return DomainForArrowType(dt.(*arrow.DictionaryType).ValueType)
	default:
		return model.DomainText
	}
}

// ArrowDomain is DomainForArrowType refined by column name
func (c *TypeConverter) ArrowDomain(name string, dt arrow.DataType) model.Domain {
	return c.refineDomain(name, DomainForArrowType(dt))
}
