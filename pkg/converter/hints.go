// pkg/converter/hints.go
package converter

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// Name tokens that mark a column as holding dates or timestamps
var dateTimeTokens = map[string]bool{
	"DATE": true, "TIME": true, "TIMESTAMP": true, "DATETIME": true,
	"CREATED": true, "MODIFIED": true, "UPDATED": true, "DELETED": true,
	"DTSTART": true, "DTEND": true, "DOB": true, "BIRTHDAY": true,
}

// Suffixes that mark a column as a timestamp
var timestampSuffixes = []string{"_AT", "_DATE", "_TIME", "_TS"}

// refineDomain promotes a text column to datetime when its name looks like a
// timestamp. Typed numeric and datetime columns are left alone.
func (c *TypeConverter) refineDomain(name string, domain model.Domain) model.Domain {
	if !c.config.InferFromNames || domain != model.DomainText {
		return domain
	}
	if isDateTimeColumn(name) {
		c.logger.Debug("Inferred datetime domain from column name",
			zap.String("column", name))
		return model.DomainDatetime
	}
	return domain
}

func isDateTimeColumn(name string) bool {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, suffix := range timestampSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	for _, tok := range strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == ' ' || r == '-' || r == '.'
	}) {
		if dateTimeTokens[tok] {
			return true
		}
	}
	return false
}

func isComplexType(sqlType string) bool {
	switch getBaseType(sqlType) {
	case "VARIANT", "OBJECT", "ARRAY", "JSON", "JSONB":
		return true
	}
	return false
}

// AnalyzeColumns examines source columns and describes how they will be
// tagged, for logging before a load
func (c *TypeConverter) AnalyzeColumns(specs []ColumnSpec) []string {
	var suggestions []string

	inferred := 0
	for _, col := range specs {
		declared, _ := c.DomainForSQLType(col.SourceType)
		if declared == model.DomainText && c.refineDomain(col.Name, declared) == model.DomainDatetime {
			inferred++
		}
	}
	if inferred > 0 {
		suggestions = append(suggestions,
			fmt.Sprintf("Found %d date/time columns stored as strings that will be diagnosed as datetime", inferred))
	}

	complexColumns := 0
	for _, col := range specs {
		if isComplexType(col.SourceType) {
			complexColumns++
		}
	}
	if complexColumns > 0 {
		suggestions = append(suggestions,
			fmt.Sprintf("Found %d complex type columns (ARRAY/OBJECT/JSON) that will be loaded as JSON text", complexColumns))
	}

	unknown := 0
	for _, col := range specs {
		if _, err := c.DomainForSQLType(col.SourceType); err != nil {
			unknown++
		}
	}
	if unknown > 0 {
		suggestions = append(suggestions,
			fmt.Sprintf("Found %d columns of unknown type that will be diagnosed as text", unknown))
	}

	return suggestions
}
