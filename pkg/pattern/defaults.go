// pkg/pattern/defaults.go
package pattern

import "github.com/TheDucky-2/DataLabX/pkg/model"

// Predicate names shared across the default catalogs
const (
	IsValid            = "is_valid"
	IsDirty            = "is_dirty"
	IsMissing          = "is_missing"
	IsPlaceholder      = "is_placeholder"
	IsText             = "is_text"
	IsSymbol           = "is_symbol"
	IsEmpty            = "is_empty"
	IsScientific       = "is_scientific_notation"
	IsValidDate        = "is_valid_date"
	IsValidTime        = "is_valid_time"
	IsValidDatetime    = "is_valid_datetime"
	IsNumericEncoding  = "is_numeric_encoding"
	HasUnits           = "has_units"
	HasSymbols         = "has_symbols"
	HasCommas          = "has_commas"
	HasCurrency        = "has_currency"
	HasMultipleDecimal = "has_multiple_decimals"
	HasMultipleCommas  = "has_multiple_commas"
	HasSpaces          = "has_spaces"
	HasDecimals        = "has_decimals"
	HasText            = "has_text"
	HasNumbers         = "has_numbers"
)

// Numeric grammar
const (
	numericValidExpr      = `^[+-]?\d+(?:\.\d+)?$`
	numericTextExpr       = `^[A-Za-z ]+$`
	numericSymbolExpr     = `^[^\p{L}\p{N}\s]+$`
	scientificExpr        = `^[+-]?\d+(?:[.,]\d+)?[eE][+-]?\d+$`
	unitsExpr             = `^[+-]?\d+(?:[,.]\d+)?\s*[A-Za-z]+$`
	numericHasSymbolsExpr = `[^\d\s\p{Sc}\p{L},.+-]\d|\d[^\d\s\p{Sc}\p{L},.+-]`
	commasExpr            = `^[+-]?\d+(?:,\d+)+(?:\.\d+)?$`
	currencyExpr          = `^\p{Sc}\s*[+-]?\d[\d,]*(?:\.\d+)?$|^[+-]?\d[\d,]*(?:\.\d+)?\s*\p{Sc}$`
	multipleDecimalsExpr  = `^[+-]?\d*(?:\.\d+){2,}$`
	multipleCommasExpr    = `^[+-]?\d*(?:,\d+){2,}$`
	numericSpacesExpr     = `^\s+[+-]?\d+(?:\.\d+)?\s*$|^[+-]?\d+(?:\.\d+)?\s+$`
	decimalsExpr          = `^[+-]?\d*\.\d+$`
	mixedTextExpr         = `[A-Za-z].*\d|\d.*[A-Za-z]`
)

// Text grammar
const (
	textValidExpr      = `^[A-Za-z ]+$`
	textEmptyExpr      = `^$`
	textSymbolExpr     = `^[^\p{L}\p{N}\s]+$`
	textHasSymbolsExpr = `[^\p{L}\p{N}\s]`
	textHasNumbersExpr = `\p{N}`
	textSpacesExpr     = `^\s|\s$`
)

// Datetime grammar
const (
	dateExpr            = `(?:\d{4}[/-]\d{1,2}[/-]\d{1,2}|\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`
	clockExpr           = `\d{1,2}:\d{2}(?::\d{2}(?:\.\d+)?)?`
	zoneExpr            = `(?:Z|[+-]\d{2}:?\d{2})?`
	validDateExpr       = `^` + dateExpr + `$`
	validTimeExpr       = `^` + clockExpr + `$`
	validDatetimeExpr   = `^` + dateExpr + `[ T]` + clockExpr + zoneExpr + `$`
	datetimeTextExpr    = `^[A-Za-z ]+$`
	numericEncodingExpr = `^(?:\d{6}|\d{8}|\d{12}|\d{14})$`
)

// Options tunes the default catalogs
type Options struct {
	// Placeholders are tokens such as "UNKNOWN" or "N/A" that stand in for a
	// missing value. They get their own is_placeholder predicate and are never
	// counted as is_missing.
	Placeholders []string
}

func (o Options) extend(preds []Predicate) []Predicate {
	if len(o.Placeholders) == 0 {
		return preds
	}
	return append(preds, OneOf(IsPlaceholder, o.Placeholders...))
}

// Numeric returns the default catalog for numeric columns
func Numeric(opts Options) (*Catalog, error) {
	valid := Regex(IsValid, numericValidExpr)
	units := Regex(HasUnits, unitsExpr)
	scientific := Regex(IsScientific, scientificExpr)

	// has_text excludes shapes that already have a more specific diagnostic
	hasText := AllOf(HasText,
		Regex(HasText, mixedTextExpr),
		NoneOf(HasText, units, scientific),
	)

	preds := []Predicate{
		valid,
		Not(IsDirty, valid),
		Missing(IsMissing),
		Regex(IsText, numericTextExpr),
		Regex(IsSymbol, numericSymbolExpr),
		scientific,
		units,
		Regex(HasSymbols, numericHasSymbolsExpr),
		Regex(HasCommas, commasExpr),
		Regex(HasCurrency, currencyExpr),
		Regex(HasMultipleDecimal, multipleDecimalsExpr),
		Regex(HasMultipleCommas, multipleCommasExpr),
		Regex(HasSpaces, numericSpacesExpr),
		Regex(HasDecimals, decimalsExpr),
		hasText,
	}

	return NewCatalog(model.DomainNumeric, opts.extend(preds), WithComplement(IsValid, IsDirty))
}

// Text returns the default catalog for free-text columns
func Text(opts Options) (*Catalog, error) {
	valid := Regex(IsValid, textValidExpr)

	preds := []Predicate{
		valid,
		Not(IsDirty, valid),
		Missing(IsMissing),
		Regex(IsEmpty, textEmptyExpr),
		Regex(IsSymbol, textSymbolExpr),
		Regex(HasSymbols, textHasSymbolsExpr),
		Regex(HasNumbers, textHasNumbersExpr),
		Regex(HasSpaces, textSpacesExpr),
	}

	return NewCatalog(model.DomainText, opts.extend(preds), WithComplement(IsValid, IsDirty))
}

// Datetime returns the default catalog for date and time columns.
// is_valid is the union of the three valid forms and is_dirty its complement.
func Datetime(opts Options) (*Catalog, error) {
	date := Regex(IsValidDate, validDateExpr)
	clock := Regex(IsValidTime, validTimeExpr)
	datetime := Regex(IsValidDatetime, validDatetimeExpr)

	preds := []Predicate{
		date,
		clock,
		datetime,
		AnyOf(IsValid, date, clock, datetime),
		NoneOf(IsDirty, date, clock, datetime),
		Regex(IsText, datetimeTextExpr),
		Regex(IsNumericEncoding, numericEncodingExpr),
		Missing(IsMissing),
	}

	return NewCatalog(model.DomainDatetime, opts.extend(preds), WithComplement(IsValid, IsDirty))
}

// ForDomain returns the default catalog for a domain
func ForDomain(domain model.Domain, opts Options) (*Catalog, error) {
	switch domain {
	case model.DomainNumeric:
		return Numeric(opts)
	case model.DomainText:
		return Text(opts)
	case model.DomainDatetime:
		return Datetime(opts)
	default:
		return nil, &model.ConfigurationError{
			Component: "catalog",
			Name:      domain.String(),
			Reason:    "no default catalog for domain",
		}
	}
}
