// pkg/cleaner/operations.go
package cleaner

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/TheDucky-2/DataLabX/pkg/model"
	"github.com/TheDucky-2/DataLabX/pkg/pattern"
)

// Built-in stage names
const (
	StageStripSpaces           = "strip_spaces"
	StageRemoveUnits           = "remove_units"
	StageRemoveCurrencySymbols = "remove_currency_symbols"
	StageReplaceCommas         = "replace_commas"
	StageScientificNotation    = "convert_scientific_notation"
	StageTextToNumbers         = "convert_text_to_numbers"
	StageRoundOff              = "round_off"
	StageLowercase             = "to_lowercase"
	StageUppercase             = "to_uppercase"
	StageCollapseSpaces        = "collapse_spaces"
	StageReplaceSplitters      = "replace_splitters"
	StageReplaceSymbols        = "replace_symbols"
	StageStripSymbols          = "strip_symbols"
	StageStandardizeDatetime   = "standardize_datetime"
	StageReplacePlaceholders   = "replace_placeholders"
)

// DefaultSymbols is the symbol set StripSymbols removes when none is given
const DefaultSymbols = "@#$%^&*()[]{}<>!?~`|\\\"'+=_;:"

var (
	edgeSpacesRegex  = regexp.MustCompile(`^\s+|\s+$`)
	unitsRegex       = regexp.MustCompile(`^[+-]?\d+(?:[,.]\d+)?\s*[A-Za-z]+$`)
	unitSuffixRegex  = regexp.MustCompile(`\s*[A-Za-z]+$`)
	currencyRegex    = regexp.MustCompile(`^\p{Sc}\s*[+-]?\d[\d,]*(?:\.\d+)?$|^[+-]?\d[\d,]*(?:\.\d+)?\s*\p{Sc}$`)
	currencyEdge     = regexp.MustCompile(`^\p{Sc}\s*|\s*\p{Sc}$`)
	commasRegex      = regexp.MustCompile(`^[+-]?\d*,\d+(?:,\d+)*(?:\.\d+)?$`)
	thousandsRegex   = regexp.MustCompile(`^[+-]?\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
	scientificRegex  = regexp.MustCompile(`^\s*[+-]?\d+(?:[.,]\d+)?[eE][+-]?\d+\s*$`)
	multiSpacesRegex = regexp.MustCompile(`\s{2,}`)
	spacesRunRegex   = regexp.MustCompile(`\s+`)
	numericRegex     = regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?$`)
)

// datetimeLayouts are tried in order by StandardizeDatetime
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
	"02.01.2006",
	"20060102150405",
	"20060102",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// stringTransform lifts a string rewrite to cells; non-string cells pass through
func stringTransform(f func(string) (string, error)) TransformFunc {
	return func(c model.Cell) (model.Cell, error) {
		s, ok := c.Str()
		if !ok {
			return c, nil
		}
		out, err := f(s)
		if err != nil {
			return c, err
		}
		return model.String(out), nil
	}
}

func pure(f func(string) string) TransformFunc {
	return stringTransform(func(s string) (string, error) {
		return f(s), nil
	})
}

// stringMatcher matches string cells satisfying f
func stringMatcher(name string, f func(string) bool) pattern.Predicate {
	return pattern.Predicate{
		Name: name,
		Match: func(c model.Cell) bool {
			s, ok := c.Str()
			return ok && f(s)
		},
	}
}

func regexMatcher(name string, re *regexp.Regexp) pattern.Predicate {
	return stringMatcher(name, re.MatchString)
}

// sortedKeys orders replacement keys longest first so overlapping keys apply deterministically
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// replaceAll builds a matcher on "contains any key" and a literal replacing transform
func replaceAll(name string, replacements map[string]string) Stage {
	keys := sortedKeys(replacements)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, replacements[k])
	}
	replacer := strings.NewReplacer(pairs...)

	return NewStage(name,
		stringMatcher(name, func(s string) bool {
			for _, k := range keys {
				if strings.Contains(s, k) {
					return true
				}
			}
			return false
		}),
		pure(replacer.Replace),
	)
}

// StripSpaces trims leading and trailing whitespace
func StripSpaces() Stage {
	return NewStage(StageStripSpaces,
		regexMatcher(StageStripSpaces, edgeSpacesRegex),
		pure(strings.TrimSpace),
	)
}

// RemoveUnits drops a trailing unit from values like "10 kg"
func RemoveUnits() Stage {
	return NewStage(StageRemoveUnits,
		regexMatcher(StageRemoveUnits, unitsRegex),
		pure(func(s string) string {
			return unitSuffixRegex.ReplaceAllString(s, "")
		}),
	)
}

// RemoveCurrencySymbols drops a leading or trailing currency symbol
func RemoveCurrencySymbols() Stage {
	return NewStage(StageRemoveCurrencySymbols,
		regexMatcher(StageRemoveCurrencySymbols, currencyRegex),
		pure(func(s string) string {
			return currencyEdge.ReplaceAllString(s, "")
		}),
	)
}

// ReplaceCommas replaces commas in comma-separated numbers. Dropping commas
// (an empty replacement) only touches thousands grouping such as "12,000",
// so a decimal comma like "1,5" is left for a "." replacement.
func ReplaceCommas(replacement string) Stage {
	matcher := commasRegex
	if replacement == "" {
		matcher = thousandsRegex
	}
	return NewStage(StageReplaceCommas,
		regexMatcher(StageReplaceCommas, matcher),
		pure(func(s string) string {
			return strings.ReplaceAll(s, ",", replacement)
		}),
	)
}

// ConvertScientificNotation expands values like "3.5e2" to "350"
func ConvertScientificNotation() Stage {
	return NewStage(StageScientificNotation,
		regexMatcher(StageScientificNotation, scientificRegex),
		stringTransform(func(s string) (string, error) {
			normalized := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
			f, err := strconv.ParseFloat(normalized, 64)
			if err != nil {
				return s, fmt.Errorf("parse scientific notation: %w", err)
			}
			if math.IsInf(f, 0) {
				return s, errors.New("scientific notation overflows float64")
			}
			return strconv.FormatFloat(f, 'f', -1, 64), nil
		}),
	)
}

// ConvertTextToNumbers replaces number words, e.g. {"ten": "10"}
func ConvertTextToNumbers(mapping map[string]string) Stage {
	return replaceAll(StageTextToNumbers, mapping)
}

// MaxRoundDecimals bounds RoundOff; float64 carries no digits past it
const MaxRoundDecimals = 324

// RoundOff rounds values with more than the given number of decimals.
// Decimals outside 0..MaxRoundDecimals are clamped.
func RoundOff(decimals int) Stage {
	decimals = max(0, min(decimals, MaxRoundDecimals))

	// Rounds through the decimal rendering, so finite input stays finite
	round := func(f float64) float64 {
		r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', decimals, 64), 64)
		if err != nil || math.IsInf(r, 0) || math.IsNaN(r) {
			return f
		}
		return r
	}

	tooPrecise := func(f float64) bool {
		return !math.IsInf(f, 0) && !math.IsNaN(f) && round(f) != f
	}

	return NewStage(StageRoundOff,
		pattern.Predicate{
			Name: StageRoundOff,
			Match: func(c model.Cell) bool {
				if f, ok := c.Float(); ok {
					return tooPrecise(f)
				}
				if s, ok := c.Str(); ok && numericRegex.MatchString(s) {
					f, err := strconv.ParseFloat(s, 64)
					return err == nil && tooPrecise(f)
				}
				return false
			},
		},
		func(c model.Cell) (model.Cell, error) {
			if f, ok := c.Float(); ok {
				return model.Number(round(f)), nil
			}
			s, _ := c.Str()
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return c, err
			}
			return model.String(strconv.FormatFloat(round(f), 'f', -1, 64)), nil
		},
	)
}

// ToLowercase lowercases strings containing upper-case letters
func ToLowercase() Stage {
	return NewStage(StageLowercase,
		stringMatcher(StageLowercase, func(s string) bool { return s != strings.ToLower(s) }),
		pure(strings.ToLower),
	)
}

// ToUppercase uppercases strings containing lower-case letters
func ToUppercase() Stage {
	return NewStage(StageUppercase,
		stringMatcher(StageUppercase, func(s string) bool { return s != strings.ToUpper(s) }),
		pure(strings.ToUpper),
	)
}

// CollapseSpaces replaces runs of whitespace with a single space
func CollapseSpaces() Stage {
	return NewStage(StageCollapseSpaces,
		regexMatcher(StageCollapseSpaces, multiSpacesRegex),
		pure(func(s string) string {
			return spacesRunRegex.ReplaceAllString(s, " ")
		}),
	)
}

// ReplaceSplitters normalizes splitters, e.g. {"/": "-"} turns "active/member" into "active-member"
func ReplaceSplitters(replacements map[string]string) Stage {
	return replaceAll(StageReplaceSplitters, replacements)
}

// ReplaceSymbols replaces symbols with text, e.g. {"@": "a"} turns "Germ@ny" into "Germany"
func ReplaceSymbols(replacements map[string]string) Stage {
	return replaceAll(StageReplaceSymbols, replacements)
}

// StripSymbols removes the known symbols from values containing any
// non-alphanumeric, non-space character. Symbols outside the known set are
// left in place, so such values end up in the ledger.
func StripSymbols(known string) Stage {
	if known == "" {
		known = DefaultSymbols
	}
	hasSymbol := regexp.MustCompile(`[^\p{L}\p{N}\s]`)

	return NewStage(StageStripSymbols,
		regexMatcher(StageStripSymbols, hasSymbol),
		pure(func(s string) string {
			return strings.Map(func(r rune) rune {
				if strings.ContainsRune(known, r) {
					return -1
				}
				return r
			}, s)
		}),
	)
}

// StandardizeDatetime parses date and time strings into timestamps.
// Strings no layout accepts stay as they are and are ledgered.
func StandardizeDatetime(layouts ...string) Stage {
	if len(layouts) == 0 {
		layouts = datetimeLayouts
	}

	return NewStage(StageStandardizeDatetime,
		stringMatcher(StageStandardizeDatetime, func(s string) bool { return strings.TrimSpace(s) != "" }),
		func(c model.Cell) (model.Cell, error) {
			s, _ := c.Str()
			t, err := toTime(s, layouts)
			if err != nil {
				return c, err
			}
			return model.Time(t), nil
		},
	)
}

// toTime tries each layout in order
func toTime(value string, layouts []string) (time.Time, error) {
	cleaned := strings.TrimSpace(value)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time from '%s'", cleaned)
}

// ReplacePlaceholders replaces placeholder tokens, and nulls unless the
// replacement is itself null, with a single replacement value
func ReplacePlaceholders(tokens []string, replacement model.Cell) Stage {
	matchers := []pattern.Predicate{pattern.OneOf(StageReplacePlaceholders, tokens...)}
	if !replacement.IsNull() {
		matchers = append(matchers, pattern.Missing(StageReplacePlaceholders))
	}

	return NewStage(StageReplacePlaceholders,
		pattern.AnyOf(StageReplacePlaceholders, matchers...),
		func(model.Cell) (model.Cell, error) {
			return replacement, nil
		},
	)
}

// Options tunes the default stage lists
type Options struct {
	// Placeholders are replaced with null before any other stage runs
	Placeholders []string
}

// DefaultStages returns the default ordered stage list for a domain
func DefaultStages(domain model.Domain, opts Options) ([]Stage, error) {
	var stages []Stage
	if len(opts.Placeholders) > 0 {
		stages = append(stages, ReplacePlaceholders(opts.Placeholders, model.Null()))
	}

	switch domain {
	case model.DomainNumeric:
		stages = append(stages,
			StripSpaces(),
			RemoveCurrencySymbols(),
			RemoveUnits(),
			ReplaceCommas(""),
			ConvertScientificNotation(),
		)
	case model.DomainText:
		stages = append(stages,
			StripSpaces(),
			CollapseSpaces(),
		)
	case model.DomainDatetime:
		stages = append(stages,
			StripSpaces(),
			StandardizeDatetime(),
		)
	default:
		return nil, &model.ConfigurationError{
			Component: "pipeline",
			Name:      domain.String(),
			Reason:    "no default stages for domain",
		}
	}
	return stages, nil
}
