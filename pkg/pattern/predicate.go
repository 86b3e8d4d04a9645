// pkg/pattern/predicate.go
package pattern

import (
	"regexp"
	"slices"

	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// Predicate is a named, pure boolean test over a cell
type Predicate struct {
	Name  string
	Match func(model.Cell) bool
}

// Eval runs the predicate. A predicate that panics is treated as not matching,
// so evaluation is total over every cell.
func (p Predicate) Eval(c model.Cell) (matched bool) {
	if p.Match == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			matched = false
		}
	}()
	return p.Match(c)
}

// Regex matches non-null cells whose rendered text matches expr.
// Panics on an invalid expression, like regexp.MustCompile.
func Regex(name, expr string) Predicate {
	re := regexp.MustCompile(expr)
	return Predicate{
		Name: name,
		Match: func(c model.Cell) bool {
			return !c.IsNull() && re.MatchString(c.Text())
		},
	}
}

// Missing matches null cells only
func Missing(name string) Predicate {
	return Predicate{
		Name:  name,
		Match: model.Cell.IsNull,
	}
}

// Not matches non-null cells that p does not match
func Not(name string, p Predicate) Predicate {
	return Predicate{
		Name: name,
		Match: func(c model.Cell) bool {
			return !c.IsNull() && !p.Eval(c)
		},
	}
}

// AllOf matches cells matched by every predicate
func AllOf(name string, preds ...Predicate) Predicate {
	return Predicate{
		Name: name,
		Match: func(c model.Cell) bool {
			for _, p := range preds {
				if !p.Eval(c) {
					return false
				}
			}
			return len(preds) > 0
		},
	}
}

// AnyOf matches cells matched by at least one predicate
func AnyOf(name string, preds ...Predicate) Predicate {
	return Predicate{
		Name: name,
		Match: func(c model.Cell) bool {
			for _, p := range preds {
				if p.Eval(c) {
					return true
				}
			}
			return false
		},
	}
}

// NoneOf matches non-null cells matched by none of the predicates
func NoneOf(name string, preds ...Predicate) Predicate {
	return Predicate{
		Name: name,
		Match: func(c model.Cell) bool {
			if c.IsNull() {
				return false
			}
			for _, p := range preds {
				if p.Eval(c) {
					return false
				}
			}
			return true
		},
	}
}

// OneOf matches non-null string cells equal to one of the tokens
func OneOf(name string, tokens ...string) Predicate {
	set := slices.Clone(tokens)
	return Predicate{
		Name: name,
		Match: func(c model.Cell) bool {
			s, ok := c.Str()
			return ok && slices.Contains(set, s)
		},
	}
}
