// pkg/pattern/catalog.go
package pattern

import (
	"fmt"
	"slices"
	"time"

	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// Catalog is a validated set of uniquely named predicates for one value domain.
// A catalog is immutable once constructed and safe for concurrent use.
type Catalog struct {
	domain      model.Domain
	preds       []Predicate
	index       map[string]int
	complements [][2]string
	sample      []model.Cell
}

type catalogOptions struct {
	complements [][2]string
	sample      []model.Cell
}

// CatalogOption configures catalog construction
type CatalogOption func(*catalogOptions)

// WithComplement declares that a and b partition the non-null cells
func WithComplement(a, b string) CatalogOption {
	return func(o *catalogOptions) {
		o.complements = append(o.complements, [2]string{a, b})
	}
}

// WithValidationSample replaces the sample used to check complementary pairs
func WithValidationSample(cells ...model.Cell) CatalogOption {
	return func(o *catalogOptions) {
		o.sample = slices.Clone(cells)
	}
}

// defaultSample covers the value shapes the default catalogs distinguish
func defaultSample() []model.Cell {
	cells := model.Strings(
		"", " ", "abc", "hello world", "N/A", "UNKNOWN", "12", "-3.5", "+7",
		"12,000", "1,000,000", "  15  ", "3.5e2", "1,5E-3", "$10", "10€",
		"10kg", "1.2.3", "Germ@ny", "2024-01-31", "31/01/2024", "13:45",
		"2024-01-31 13:45:00", "20240131", "?", "approx 100",
	)
	return append(cells,
		model.Number(0),
		model.Number(-12.75),
		model.Number(1e21),
		model.Time(time.Date(2024, 1, 31, 13, 45, 0, 0, time.UTC)),
	)
}

// NewCatalog validates predicates and complementary pairs.
// It fails with *model.ConfigurationError on empty or duplicate names, on a pair
// naming an unknown predicate, and on a pair that does not partition the sample.
func NewCatalog(domain model.Domain, preds []Predicate, opts ...CatalogOption) (*Catalog, error) {
	o := catalogOptions{sample: defaultSample()}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Catalog{
		domain:      domain,
		preds:       make([]Predicate, 0, len(preds)),
		index:       make(map[string]int, len(preds)),
		complements: o.complements,
		sample:      o.sample,
	}

	for _, p := range preds {
		if p.Name == "" {
			return nil, c.configErr("", "predicate name cannot be empty")
		}
		if p.Match == nil {
			return nil, c.configErr(p.Name, "predicate has no match function")
		}
		if _, dup := c.index[p.Name]; dup {
			return nil, c.configErr(p.Name, "duplicate predicate name")
		}
		c.index[p.Name] = len(c.preds)
		c.preds = append(c.preds, p)
	}

	if err := c.checkComplements(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustCatalog is NewCatalog that panics on error
func MustCatalog(domain model.Domain, preds []Predicate, opts ...CatalogOption) *Catalog {
	c, err := NewCatalog(domain, preds, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) configErr(name, reason string) error {
	return &model.ConfigurationError{
		Component: fmt.Sprintf("%s catalog", c.domain),
		Name:      name,
		Reason:    reason,
	}
}

// checkComplements runs once at construction, not per evaluation
func (c *Catalog) checkComplements() error {
	for _, pair := range c.complements {
		a, okA := c.Lookup(pair[0])
		b, okB := c.Lookup(pair[1])
		if !okA || !okB {
			return c.configErr(pair[0]+"/"+pair[1], "complementary pair names an unknown predicate")
		}

		for _, cell := range c.sample {
			if cell.IsNull() {
				continue
			}
			if a.Eval(cell) == b.Eval(cell) {
				return c.configErr(pair[0]+"/"+pair[1],
					fmt.Sprintf("not complementary for sample value %q", cell.Text()))
			}
		}
	}
	return nil
}

// Domain returns the value domain the catalog covers
func (c *Catalog) Domain() model.Domain {
	return c.domain
}

// Names returns predicate names in declaration order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.preds))
	for i, p := range c.preds {
		names[i] = p.Name
	}
	return names
}

// Len returns the number of predicates
func (c *Catalog) Len() int {
	return len(c.preds)
}

// Has reports whether the catalog defines name
func (c *Catalog) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Lookup returns the named predicate
func (c *Catalog) Lookup(name string) (Predicate, bool) {
	idx, ok := c.index[name]
	if !ok {
		return Predicate{}, false
	}
	return c.preds[idx], true
}

// Predicates returns the predicates in declaration order
func (c *Catalog) Predicates() []Predicate {
	return slices.Clone(c.preds)
}

// Complements returns the declared complementary pairs
func (c *Catalog) Complements() [][2]string {
	return slices.Clone(c.complements)
}

// Select resolves names to predicates. An empty list selects every predicate.
func (c *Catalog) Select(names ...string) ([]Predicate, error) {
	if len(names) == 0 {
		return c.Predicates(), nil
	}

	out := make([]Predicate, 0, len(names))
	for _, name := range names {
		p, ok := c.Lookup(name)
		if !ok {
			return nil, &model.UnknownDiagnosticError{Name: name, Catalog: c.domain.String()}
		}
		out = append(out, p)
	}
	return out, nil
}

// Evaluate runs every predicate against one cell
func (c *Catalog) Evaluate(cell model.Cell) map[string]bool {
	result := make(map[string]bool, len(c.preds))
	for _, p := range c.preds {
		result[p.Name] = p.Eval(cell)
	}
	return result
}

// Extend returns a new catalog with additional predicates; c is not modified
func (c *Catalog) Extend(preds ...Predicate) (*Catalog, error) {
	all := append(c.Predicates(), preds...)

	opts := []CatalogOption{WithValidationSample(c.sample...)}
	for _, pair := range c.complements {
		opts = append(opts, WithComplement(pair[0], pair[1]))
	}
	return NewCatalog(c.domain, all, opts...)
}
