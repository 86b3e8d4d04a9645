// pkg/registry/registry.go
package registry

import (
	"sort"
	"sync"

	"github.com/TheDucky-2/DataLabX/pkg/cleaner"
	"github.com/TheDucky-2/DataLabX/pkg/model"
	"github.com/TheDucky-2/DataLabX/pkg/pattern"
)

// Entry pairs a domain's catalog with its default stage list
type Entry struct {
	Domain  model.Domain
	Catalog *pattern.Catalog
	Stages  []cleaner.Stage
}

// Registry maps domain tags to catalogs and default stages. Adding a domain
// means registering a new pair.
type Registry struct {
	mu      sync.RWMutex
	entries map[model.Domain]Entry
}

// New creates an empty registry
func New() *Registry {
	return &Registry{entries: make(map[model.Domain]Entry)}
}

// Options configures the default registrations
type Options struct {
	Placeholders []string
}

// Default returns a registry holding the numeric, text and datetime pairs
func Default(opts Options) (*Registry, error) {
	r := New()
	catalogOpts := pattern.Options{Placeholders: opts.Placeholders}
	stageOpts := cleaner.Options{Placeholders: opts.Placeholders}

	for _, domain := range []model.Domain{model.DomainNumeric, model.DomainText, model.DomainDatetime} {
		catalog, err := pattern.ForDomain(domain, catalogOpts)
		if err != nil {
			return nil, err
		}
		stages, err := cleaner.DefaultStages(domain, stageOpts)
		if err != nil {
			return nil, err
		}
		if err := r.Register(domain, catalog, stages); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register binds a catalog and stage list to a domain, replacing any
// previous pair. The catalog must be built for the same domain.
func (r *Registry) Register(domain model.Domain, catalog *pattern.Catalog, stages []cleaner.Stage) error {
	if domain == "" {
		return &model.ConfigurationError{Component: "registry", Reason: "domain cannot be empty"}
	}
	if catalog == nil {
		return &model.ConfigurationError{Component: "registry", Name: domain.String(), Reason: "catalog cannot be nil"}
	}
	if catalog.Domain() != domain {
		return &model.ConfigurationError{
			Component: "registry",
			Name:      domain.String(),
			Reason:    "catalog is built for domain " + catalog.Domain().String(),
		}
	}
	// Reject a stage list NewPipeline would reject, at registration time
	if _, err := cleaner.NewPipeline(stages); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[domain] = Entry{
		Domain:  domain,
		Catalog: catalog,
		Stages:  append([]cleaner.Stage(nil), stages...),
	}
	return nil
}

// Lookup returns the pair registered for a domain
func (r *Registry) Lookup(domain model.Domain) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[domain]
	if !ok {
		return Entry{}, &model.ConfigurationError{Component: "registry", Name: domain.String(), Reason: "no catalog registered for domain"}
	}
	e.Stages = append([]cleaner.Stage(nil), e.Stages...)
	return e, nil
}

// Catalog returns the catalog registered for a domain
func (r *Registry) Catalog(domain model.Domain) (*pattern.Catalog, error) {
	e, err := r.Lookup(domain)
	if err != nil {
		return nil, err
	}
	return e.Catalog, nil
}

// Stages returns the default stage list registered for a domain
func (r *Registry) Stages(domain model.Domain) ([]cleaner.Stage, error) {
	e, err := r.Lookup(domain)
	if err != nil {
		return nil, err
	}
	return e.Stages, nil
}

// Domains returns the registered domains, sorted
func (r *Registry) Domains() []model.Domain {
	r.mu.RLock()
	defer r.mu.RUnlock()

	domains := make([]model.Domain, 0, len(r.entries))
	for d := range r.entries {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool { return domains[i] < domains[j] })
	return domains
}
