package run

import (
	"runtime"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TheDucky-2/DataLabX/pkg/config"
	"github.com/TheDucky-2/DataLabX/pkg/metrics"
)

// DefaultBackendThreshold is the row count at which classification switches
// to the columnar backend
const DefaultBackendThreshold = 100_000

// Context carries everything a classify or clean call needs from its caller.
// There is no package-level state; two runs never share a Context's collector.
type Context struct {
	Logger           *zap.Logger
	BackendThreshold int
	Workers          int
	RunID            string
	Metrics          *metrics.Collector
}

// New returns a Context with defaults filled in
func New(logger *zap.Logger) Context {
	return Context{Logger: logger}.WithDefaults()
}

// FromConfig builds a Context from loaded configuration
func FromConfig(cfg *config.Config, logger *zap.Logger) Context {
	rc := Context{
		Logger:           logger,
		BackendThreshold: cfg.BackendThreshold,
		Workers:          cfg.Workers,
	}
	if cfg.Metrics.Enabled {
		rc.Metrics = metrics.NewCollector(cfg.Metrics.Namespace, logger)
	}
	return rc.WithDefaults()
}

// WithDefaults fills zero fields: a nop logger, the default threshold, one
// worker per CPU and a fresh run id
func (c Context) WithDefaults() Context {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.BackendThreshold <= 0 {
		c.BackendThreshold = DefaultBackendThreshold
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.RunID == "" {
		c.RunID = uuid.New().String()
	}
	return c
}

// WithThreshold returns a copy using a different backend threshold
func (c Context) WithThreshold(threshold int) Context {
	c.BackendThreshold = threshold
	return c
}

// NewRun returns a copy with a fresh run id, keeping every other setting
func (c Context) NewRun() Context {
	c.RunID = uuid.New().String()
	return c
}
