// pkg/connector/factory.go
package connector

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/TheDucky-2/DataLabX/pkg/config"
	"github.com/TheDucky-2/DataLabX/pkg/converter"
)

// ConnectorFactory creates database sources from configuration
type ConnectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	conv   *converter.TypeConverter
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, logger *zap.Logger) *ConnectorFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
		conv:   converter.NewTypeConverter(logger.Named("converter")),
	}
}

// WithConverter replaces the converter used to build tables
func (f *ConnectorFactory) WithConverter(conv *converter.TypeConverter) *ConnectorFactory {
	f.conv = conv
	return f
}

// CreateSnowflakeConnector creates a new Snowflake connector
func (f *ConnectorFactory) CreateSnowflakeConnector(ctx context.Context) (*SnowflakeConnector, error) {
	if !f.cfg.Snowflake.Enabled() {
		return nil, errors.New("snowflake source is not configured")
	}
	f.logger.Info("Creating Snowflake connector")

	connector, err := NewSnowflakeConnector(ctx, &f.cfg.Snowflake, f.conv, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Snowflake connector: %w", err)
	}
	return connector, nil
}

// CreatePostgresConnector creates a new PostgreSQL connector
func (f *ConnectorFactory) CreatePostgresConnector(ctx context.Context) (*PostgresConnector, error) {
	if !f.cfg.Postgres.Enabled() {
		return nil, errors.New("postgres source is not configured")
	}
	f.logger.Info("Creating PostgreSQL connector")

	connector, err := NewPostgresConnector(ctx, &f.cfg.Postgres, f.conv, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connector: %w", err)
	}
	return connector, nil
}

// CreateEnabled creates a source for every configured database, keyed by
// "snowflake" or "postgres". On failure the sources already opened are closed.
func (f *ConnectorFactory) CreateEnabled(ctx context.Context) (map[string]Source, error) {
	sources := make(map[string]Source, 2)

	if f.cfg.Snowflake.Enabled() {
		snowConn, err := f.CreateSnowflakeConnector(ctx)
		if err != nil {
			return nil, err
		}
		sources["snowflake"] = snowConn
	}

	if f.cfg.Postgres.Enabled() {
		pgConn, err := f.CreatePostgresConnector(ctx)
		if err != nil {
			for _, s := range sources {
				s.Close() // Clean up the sources opened so far
			}
			return nil, err
		}
		sources["postgres"] = pgConn
	}

	return sources, nil
}
