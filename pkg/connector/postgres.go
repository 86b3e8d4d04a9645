// pkg/connector/postgres.go
package connector

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/TheDucky-2/DataLabX/pkg/config"
	"github.com/TheDucky-2/DataLabX/pkg/converter"
	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// PostgresConnector implements the Source interface for PostgreSQL
type PostgresConnector struct {
	db     *sqlx.DB
	logger *zap.Logger
	cfg    *config.PostgresConfig
	conv   *converter.TypeConverter
}

// NewPostgresConnector creates and initializes a new PostgreSQL connector
func NewPostgresConnector(ctx context.Context, cfg *config.PostgresConfig, conv *converter.TypeConverter, logger *zap.Logger) (*PostgresConnector, error) {
	logger = logger.Named("postgres-connector")

	// Log connection attempt
	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sqlx.Open("pgx", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	ApplyConnectionSettings(
		db.DB,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	if err := PingWithTimeout(ctx, db.DB, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	return newPostgresConnector(db, cfg, conv, logger), nil
}

func newPostgresConnector(db *sqlx.DB, cfg *config.PostgresConfig, conv *converter.TypeConverter, logger *zap.Logger) *PostgresConnector {
	c := &PostgresConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
		conv:   conv,
	}
	LogConnectionStats(logger, cfg.Database, db.DB)
	return c
}

// DB returns the underlying database connection
func (c *PostgresConnector) DB() *sqlx.DB {
	return c.db
}

// Validate verifies the PostgreSQL connection
func (c *PostgresConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.GetContext(ctx, &version, "SELECT version()"); err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}

	c.logger.Info("PostgreSQL connection validated",
		zap.String("version", version),
		zap.String("database", c.cfg.Database),
		zap.String("host", c.cfg.Host),
		zap.Int("port", c.cfg.Port))
	return nil
}

// ListTables returns the base tables of a schema
func (c *PostgresConnector) ListTables(ctx context.Context, schema string) ([]string, error) {
	var tables []string
	err := c.db.SelectContext(ctx, &tables, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables in schema %s: %w", schema, err)
	}
	return tables, nil
}

// Query runs a statement with $n placeholders and loads the result
func (c *PostgresConnector) Query(ctx context.Context, query string, args ...interface{}) (*model.Table, error) {
	return queryTable(ctx, c.db, c.conv, c.logger, c.cfg.StatementTimeout, query, args...)
}

// ReadTable loads columns of a table
func (c *PostgresConnector) ReadTable(ctx context.Context, schema, table string, columns []string, limit int) (*model.Table, error) {
	query := selectQuery(schema, table, columns, limit)
	c.logger.Debug("Reading table", zap.String("query", query))

	t, err := c.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s.%s: %w", schema, table, err)
	}
	return t, nil
}

// Close closes the database connection
func (c *PostgresConnector) Close() error {
	c.logger.Info("Closing PostgreSQL connection")
	LogConnectionStats(c.logger, c.cfg.Database, c.db.DB)
	return c.db.Close()
}
