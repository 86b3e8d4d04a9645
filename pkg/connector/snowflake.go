// pkg/connector/snowflake.go
package connector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	sf "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/TheDucky-2/DataLabX/pkg/config"
	"github.com/TheDucky-2/DataLabX/pkg/converter"
	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// SnowflakeConnector implements the Source interface for Snowflake
type SnowflakeConnector struct {
	db     *sqlx.DB
	logger *zap.Logger
	cfg    *config.SnowflakeConfig
	conv   *converter.TypeConverter
}

// DSN builds a Snowflake DSN from configuration
func DSN(cfg *config.SnowflakeConfig) (string, error) {
	return sf.DSN(&sf.Config{
		Account:       cfg.Account,
		User:          cfg.User,
		Password:      cfg.Password,
		Database:      cfg.Database,
		Warehouse:     cfg.Warehouse,
		Role:          cfg.Role,
		Authenticator: cfg.Authenticator(),
	})
}

// NewSnowflakeConnector creates a new Snowflake connection
func NewSnowflakeConnector(ctx context.Context, cfg *config.SnowflakeConfig, conv *converter.TypeConverter, logger *zap.Logger) (*SnowflakeConnector, error) {
	logger = logger.Named("snowflake-connector")

	// Log connection attempt (without credentials)
	logger.Info("Connecting to Snowflake",
		zap.String("account", cfg.Account),
		zap.String("user", cfg.User),
		zap.String("database", cfg.Database),
		zap.String("warehouse", cfg.Warehouse),
		zap.String("role", cfg.Role))

	dsn, err := DSN(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build Snowflake DSN: %w", err)
	}

	db, err := sqlx.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Snowflake connection: %w", err)
	}

	ApplyConnectionSettings(
		db.DB,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	if err := PingWithTimeout(ctx, db.DB, 10*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Snowflake: %w", err)
	}

	c := &SnowflakeConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
		conv:   conv,
	}
	LogConnectionStats(logger, cfg.Database, db.DB)
	return c, nil
}

// DB returns the underlying database connection
func (c *SnowflakeConnector) DB() *sqlx.DB {
	return c.db
}

// Validate verifies the Snowflake connection and the configured schemas
func (c *SnowflakeConnector) Validate(ctx context.Context) error {
	var role, database, warehouse string
	err := c.db.QueryRowxContext(ctx, "SELECT CURRENT_ROLE(), CURRENT_DATABASE(), CURRENT_WAREHOUSE()").Scan(
		&role, &database, &warehouse)
	if err != nil {
		return fmt.Errorf("failed to verify Snowflake access: %w", err)
	}

	c.logger.Info("Connected to Snowflake",
		zap.String("role", role),
		zap.String("database", database),
		zap.String("warehouse", warehouse))

	if !strings.EqualFold(database, c.cfg.Database) {
		return fmt.Errorf("connected to wrong database: %s (expected: %s)",
			database, c.cfg.Database)
	}

	missing, err := c.missingSchemas(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify schemas: %w", err)
	}
	if len(missing) > 0 {
		c.logger.Warn("Some configured schemas not found",
			zap.Strings("missing_schemas", missing))
	}
	return nil
}

// missingSchemas returns the configured schemas absent from the database
func (c *SnowflakeConnector) missingSchemas(ctx context.Context) ([]string, error) {
	if len(c.cfg.Schemas) == 0 {
		return nil, nil
	}

	var names []string
	err := c.db.SelectContext(ctx, &names,
		"SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE CATALOG_NAME = ?",
		strings.ToUpper(c.cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to query schemas: %w", err)
	}

	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[strings.ToUpper(n)] = true
	}

	var missing []string
	for _, schema := range c.cfg.Schemas {
		if upper := strings.ToUpper(schema); !present[upper] {
			missing = append(missing, upper)
		}
	}
	return missing, nil
}

// ListTables returns the base tables of a schema
func (c *SnowflakeConnector) ListTables(ctx context.Context, schema string) ([]string, error) {
	var tables []string
	err := c.db.SelectContext(ctx, &tables, `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
	`, strings.ToUpper(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tables from schema %s: %w", schema, err)
	}
	return tables, nil
}

// Query runs a statement with ? placeholders and loads the result
func (c *SnowflakeConnector) Query(ctx context.Context, query string, args ...interface{}) (*model.Table, error) {
	return queryTable(ctx, c.db, c.conv, c.logger, c.cfg.QueryTimeout, query, args...)
}

// ReadTable loads columns of a table. Identifiers are quoted, so they must
// be given in the case Snowflake stores them (upper case unless created quoted).
func (c *SnowflakeConnector) ReadTable(ctx context.Context, schema, table string, columns []string, limit int) (*model.Table, error) {
	query := selectQuery(schema, table, columns, limit)
	c.logger.Debug("Reading table", zap.String("query", query))

	t, err := c.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s.%s: %w", schema, table, err)
	}
	return t, nil
}

// Close closes the database connection
func (c *SnowflakeConnector) Close() error {
	c.logger.Info("Closing Snowflake connection")
	LogConnectionStats(c.logger, c.cfg.Database, c.db.DB)
	return c.db.Close()
}

var (
	_ Source = (*SnowflakeConnector)(nil)
	_ Source = (*PostgresConnector)(nil)
)
