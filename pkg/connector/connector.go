// pkg/connector/connector.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/TheDucky-2/DataLabX/pkg/converter"
	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// Source reads tables from a SQL database
type Source interface {
	// DB returns the underlying database handle
	DB() *sqlx.DB

	// Validate verifies the connection and read access
	Validate(ctx context.Context) error

	// Query runs a statement and loads its result as a table with dense row ids
	Query(ctx context.Context, query string, args ...interface{}) (*model.Table, error)

	// ListTables returns the base tables of a schema, sorted by name
	ListTables(ctx context.Context, schema string) ([]string, error)

	// ReadTable loads columns of a table; nil columns means all, limit <= 0 means no limit
	ReadTable(ctx context.Context, schema, table string, columns []string, limit int) (*model.Table, error)

	// Close closes the connection and releases resources
	Close() error
}

// ConnStats contains standardized connection statistics
type ConnStats struct {
	OpenConnections int
	InUse           int
	Idle            int
	MaxOpenConns    int
	WaitCount       int64
	WaitDuration    time.Duration
}

// GetConnectionStats returns connection pool statistics for logging
func GetConnectionStats(db *sql.DB) ConnStats {
	stats := db.Stats()
	return ConnStats{
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		MaxOpenConns:    stats.MaxOpenConnections,
		WaitCount:       stats.WaitCount,
		WaitDuration:    stats.WaitDuration,
	}
}

// LogConnectionStats logs connection pool statistics
func LogConnectionStats(logger *zap.Logger, name string, db *sql.DB) {
	stats := GetConnectionStats(db)
	logger.Debug("Connection pool stats",
		zap.String("database", name),
		zap.Int("open_connections", stats.OpenConnections),
		zap.Int("in_use", stats.InUse),
		zap.Int("idle", stats.Idle),
		zap.Int("max_open", stats.MaxOpenConns),
		zap.Int64("wait_count", stats.WaitCount),
		zap.Duration("wait_duration", stats.WaitDuration),
	)
}

// PingWithTimeout attempts to ping a database with a timeout
func PingWithTimeout(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- db.PingContext(pingCtx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-pingCtx.Done():
		return fmt.Errorf("ping timed out after %v: %w", timeout, pingCtx.Err())
	}
}

// ApplyConnectionSettings configures database connection pool settings
func ApplyConnectionSettings(db *sql.DB, maxOpen, maxIdle int, maxLifetime, maxIdleTime time.Duration) {
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if maxLifetime > 0 {
		db.SetConnMaxLifetime(maxLifetime)
	}
	if maxIdleTime > 0 {
		db.SetConnMaxIdleTime(maxIdleTime)
	}
}

// QuoteIdentifier quotes a schema, table or column name. Both PostgreSQL and
// Snowflake use double quotes with embedded quotes doubled.
func QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

// selectQuery builds a SELECT over quoted identifiers
func selectQuery(schema, table string, columns []string, limit int) string {
	cols := "*"
	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, c := range columns {
			quoted[i] = QuoteIdentifier(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	from := QuoteIdentifier(table)
	if schema != "" {
		from = QuoteIdentifier(schema) + "." + from
	}

	query := fmt.Sprintf("SELECT %s FROM %s", cols, from)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return query
}

// queryTable runs a query and converts the whole result set into a table
func queryTable(ctx context.Context, db *sqlx.DB, conv *converter.TypeConverter, logger *zap.Logger, timeout time.Duration, query string, args ...interface{}) (*model.Table, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	specs := make([]converter.ColumnSpec, len(types))
	for i, ct := range types {
		nullable, _ := ct.Nullable()
		specs[i] = converter.ColumnSpec{
			Name:       ct.Name(),
			SourceType: ct.DatabaseTypeName(),
			Nullable:   nullable,
		}
	}
	for _, s := range conv.AnalyzeColumns(specs) {
		logger.Info(s)
	}

	var values [][]interface{}
	for rows.Next() {
		row, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(values), err)
		}
		values = append(values, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	cols, err := conv.BuildColumns(specs, values)
	if err != nil {
		return nil, err
	}

	table, err := model.NewTable(nil, cols...)
	if err != nil {
		return nil, err
	}

	logger.Debug("Loaded query result",
		zap.Int("rows", table.Len()),
		zap.Int("columns", len(cols)))
	return table, nil
}
