// pkg/config/database.go
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/snowflakedb/gosnowflake"
)

// SnowflakeConfig holds Snowflake source connection parameters
type SnowflakeConfig struct {
	User              string   `envconfig:"USER"`
	Password          string   `envconfig:"PASSWORD"`
	Account           string   `envconfig:"ACCOUNT"`
	Warehouse         string   `envconfig:"WAREHOUSE"`
	Database          string   `envconfig:"DATABASE"`
	Role              string   `envconfig:"ROLE"`
	AuthenticatorName string   `envconfig:"AUTHENTICATOR" default:"snowflake" validate:"oneof=snowflake oauth externalbrowser username_password_mfa jwt token okta"`
	Schemas           []string `envconfig:"SCHEMAS"`

	// Connection pool settings
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"10" validate:"gte=0"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"5" validate:"gte=0"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"10m"`
	ConnMaxIdleTime time.Duration `envconfig:"CONN_MAX_IDLE_TIME" default:"5m"`

	// Query timeout
	QueryTimeout time.Duration `envconfig:"QUERY_TIMEOUT" default:"5m"`
}

// PostgresConfig holds PostgreSQL source connection parameters
type PostgresConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     int    `envconfig:"PORT" default:"5432" validate:"gt=0,lte=65535"`
	User     string `envconfig:"USER"`
	Password string `envconfig:"PASSWORD"`
	Database string `envconfig:"DB"`
	SSLMode  string `envconfig:"SSLMODE" default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`

	// Connection pool settings
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"25" validate:"gte=0"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"10" validate:"gte=0"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"30m"`
	ConnMaxIdleTime time.Duration `envconfig:"CONN_MAX_IDLE_TIME" default:"10m"`

	// Statement timeout
	StatementTimeout time.Duration `envconfig:"STATEMENT_TIMEOUT" default:"5m"`
}

// Enabled reports whether a Snowflake source was configured
func (c *SnowflakeConfig) Enabled() bool {
	return c.Account != ""
}

// Validate checks the fields a Snowflake connection needs
func (c *SnowflakeConfig) Validate() error {
	if c.User == "" {
		return errors.New("user is required")
	}
	if c.Warehouse == "" {
		return errors.New("warehouse is required")
	}
	if c.Password == "" && c.Authenticator() == gosnowflake.AuthTypeSnowflake {
		return errors.New("password is required for snowflake authentication")
	}
	return nil
}

// Authenticator converts the configured name to the driver's auth type
func (c *SnowflakeConfig) Authenticator() gosnowflake.AuthType {
	switch c.AuthenticatorName {
	case "oauth":
		return gosnowflake.AuthTypeOAuth
	case "externalbrowser":
		return gosnowflake.AuthTypeExternalBrowser
	case "username_password_mfa":
		return gosnowflake.AuthTypeUsernamePasswordMFA
	case "jwt":
		return gosnowflake.AuthTypeJwt
	case "token":
		return gosnowflake.AuthTypeTokenAccessor
	case "okta":
		return gosnowflake.AuthTypeOkta
	default:
		return gosnowflake.AuthTypeSnowflake
	}
}

// Enabled reports whether a PostgreSQL source was configured
func (c *PostgresConfig) Enabled() bool {
	return c.Database != ""
}

// Validate checks the fields a PostgreSQL connection needs
func (c *PostgresConfig) Validate() error {
	if c.User == "" {
		return errors.New("user is required")
	}
	if c.Host == "" {
		return errors.New("host is required")
	}
	return nil
}

// ConnectionString returns a PostgreSQL DSN in key/value form
func (c *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}
