// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by LoadConfig
const EnvPrefix = "DATALAB"

// Config represents the library configuration
type Config struct {
	// Classification settings
	BackendThreshold int `envconfig:"BACKEND_THRESHOLD" default:"100000" validate:"gt=0"`
	Workers          int `envconfig:"WORKERS" default:"0" validate:"gte=0"` // 0 means use runtime.NumCPU()

	// Repair settings
	InPlace      bool     `envconfig:"IN_PLACE" default:"false"`
	Placeholders []string `envconfig:"PLACEHOLDERS" default:"UNKNOWN,N/A,NA,null,none,-"`

	Logging LoggingConfig `envconfig:"LOGGING"`
	Metrics MetricsConfig `envconfig:"METRICS"`

	// Optional SQL sources
	Snowflake SnowflakeConfig `envconfig:"SNOWFLAKE"`
	Postgres  PostgresConfig  `envconfig:"POSTGRES"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	Level  string `envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `envconfig:"FORMAT" default:"json" validate:"oneof=json console"`
}

// MetricsConfig controls Prometheus collection
type MetricsConfig struct {
	Enabled   bool   `envconfig:"ENABLED" default:"true"`
	Namespace string `envconfig:"NAMESPACE" default:"datalab" validate:"required"`
}

// LoadConfig loads configuration from an optional .env file and DATALAB_*
// environment variables
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the default configuration without reading the environment
func Default() *Config {
	return &Config{
		BackendThreshold: 100000,
		Placeholders:     []string{"UNKNOWN", "N/A", "NA", "null", "none", "-"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "datalab",
		},
		Snowflake: SnowflakeConfig{
			AuthenticatorName: "snowflake",
			MaxOpenConns:      10,
			MaxIdleConns:      5,
		},
		Postgres: PostgresConfig{
			Host:         "localhost",
			Port:         5432,
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 10,
		},
	}
}

// loadDotEnv loads the named files, or ./.env when none are given.
// A missing default file is not an error; a missing named file is.
func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
			return nil
		}
		files = []string{".env"}
	}

	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Validate ensures the configuration is complete and consistent
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	for _, p := range c.Placeholders {
		if strings.TrimSpace(p) == "" {
			return errors.New("placeholders cannot be blank")
		}
	}

	if c.Snowflake.Enabled() {
		if err := c.Snowflake.Validate(); err != nil {
			return fmt.Errorf("snowflake configuration: %w", err)
		}
	}

	if c.Postgres.Enabled() {
		if err := c.Postgres.Validate(); err != nil {
			return fmt.Errorf("postgres configuration: %w", err)
		}
	}

	return nil
}
