package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/snowflakedb/gosnowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 100000, cfg.BackendThreshold)
	assert.Equal(t, 0, cfg.Workers)
	assert.False(t, cfg.InPlace)
	assert.Contains(t, cfg.Placeholders, "UNKNOWN")
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Snowflake.Enabled())
	assert.False(t, cfg.Postgres.Enabled())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATALAB_BACKEND_THRESHOLD", "500")
	t.Setenv("DATALAB_IN_PLACE", "true")
	t.Setenv("DATALAB_PLACEHOLDERS", "UNKNOWN,MISSING")
	t.Setenv("DATALAB_LOGGING_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.BackendThreshold)
	assert.True(t, cfg.InPlace)
	assert.Equal(t, []string{"UNKNOWN", "MISSING"}, cfg.Placeholders)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("DATALAB_WORKERS=3\nDATALAB_LOGGING_FORMAT=console\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("DATALAB_WORKERS")
		os.Unsetenv("DATALAB_LOGGING_FORMAT")
	})

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "console", cfg.Logging.Format)

	_, err = LoadConfig(filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero threshold", func(c *Config) { c.BackendThreshold = 0 }, true},
		{"negative workers", func(c *Config) { c.Workers = -1 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"blank placeholder", func(c *Config) { c.Placeholders = []string{" "} }, true},
		{"postgres without user", func(c *Config) { c.Postgres.Database = "db" }, true},
		{"postgres complete", func(c *Config) {
			c.Postgres.Database = "db"
			c.Postgres.User = "u"
		}, false},
		{"snowflake without warehouse", func(c *Config) {
			c.Snowflake.Account = "acct"
			c.Snowflake.User = "u"
			c.Snowflake.Password = "p"
		}, true},
		{"snowflake oauth without password", func(c *Config) {
			c.Snowflake.Account = "acct"
			c.Snowflake.User = "u"
			c.Snowflake.Warehouse = "wh"
			c.Snowflake.AuthenticatorName = "oauth"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAuthenticator(t *testing.T) {
	c := SnowflakeConfig{AuthenticatorName: "jwt"}
	assert.Equal(t, gosnowflake.AuthTypeJwt, c.Authenticator())

	c.AuthenticatorName = "anything"
	assert.Equal(t, gosnowflake.AuthTypeSnowflake, c.Authenticator())
}

func TestPostgresConnectionString(t *testing.T) {
	c := PostgresConfig{Host: "h", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "require"}
	assert.Equal(t, "host=h port=5433 user=u password=p dbname=d sslmode=require", c.ConnectionString())
}
