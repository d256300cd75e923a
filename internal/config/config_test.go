package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:        "8080",
		Env:         "development",
		JWTSecret:   "secure-secret-at-least-32-chars-long",
		DBDriver:    DriverPostgres,
		DBPassword:  "secure-password",
		DBSSLMode:   "require",
		ObjectStore: "memory",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Valid development", func(c *Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing JWT secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"Unknown driver", func(c *Config) { c.DBDriver = "mongo" }, true},
		{"SQLite driver", func(c *Config) { c.DBDriver = DriverSQLite }, false},
		{"Memory driver in development", func(c *Config) { c.DBDriver = DriverMemory }, false},
		{"Unknown object store", func(c *Config) { c.ObjectStore = "s3" }, true},
		{"Minio without credentials", func(c *Config) { c.ObjectStore = "minio" }, true},
		{"Minio with credentials", func(c *Config) {
			c.ObjectStore = "minio"
			c.MinioEndpoint = "localhost:9000"
			c.MinioAccessKey = "access"
			c.MinioSecretKey = "secret"
		}, false},
		{"Production default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"Production short secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "short"
		}, true},
		{"Production default DB password", func(c *Config) {
			c.Env = "prod"
			c.DBPassword = "password"
		}, true},
		{"Production memory driver", func(c *Config) {
			c.Env = "production"
			c.DBDriver = DriverMemory
		}, true},
		{"Production ok", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Normalization(t *testing.T) {
	t.Cleanup(viper.Reset)

	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("DB_DRIVER", " SQLite ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, DriverSQLite, c.DBDriver)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	t.Setenv("APP_ENV", "test")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, 24*7, c.SessionTTLHours)
	assert.Equal(t, "auto", c.DBSchemaMode)
	assert.Equal(t, 5, c.UploadMaxMB)
	assert.False(t, c.IsProduction())
}
