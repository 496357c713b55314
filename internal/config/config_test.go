package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProductionConfig() *Config {
	return &Config{
		Env:        "production",
		Port:       "8080",
		DBDriver:   "postgres",
		DBSSLMode:  "require",
		DBPassword: "a-strong-database-password",
		JWTSecret:  "secure-secret-at-least-32-chars-long",
	}
}

func TestConfig_ValidateProduction(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid", func(c *Config) {}, false},
		{"default jwt secret", func(c *Config) { c.JWTSecret = defaultJWTSecret }, true},
		{"short jwt secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"empty ssl mode", func(c *Config) { c.DBSSLMode = "" }, true},
		{"disabled ssl mode", func(c *Config) { c.DBSSLMode = "disable" }, true},
		{"weak db password", func(c *Config) { c.DBPassword = "password" }, true},
		{"sqlite driver", func(c *Config) { c.DBDriver = "sqlite" }, true},
		{"prod alias", func(c *Config) { c.Env = "prod" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validProductionConfig()
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

func TestConfig_ValidateDevelopment(t *testing.T) {
	c := &Config{Env: "development", Port: "8080", JWTSecret: "dev", DBDriver: "sqlite"}
	assert.NoError(t, c.Validate())

	c.DBDriver = "mysql"
	assert.Error(t, c.Validate())

	c.DBDriver = "postgres"
	c.Port = ""
	assert.Error(t, c.Validate())
}

func TestConfig_Origins(t *testing.T) {
	c := &Config{AllowedOrigins: " http://a.test ,,http://b.test "}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.Origins())
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer os.Unsetenv("DB_DRIVER")
	defer viper.Reset()

	os.Setenv("APP_ENV", "test")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")
	os.Setenv("DB_DRIVER", " SQLite ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "ProjectariumBot", c.BotUsername)
	assert.Equal(t, 72, c.JWTExpiryHours)
}
