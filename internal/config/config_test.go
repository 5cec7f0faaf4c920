package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseMap(t *testing.T, vars map[string]string) (*Config, error) {
	t.Helper()
	return parse(env.Options{Environment: vars})
}

func TestParseDefaults(t *testing.T) {
	cfg, err := parseMap(t, map[string]string{"JWT_SECRET": "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenExpires)
	assert.Equal(t, 15*time.Minute, cfg.MagicLinkTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.MagicSessionTTL)
	assert.Equal(t, time.Hour, cfg.ResetTokenTTL)
	assert.Equal(t, "bcrypt", cfg.HashAlgorithm)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.False(t, cfg.SMTPEnabled())
}

func TestParseOverrides(t *testing.T) {
	cfg, err := parseMap(t, map[string]string{
		"JWT_SECRET":     "s3cret",
		"STORE_DRIVER":   " Redis ",
		"REDIS_DB":       "3",
		"JWT_EXPIRES_IN": "90m",
		"HASH_ALGORITHM": "ARGON2ID",
		"SMTP_HOST":      "smtp.test",
		"SMTP_USER":      "mailer",
	})
	require.NoError(t, err)

	assert.Equal(t, DriverRedis, cfg.StoreDriver)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 90*time.Minute, cfg.TokenExpires)
	assert.Equal(t, "argon2id", cfg.HashAlgorithm)
	assert.True(t, cfg.SMTPEnabled())
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{name: "missing secret", vars: map[string]string{}, want: "JWT_SECRET must be set"},
		{name: "unknown driver", vars: map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "mongo"}, want: `unknown STORE_DRIVER "mongo"`},
		{name: "unknown hash", vars: map[string]string{"JWT_SECRET": "s", "HASH_ALGORITHM": "md5"}, want: `unknown HASH_ALGORITHM "md5"`},
		{name: "zero ttl", vars: map[string]string{"JWT_SECRET": "s", "RESET_TOKEN_TTL": "0s"}, want: "RESET_TOKEN_TTL must be positive"},
		{name: "relative base url", vars: map[string]string{"JWT_SECRET": "s", "MAGIC_LINK_BASE_URL": "/verify"}, want: "MAGIC_LINK_BASE_URL"},
		{name: "bad duration", vars: map[string]string{"JWT_SECRET": "s", "MAGIC_LINK_TTL": "soon"}, want: "parse env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseMap(t, tt.vars)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{StoreDriver: "nope", HashAlgorithm: "bcrypt"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_PORT must be set")
	assert.Contains(t, err.Error(), "JWT_SECRET must be set")
	assert.Contains(t, err.Error(), "unknown STORE_DRIVER")
}

func TestLoadReadsProcessEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
}
