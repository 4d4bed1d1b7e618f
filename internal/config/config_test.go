package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "REDIS_URL", "ENCRYPTION_KEY", "DIGEST_SCHEDULE",
		"DIGEST_TIMEZONE", "BASE_URL", "ENV", "PORT", "LOG_LEVEL",
		"LOG_FORMAT", "SEED_DEV_DATA",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "0 20 * * *", cfg.DigestSchedule)
	assert.Equal(t, "UTC", cfg.DigestTimezone)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.SeedDevData)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://app:pw@db:5432/agrinote")
	t.Setenv("DIGEST_SCHEDULE", "30 19 * * *")
	t.Setenv("DIGEST_TIMEZONE", "Asia/Tokyo")
	t.Setenv("BASE_URL", "https://app.example.com")
	t.Setenv("SEED_DEV_DATA", "true")

	cfg := Load()

	assert.Equal(t, "postgres://app:pw@db:5432/agrinote", cfg.DatabaseURL)
	assert.Equal(t, "30 19 * * *", cfg.DigestSchedule)
	assert.Equal(t, "Asia/Tokyo", cfg.DigestTimezone)
	assert.Equal(t, "https://app.example.com", cfg.BaseURL)
	assert.True(t, cfg.SeedDevData)
}
