package config

import (
	"log"
	"os"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	DatabaseURL    string
	RedisURL       string
	EncryptionKey  string // base64-encoded 32-byte AES key
	DigestSchedule string // cron spec for the daily digest fan-out
	DigestTimezone string // timezone the cron spec is evaluated in
	BaseURL        string // public dashboard URL used for digest deep links
	Env            string
	Port           string
	LogLevel       string
	LogFormat      string
	SeedDevData    bool
}

// Load reads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       getEnvWithDefault("REDIS_URL", "redis://localhost:6379/0"),
		EncryptionKey:  os.Getenv("ENCRYPTION_KEY"),
		DigestSchedule: getEnvWithDefault("DIGEST_SCHEDULE", "0 20 * * *"),
		DigestTimezone: getEnvWithDefault("DIGEST_TIMEZONE", "UTC"),
		BaseURL:        os.Getenv("BASE_URL"),
		Env:            getEnvWithDefault("ENV", "development"),
		Port:           getEnvWithDefault("PORT", "8080"),
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat:      getEnvWithDefault("LOG_FORMAT", "text"),
		SeedDevData:    os.Getenv("SEED_DEV_DATA") == "true",
	}

	// Warn if no encryption key is configured (channel registration and
	// digest delivery both need it)
	if cfg.EncryptionKey == "" {
		log.Println("WARNING: ENCRYPTION_KEY is not set. Generate one with: openssl rand -base64 32")
	}

	return cfg
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
