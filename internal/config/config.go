package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Storage. DatabaseURL selects the record store backend by scheme
	// (postgres:// or sqlite://). ClickHouse and Redis are optional.
	DatabaseURL   string
	MaxDBConns    int
	ClickHouseURL string
	RedisURL      string

	// Shared secret for ingestion and admin routes. Empty disables the check.
	APIKey string

	// Round archive worker pool
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration

	// Ingest rate limiting (requires Redis)
	RateLimitPerSecond int
	RateLimitBurst     int
}

// Load loads configuration from environment variables.
// It returns an error if a value is present but unusable.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 3000),
		Env:  getEnv("ENV", "development"),

		DatabaseURL:   getEnv("DATABASE_URL", "sqlite://bullseye.db"),
		MaxDBConns:    getEnvInt("MAX_DB_CONNS", 5),
		ClickHouseURL: os.Getenv("CLICKHOUSE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),

		APIKey: os.Getenv("API_KEY"),

		WorkerCount:   getEnvInt("WORKER_COUNT", 2),
		QueueSize:     getEnvInt("QUEUE_SIZE", 1000),
		BatchSize:     getEnvInt("BATCH_SIZE", 200),
		FlushInterval: getEnvDuration("FLUSH_INTERVAL", 2*time.Second),

		RateLimitPerSecond: getEnvInt("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 20),
	}

	origins := getEnv("ALLOWED_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %d", cfg.Port)
	}
	if !strings.HasPrefix(cfg.DatabaseURL, "sqlite://") &&
		!strings.HasPrefix(cfg.DatabaseURL, "postgres://") &&
		!strings.HasPrefix(cfg.DatabaseURL, "postgresql://") {
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme: %s", cfg.DatabaseURL)
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
