package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Cheertaboi/bundle-deal-service/pkg/db"
)

const (
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
)

type Config struct {
	ServerPort int

	StoreDriver   string
	Postgres      db.PostgresConfig
	BoltPath      string
	MigrationsDir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DealCacheTTL  time.Duration

	BulkWorkers    int
	TrustCartTiers bool

	NotifyWebhookURL string
	AdminJWTSecret   string
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}

	var err error
	cfg := &Config{}

	if cfg.ServerPort, err = getIntOrDefault("PORT", 8080); err != nil {
		return nil, err
	}

	cfg.StoreDriver = strings.ToLower(getEnvOrDefault("STORE_DRIVER", DriverPostgres))
	if cfg.StoreDriver != DriverPostgres && cfg.StoreDriver != DriverBolt {
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverBolt, cfg.StoreDriver)
	}

	dbPort, err := getIntOrDefault("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	cfg.Postgres = db.PostgresConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   getEnvOrDefault("DB_NAME", "deals"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}
	cfg.BoltPath = getEnvOrDefault("BOLT_PATH", "deals.db")
	cfg.MigrationsDir = getEnvOrDefault("MIGRATIONS_DIR", "migrations")

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if cfg.RedisDB, err = getIntOrDefault("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.DealCacheTTL, err = getDurationOrDefault("DEAL_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	if cfg.BulkWorkers, err = getIntOrDefault("BULK_WORKERS", 1); err != nil {
		return nil, err
	}
	if cfg.TrustCartTiers, err = getBoolOrDefault("TRUST_CART_TIERS", false); err != nil {
		return nil, err
	}

	cfg.NotifyWebhookURL = os.Getenv("NOTIFY_WEBHOOK_URL")
	cfg.AdminJWTSecret = os.Getenv("ADMIN_JWT_SECRET")

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBoolOrDefault(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
