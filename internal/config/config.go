package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port          string
	Env           string
	JWTSecret     string
	JWTTTL        time.Duration
	CORSHosts     []string
	MigrationsURL string

	DB        DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Inventory InventoryConfig
	Worker    WorkerConfig
	POS       POSConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds a postgres:// connection string. Sessions run in UTC so DATE
// columns round-trip as midnight UTC.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=UTC",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, c.Name, c.SSLMode)
}

// RedisConfig contains Redis connection parameters.
// Redis is optional: an empty Host disables the job lock and idempotency cache.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// KafkaConfig configures the stock event publisher. No brokers means disabled.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	Username string
	Password string
}

// InventoryConfig holds the thresholds the classification and alert code run with.
type InventoryConfig struct {
	ExpiryHorizonDays   int
	AlertRetention      time.Duration
	RecentActivityLimit int
	Location            *time.Location
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	AlertScanInterval    time.Duration
	AlertCleanupInterval time.Duration
	Enabled              bool
}

// POSConfig contains settings for the point-of-sale integration surface.
type POSConfig struct {
	SignatureSecret string
	IdempotencyTTL  time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first.
func Load() (*Config, error) {
	// Production relies on real environment variables, so a missing .env is fine.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.CORSHosts = getEnvList("CORS_ALLOWED_HOSTS", "localhost:3000,127.0.0.1:3000")
	cfg.MigrationsURL = getEnv("MIGRATIONS_URL", "file://migrations")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", ""),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Kafka
	cfg.Kafka = KafkaConfig{
		Brokers:  getEnvList("KAFKA_BROKERS", ""),
		Topic:    getEnv("KAFKA_STOCK_TOPIC", "inventory.stock-events"),
		Username: getEnv("KAFKA_USERNAME", ""),
		Password: getEnv("KAFKA_PASSWORD", ""),
	}

	// Inventory
	loc, err := time.LoadLocation(getEnv("INVENTORY_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid INVENTORY_TIMEZONE: %w", err)
	}
	cfg.Inventory = InventoryConfig{
		ExpiryHorizonDays:   getEnvInt("EXPIRY_HORIZON_DAYS", 30),
		RecentActivityLimit: getEnvInt("RECENT_ACTIVITY_LIMIT", 10),
		Location:            loc,
	}
	if cfg.Inventory.ExpiryHorizonDays < 0 {
		return nil, errors.New("EXPIRY_HORIZON_DAYS must be >= 0")
	}
	if cfg.Inventory.AlertRetention, err = parseDurationEnv("ALERT_RETENTION", "720h"); err != nil {
		return nil, fmt.Errorf("invalid ALERT_RETENTION: %w", err)
	}

	// POS
	cfg.POS.SignatureSecret = getEnv("POS_SIGNATURE_SECRET", "")
	if cfg.POS.IdempotencyTTL, err = parseDurationEnv("POS_IDEMPOTENCY_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid POS_IDEMPOTENCY_TTL: %w", err)
	}

	// Auth
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}

	// Workers (durations)
	cfg.Worker.Enabled = getEnv("WORKERS_ENABLED", "true") == "true"
	if cfg.Worker.AlertScanInterval, err = parseDurationEnv("ALERT_SCAN_INTERVAL", "1h"); err != nil {
		return nil, fmt.Errorf("invalid ALERT_SCAN_INTERVAL: %w", err)
	}
	if cfg.Worker.AlertCleanupInterval, err = parseDurationEnv("ALERT_CLEANUP_INTERVAL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid ALERT_CLEANUP_INTERVAL: %w", err)
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key, def string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, def), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
