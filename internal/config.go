package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Persistence
	StoreDriver string // "postgres" or "memory"
	DatabaseUrl string

	// SMTP Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	// Maintenance escalation channels. Empty values disable the channel;
	// the log channel is always on.
	AlertEmailTo    []string
	SlackWebhookURL string

	// Statistics
	StatsTrendDays int

	// Write throttling per client IP. Zero disables it.
	RateLimitWrites int
	RateLimitWindow time.Duration

	ShutdownTimeout time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseUrl: os.Getenv("DATABASE_URL"),

		// SMTP defaults for Mailhog (development)
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "fleet-alerts@localhost"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Fleet Inspections"),

		AlertEmailTo:    getEnvList("ALERT_EMAIL_TO"),
		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),

		StatsTrendDays: getEnvInt("STATS_TREND_DAYS", 30),

		RateLimitWrites: getEnvInt("RATE_LIMIT_WRITES", 120),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseUrl == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is '%s'", StoreDriverPostgres)
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be either '%s' or '%s', got: %s",
			StoreDriverPostgres, StoreDriverMemory, cfg.StoreDriver)
	}

	if cfg.StatsTrendDays < 1 {
		return nil, fmt.Errorf("STATS_TREND_DAYS must be positive, got: %d", cfg.StatsTrendDays)
	}

	if cfg.SlackWebhookURL != "" && !strings.HasPrefix(cfg.SlackWebhookURL, "https://") {
		return nil, fmt.Errorf("SLACK_WEBHOOK_URL must be an https URL")
	}

	return cfg, nil
}

// IsDevelopment reports whether the process runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// EmailAlertsEnabled reports whether maintenance escalations go out by email.
func (c *Config) EmailAlertsEnabled() bool {
	return len(c.AlertEmailTo) > 0 && c.SMTPHost != ""
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

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
