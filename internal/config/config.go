package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the worker reads from the environment.
type Config struct {
	Env  string
	Port string

	DatabaseURL string
	NatsURL     string

	Typesense TypesenseConfig
	Redis     RedisConfig
	SMTP      SMTPConfig
	Razorpay  RazorpayConfig
	Sync      SyncConfig

	CORSAllowedOrigins []string
	OTLPEndpoint       string
}

type TypesenseConfig struct {
	URL         string
	APIKey      string
	Collection  string
	ConnTimeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SMTPConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	From              string
	PublishRecipients []string
}

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
}

// SyncConfig tunes the bulk synchronizer and the startup orchestrator.
type SyncConfig struct {
	BatchSize       int
	BatchPause      time.Duration
	StartupDelay    time.Duration
	ResyncThreshold float64
	CronSpec        string
}

// Load builds a Config from environment variables, applying defaults
// for everything that is safe to default.
func Load() Config {
	return Config{
		Env:         getEnv("WORKER_ENV", "production"),
		Port:        getEnv("WORKER_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		NatsURL:     os.Getenv("NATS_URL"),
		Typesense: TypesenseConfig{
			URL:         os.Getenv("TYPESENSE_URL"),
			APIKey:      os.Getenv("TYPESENSE_API_KEY"),
			Collection:  getEnv("TYPESENSE_COLLECTION", "content"),
			ConnTimeout: getDuration("TYPESENSE_CONN_TIMEOUT", "5s"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		SMTP: SMTPConfig{
			Host:              os.Getenv("SMTP_HOST"),
			Port:              getInt("SMTP_PORT", 587),
			Username:          os.Getenv("SMTP_USERNAME"),
			Password:          os.Getenv("SMTP_PASSWORD"),
			From:              getEnv("SMTP_FROM", "no-reply@example.com"),
			PublishRecipients: splitAndTrim(os.Getenv("PUBLISH_NOTIFY_RECIPIENTS")),
		},
		Razorpay: RazorpayConfig{
			KeyID:     os.Getenv("RAZORPAY_KEY_ID"),
			KeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		},
		Sync: SyncConfig{
			BatchSize:       getInt("SYNC_BATCH_SIZE", 50),
			BatchPause:      getDuration("SYNC_BATCH_PAUSE", "200ms"),
			StartupDelay:    getDuration("SYNC_STARTUP_DELAY", "15s"),
			ResyncThreshold: getFloat("SYNC_RESYNC_THRESHOLD", 0.9),
			CronSpec:        getEnv("SYNC_CRON_SPEC", "30 3 * * *"),
		},
		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		OTLPEndpoint:       os.Getenv("OTEL_COLLECTOR_URL"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key, fallback string) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		raw = fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
