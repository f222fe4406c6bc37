// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything cmd/server needs to wire the process.
type Config struct {
	Addr string

	// PostgresURL selects the persistent store. Empty means in-memory stores,
	// which is the local development mode.
	PostgresURL string

	// RedisURL selects the shared rate-limit bucket store. Empty means the
	// in-memory sliding window (single process only).
	RedisURL string

	// KafkaBrokers enables the audit event publisher when non-empty.
	KafkaBrokers []string
	AuditTopic   string

	JWTSigningKey string
	AdminToken    string

	// BlobDir is the root of the filesystem blob store for uploaded photos.
	BlobDir string

	SMTP SMTPConfig

	// Intake rate limit policy: MaxRequests per Window per client IP.
	IntakeMaxRequests int
	IntakeWindow      time.Duration
}

// SMTPConfig configures the best-effort registration notification email.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	To       string
}

// FromEnv reads configuration from the environment, applying development
// defaults where it is safe to do so.
func FromEnv() Config {
	cfg := Config{
		Addr:              envOr("SERVIAPP_ADDR", ":8080"),
		PostgresURL:       os.Getenv("SERVIAPP_POSTGRES_URL"),
		RedisURL:          os.Getenv("SERVIAPP_REDIS_URL"),
		AuditTopic:        envOr("SERVIAPP_AUDIT_TOPIC", "serviapp.moderation.audit"),
		JWTSigningKey:     envOr("SERVIAPP_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AdminToken:        os.Getenv("SERVIAPP_ADMIN_TOKEN"),
		BlobDir:           envOr("SERVIAPP_BLOB_DIR", "uploads"),
		IntakeMaxRequests: envIntOr("SERVIAPP_INTAKE_MAX_REQUESTS", 5),
		IntakeWindow:      envDurationOr("SERVIAPP_INTAKE_WINDOW", 15*time.Minute),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SERVIAPP_SMTP_HOST"),
			Port:     envOr("SERVIAPP_SMTP_PORT", "465"),
			Username: os.Getenv("SERVIAPP_SMTP_USER"),
			Password: os.Getenv("SERVIAPP_SMTP_PASSWORD"),
			To:       os.Getenv("SERVIAPP_NOTIFY_TO"),
		},
	}
	if brokers := os.Getenv("SERVIAPP_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
