package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration for the registry service.
type Server struct {
	Addr          string
	AdminToken    string
	JWTSigningKey string

	// Registry policy flags.
	SingleMembership bool
	SupportsBan      bool
	DocumentTier     bool

	// Snapshot worker.
	SnapshotInterval  time.Duration
	SnapshotBatchSize int
	SnapshotRetention int

	// Optional sinks; empty means the sink is disabled.
	RedisURL     string
	PostgresURL  string
	KafkaBrokers string
	KafkaTopic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:              envOr("PARTYREG_ADDR", ":8080"),
		AdminToken:        envOr("PARTYREG_ADMIN_TOKEN", "dev-admin-token-change-in-production"),
		JWTSigningKey:     envOr("PARTYREG_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SingleMembership:  envBool("PARTYREG_SINGLE_MEMBERSHIP", true),
		SupportsBan:       envBool("PARTYREG_SUPPORTS_BAN", true),
		DocumentTier:      envBool("PARTYREG_DOCUMENT_TIER", true),
		SnapshotInterval:  envDuration("PARTYREG_SNAPSHOT_INTERVAL", time.Hour),
		SnapshotBatchSize: envInt("PARTYREG_SNAPSHOT_BATCH_SIZE", 50),
		SnapshotRetention: envInt("PARTYREG_SNAPSHOT_RETENTION", 0),
		RedisURL:          os.Getenv("PARTYREG_REDIS_URL"),
		PostgresURL:       os.Getenv("PARTYREG_POSTGRES_URL"),
		KafkaBrokers:      os.Getenv("PARTYREG_KAFKA_BROKERS"),
		KafkaTopic:        envOr("PARTYREG_KAFKA_TOPIC", "partyreg.events"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
