// Package config builds service configuration from the environment so main
// stays lean. Every knob has a development default; production overrides via
// environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Addr string

	// PostgresDSN selects the Postgres stores; empty falls back to the
	// in-memory stores (development and tests).
	PostgresDSN string

	Redis RedisConfig
	Kafka KafkaConfig
	Auth  AuthConfig

	// AdminVerifierDID is the synthetic DID recorded as the verifier identity
	// for admin-portal verifications.
	AdminVerifierDID string

	// ShareTokenCacheTTL bounds how long a share-token → credential mapping
	// may be served from Redis.
	ShareTokenCacheTTL time.Duration

	ShutdownTimeout time.Duration
}

// RedisConfig configures the optional share-token cache.
type RedisConfig struct {
	// URL in redis:// form; empty disables the cache.
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional activity event mirror.
type KafkaConfig struct {
	// Brokers is a comma-separated seed list; empty disables the mirror.
	Brokers []string
	Topic   string
}

// AuthConfig configures session token issuance.
type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
	TokenTTL      time.Duration
}

// FromEnv reads the configuration from environment variables.
func FromEnv() Config {
	return Config{
		Addr:        getEnv("ATTEST_ADDR", ":8080"),
		PostgresDSN: os.Getenv("ATTEST_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("ATTEST_REDIS_URL"),
			PoolSize:     getInt("ATTEST_REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("ATTEST_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("ATTEST_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("ATTEST_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("ATTEST_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("ATTEST_KAFKA_BROKERS")),
			Topic:   getEnv("ATTEST_KAFKA_TOPIC", "attest.activity"),
		},
		Auth: AuthConfig{
			// Development default; override in any real deployment.
			JWTSigningKey: getEnv("ATTEST_JWT_SIGNING_KEY", "dev-secret-change-in-production"),
			Issuer:        getEnv("ATTEST_JWT_ISSUER", "attest"),
			Audience:      getEnv("ATTEST_JWT_AUDIENCE", "attest-api"),
			TokenTTL:      getDuration("ATTEST_TOKEN_TTL", time.Hour),
		},
		AdminVerifierDID:   getEnv("ATTEST_ADMIN_VERIFIER_DID", "did:key:zadminverifierorganization0000000"),
		ShareTokenCacheTTL: getDuration("ATTEST_SHARE_CACHE_TTL", 15*time.Minute),
		ShutdownTimeout:    getDuration("ATTEST_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
