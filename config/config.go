// Package config collects the environment-driven settings into immutable
// values constructed once at startup.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/certlayer/certlayer/service"
)

// Config holds the API server settings.
type Config struct {
	Port        string
	ServiceName string

	// InternalAPIKey is the pre-shared internal service credential.
	// Leaving it empty leaves the internal access tier OPEN; that default
	// exists for local development and must not survive into production.
	InternalAPIKey string

	// AdminWallets is the static admin allow-list, comma-separated in the
	// environment. Changes require a restart and only affect sessions
	// minted afterwards.
	AdminWallets []string

	ChallengeTTL time.Duration
	SessionTTL   time.Duration

	// RedisURL enables the Redis-backed stores and the redisstream event
	// publisher. Empty means in-memory, single-instance operation.
	RedisURL string
}

// Load reads the server configuration from the environment.
func Load() Config {
	return Config{
		Port:           getenv("PORT", "8080"),
		ServiceName:    getenv("SERVICE_NAME", "certlayer-api"),
		InternalAPIKey: os.Getenv("INTERNAL_API_KEY"),
		AdminWallets:   splitList(os.Getenv("ADMIN_WALLETS")),
		ChallengeTTL:   getduration("CHALLENGE_TTL", service.DefaultChallengeTTL),
		SessionTTL:     getduration("SESSION_TTL", service.DefaultSessionTTL),
		RedisURL:       os.Getenv("REDIS_URL"),
	}
}

// WorkerConfig holds the polling worker settings.
type WorkerConfig struct {
	Name           string
	APIBaseURL     string
	Interval       time.Duration
	InternalAPIKey string
}

// LoadWorker reads the worker configuration from the environment.
func LoadWorker() WorkerConfig {
	return WorkerConfig{
		Name:           getenv("WORKER_NAME", "certlayer-worker"),
		APIBaseURL:     strings.TrimRight(getenv("API_BASE_URL", "http://localhost:8080"), "/"),
		Interval:       getduration("WORKER_INTERVAL", time.Minute),
		InternalAPIKey: os.Getenv("INTERNAL_API_KEY"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
