// Package config reads the server configuration from the environment,
// with a .env file as a development convenience. Every value has a working
// default; a bare binary serves on :8080 with a local data dir.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the server reads from the environment.
type Config struct {
	Port            string
	DataDir         string
	JWTSecret       string
	TokenTTL        time.Duration
	KafkaBrokers    []string
	KafkaTopic      string
	LogLevel        string
	LogJSON         bool
	RateLimit       float64
	RateBurst       int
	ShutdownTimeout time.Duration
}

// Load reads .env if present, then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:            envString("PORT", "8080"),
		DataDir:         envString("DATA_DIR", "data"),
		JWTSecret:       envString("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:        envDuration("TOKEN_TTL", 24*time.Hour),
		KafkaBrokers:    envList("KAFKA_BROKERS"),
		KafkaTopic:      envString("KAFKA_TOPIC", "library-events"),
		LogLevel:        envString("LOG_LEVEL", "info"),
		LogJSON:         envBool("LOG_JSON", false),
		RateLimit:       envFloat("RATE_LIMIT", 50),
		RateBurst:       envInt("RATE_BURST", 100),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// MirrorEnabled reports whether the Kafka mirror should run. No brokers
// configured means the mirror stays off; the engine is fully functional
// without it.
func (c Config) MirrorEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
