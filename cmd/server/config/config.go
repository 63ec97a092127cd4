// Package config provides configuration parsing and management for the
// prediction server.
//
// It handles both command-line flags and environment variables, with flags
// taking precedence over environment variables. The Config struct contains
// all runtime configuration for the server including:
//   - HTTP listen address and TLS settings
//   - Model artifact directory and preload behavior
//   - Snapshot storage backend (memory or redis)
//   - Rate limiting
//   - Logging configuration (level, format)
//
// Supported configuration sources (in order of precedence):
//  1. Command-line flags
//  2. Environment variables
//  3. Default values
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/slicken/candlecast/pkg/tls"
)

// Config holds all prediction server configuration.
type Config struct {
	Listen    string
	LogFormat string
	LogLevel  string

	ModelsDir string
	Preload   bool

	Storage       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	ShutdownTimeout time.Duration

	TLS tls.Config
}

// ParseFlags parses command-line flags and environment variables into a
// Config. Environment variables are used as fallbacks when flags are not
// provided.
func ParseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":8080"), "HTTP listen address")

	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.StringVar(&cfg.ModelsDir, "models-dir", getEnv("MODELS_DIR", "models"), "Directory holding trained model artifacts")
	flag.BoolVar(&cfg.Preload, "preload", getEnvBool("PRELOAD", true), "Load all model artifacts at startup")

	flag.StringVar(&cfg.Storage, "storage", getEnv("STORAGE", "memory"), "Snapshot storage backend: memory or redis")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("REDIS_ADDR", "localhost:6379"), "Redis server address")
	flag.StringVar(&cfg.RedisPassword, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database number")
	flag.DurationVar(&cfg.RedisTTL, "redis-ttl", getEnvDuration("REDIS_TTL", 30*time.Minute), "Redis snapshot TTL")

	flag.Float64Var(&cfg.RateLimitRPS, "rate-limit-rps", getEnvFloat("RATE_LIMIT_RPS", 0), "Requests per second limit (0 disables)")
	flag.IntVar(&cfg.RateLimitBurst, "rate-limit-burst", getEnvInt("RATE_LIMIT_BURST", 10), "Rate limit burst size")

	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second), "Graceful shutdown timeout")

	flag.BoolVar(&cfg.TLS.Enabled, "tls-enabled", getEnvBool("TLS_ENABLED", false), "Enable TLS for HTTP server")
	flag.StringVar(&cfg.TLS.CertFile, "tls-cert-file", getEnv("TLS_CERT_FILE", ""), "TLS certificate file")
	flag.StringVar(&cfg.TLS.KeyFile, "tls-key-file", getEnv("TLS_KEY_FILE", ""), "TLS private key file")

	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	return cfg
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	if c.ModelsDir == "" {
		return fmt.Errorf("models directory cannot be empty")
	}

	if c.Storage != "memory" && c.Storage != "redis" {
		return fmt.Errorf("invalid storage backend %q (must be memory or redis)", c.Storage)
	}

	if c.Storage == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("redis address is required when storage=redis")
	}

	if c.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit rps cannot be negative")
	}

	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}

	if err := c.TLS.Validate(); err != nil {
		return err
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
