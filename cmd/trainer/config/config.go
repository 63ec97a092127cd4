// Package config provides configuration parsing for the trainer.
//
// It handles both command-line flags and environment variables, with flags
// taking precedence. The trainer runs as a batch job: it reads OHLCV JSON
// files, trains one model per symbol, and writes artifact triples into the
// models directory the server reads from.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// Config holds all trainer configuration.
type Config struct {
	DataDir   string
	DataFile  string
	ModelsDir string

	WindowSize   int
	ForecastSize int
	Features     []string
	Target       string
	Lambda       float64

	LogFormat string
	LogLevel  string
}

// ParseFlags parses command-line flags and environment variables into a
// Config. Environment variables are used as fallbacks when flags are not
// provided.
func ParseFlags() *Config {
	cfg := &Config{}
	var features string

	flag.StringVar(&cfg.DataDir, "data-dir", getEnv("DATA_DIR", ""), "Directory of OHLCV JSON files, one per symbol")
	flag.StringVar(&cfg.DataFile, "data-file", getEnv("DATA_FILE", ""), "Single OHLCV JSON file to train on")
	flag.StringVar(&cfg.ModelsDir, "models-dir", getEnv("MODELS_DIR", "models"), "Directory to write model artifacts to")

	flag.IntVar(&cfg.WindowSize, "window", getEnvInt("WINDOW", 20), "Observation window size")
	flag.IntVar(&cfg.ForecastSize, "forecast", getEnvInt("FORECAST", 1), "Forecast horizon in bars")
	flag.StringVar(&features, "features", getEnv("FEATURES", "open,close,high,low,volume"), "Comma-separated feature columns")
	flag.StringVar(&cfg.Target, "target", getEnv("TARGET", "close"), "Target column to predict")
	flag.Float64Var(&cfg.Lambda, "lambda", getEnvFloat("LAMBDA", 1e-4), "Ridge regularization strength")

	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.Parse()

	cfg.Features = splitFeatures(features)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	return cfg
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	if c.DataDir == "" && c.DataFile == "" {
		return fmt.Errorf("either data directory or data file is required")
	}
	if c.DataDir != "" && c.DataFile != "" {
		return fmt.Errorf("data directory and data file are mutually exclusive")
	}
	if c.ModelsDir == "" {
		return fmt.Errorf("models directory cannot be empty")
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("window size must be > 0")
	}
	if c.ForecastSize <= 0 {
		return fmt.Errorf("forecast size must be > 0")
	}
	if len(c.Features) == 0 {
		return fmt.Errorf("at least one feature is required")
	}
	if c.TargetIndex() < 0 {
		return fmt.Errorf("target %q is not among features %v", c.Target, c.Features)
	}
	if c.Lambda < 0 {
		return fmt.Errorf("lambda cannot be negative")
	}
	return nil
}

// TargetIndex returns the target's column index within Features, or -1.
func (c *Config) TargetIndex() int {
	for i, f := range c.Features {
		if f == c.Target {
			return i
		}
	}
	return -1
}

func splitFeatures(s string) []string {
	var features []string
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			features = append(features, f)
		}
	}
	return features
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
