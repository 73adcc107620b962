// Package config loads analysis policy configuration from environment
// variables. Loaded configuration is passed explicitly into engines; there
// is no process-wide policy state.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rusty-libraries/rusty-schema-diff/pkg/observability"
	"github.com/rusty-libraries/rusty-schema-diff/pkg/score"
)

// Config holds all analysis configuration
type Config struct {
	// Score holds the scoring policy (penalties and threshold)
	Score score.Config

	// MaxDepth caps diff traversal depth
	MaxDepth int

	// LogLevel controls diagnostic logging
	LogLevel observability.LogLevel
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Score: score.Config{
			BreakingPenalty: getEnvInt("SCHEMA_DIFF_BREAKING_PENALTY", 15),
			WarningPenalty:  getEnvInt("SCHEMA_DIFF_WARNING_PENALTY", 3),
			Threshold:       getEnvInt("SCHEMA_DIFF_THRESHOLD", 70),
			Diminishing:     getEnvBool("SCHEMA_DIFF_DIMINISHING_PENALTY", true),
		},
		MaxDepth: getEnvInt("SCHEMA_DIFF_MAX_DEPTH", 1000),
		LogLevel: observability.ParseLogLevel(getEnv("SCHEMA_DIFF_LOG_LEVEL", "INFO")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration consistency
func (c *Config) Validate() error {
	if c.Score.Threshold < 0 || c.Score.Threshold > 100 {
		return fmt.Errorf("threshold must be in [0, 100], got %d", c.Score.Threshold)
	}
	if c.Score.BreakingPenalty < 0 || c.Score.WarningPenalty < 0 {
		return fmt.Errorf("penalties must be non-negative")
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max depth must be positive, got %d", c.MaxDepth)
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
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
