// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	LogLevel         string
	LogPretty        bool
	ReplayBufferSize int           // Capacity of the experience replay buffer
	CollectTimeout   time.Duration // Per-collector bound on one collection round
	RoundSchedule    string        // Cron schedule for collection rounds
	FixturesDir      string        // Optional directory of collector fixtures to register
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogPretty:        getEnvAsBool("LOG_PRETTY", true),
		ReplayBufferSize: getEnvAsInt("REPLAY_BUFFER_SIZE", 10000),
		CollectTimeout:   getEnvAsDuration("COLLECT_TIMEOUT", 30*time.Second),
		RoundSchedule:    getEnv("ROUND_SCHEDULE", "@every 5m"),
		FixturesDir:      getEnv("FIXTURES_DIR", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.ReplayBufferSize < 1 {
		return fmt.Errorf("REPLAY_BUFFER_SIZE must be at least 1, got %d", c.ReplayBufferSize)
	}
	if c.CollectTimeout <= 0 {
		return fmt.Errorf("COLLECT_TIMEOUT must be positive, got %s", c.CollectTimeout)
	}
	if c.RoundSchedule == "" {
		return fmt.Errorf("ROUND_SCHEDULE must not be empty")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
