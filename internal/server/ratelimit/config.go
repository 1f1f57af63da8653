package ratelimit

import (
	"os"
	"strconv"
	"time"
)

// Config holds login throttling configuration.
type Config struct {
	Enabled         bool
	Limit           int           // attempts per window once the burst is spent
	Window          time.Duration // refill window
	Burst           int           // immediate attempts allowed
	CleanupInterval time.Duration
}

// LoadConfig loads throttling configuration from environment variables.
// It reads LOGIN_RATE_ENABLED (default: true), LOGIN_RATE_LIMIT (default: 10),
// LOGIN_RATE_WINDOW (default: 1m) and LOGIN_RATE_BURST (default: 5).
func LoadConfig() *Config {
	enabled := getEnvBool("LOGIN_RATE_ENABLED", true)
	if !enabled {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		Limit:           getEnvInt("LOGIN_RATE_LIMIT", 10),
		Window:          getEnvDuration("LOGIN_RATE_WINDOW", time.Minute),
		Burst:           getEnvInt("LOGIN_RATE_BURST", 5),
		CleanupInterval: getEnvDuration("LOGIN_RATE_CLEANUP_INTERVAL", 5*time.Minute),
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
