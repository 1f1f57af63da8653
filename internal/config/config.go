// Package config loads server configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// AppConfig holds the top-level server settings.
type AppConfig struct {
	Port        int
	DatabaseURL string
}

// NewAppConfig creates the server configuration from environment variables.
// It reads DATABASE_URL (required) and PORT (default: 8080).
func NewAppConfig() (*AppConfig, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080" // default
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %v", err)
	}

	config := &AppConfig{
		Port:        port,
		DatabaseURL: databaseURL,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// normalize validates the configuration.
func (c *AppConfig) normalize() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
