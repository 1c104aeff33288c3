// Package server provides configuration helpers that define runtime defaults,
// validation, and environment loading for the Roomcast service.
package server

import (
	"os"
	"strconv"
	"strings"

	"github.com/roomcast/roomcast/internal/relay"
)

// Config holds the server configuration settings. A Config is passed by
// value into NewServer; nothing in this package keeps configuration in
// package-level state.
type Config struct {
	Port           string
	AllowedOrigins []string
	MaxMessageSize int64
	RelayCapacity  int
}

const (
	defaultPort           = ":8080"
	defaultAllowedOrigin  = "http://localhost:8080"
	defaultMaxMessageSize = 4096
)

func defaultConfig() Config {
	return Config{
		Port:           defaultPort,
		AllowedOrigins: []string{defaultAllowedOrigin},
		MaxMessageSize: defaultMaxMessageSize,
		RelayCapacity:  relay.DefaultCapacity,
	}
}

// sanitize replaces invalid or missing values with their defaults and
// returns the cleaned copy.
func (c Config) sanitize() Config {
	if c.Port == "" {
		c.Port = defaultPort
	}

	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}

	if c.RelayCapacity <= 0 {
		c.RelayCapacity = relay.DefaultCapacity
	}

	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{defaultAllowedOrigin}
	} else {
		c.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	}

	return c
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Falls back to default values if environment variables are not set.
func NewConfigFromEnv() *Config {
	cfg := defaultConfig()

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	if maxSize := os.Getenv("MAX_MESSAGE_SIZE"); maxSize != "" {
		cfg.MaxMessageSize = parseMaxMessageSize(maxSize, cfg.MaxMessageSize)
	}

	if capacity := os.Getenv("RELAY_CAPACITY"); capacity != "" {
		cfg.RelayCapacity = parseIntValue(capacity, cfg.RelayCapacity)
	}

	return &cfg
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseMaxMessageSize(value string, defaultValue int64) int64 {
	if size, err := strconv.ParseInt(value, 10, 64); err == nil && size > 0 {
		return size
	}
	return defaultValue
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}
