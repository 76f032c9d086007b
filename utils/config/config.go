// Package config handles environment-based configuration for Dispatch.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cast"
)

// Config represents the complete Dispatch configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	Health   HealthConfig
	Proxy    ProxyConfig
	Database DatabaseConfig
	// RoutesFile is the YAML routing table; empty selects the built-in table.
	RoutesFile string
	// EnableTestHooks exposes PUT /dispatch/services/:name/status.
	EnableTestHooks bool
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
}

// HealthConfig controls the background health monitor.
type HealthConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// ProxyConfig controls the gateway endpoint.
type ProxyConfig struct {
	Timeout time.Duration
	// ServiceToken is sent when the caller brings no bearer token.
	ServiceToken string
}

// DatabaseConfig locates the probe history database.
type DatabaseConfig struct {
	// Path is a SQLite file, or ":memory:" to keep no state on disk.
	Path string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("DISPATCH_SERVER_HOST", "0.0.0.0"),
			Port:           getEnvInt("DISPATCH_SERVER_PORT", 8080),
			ReadTimeout:    getEnvDuration("DISPATCH_SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getEnvDuration("DISPATCH_SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getEnvDuration("DISPATCH_SERVER_IDLE_TIMEOUT", 60*time.Second),
			MaxHeaderBytes: getEnvInt("DISPATCH_SERVER_MAX_HEADER_BYTES", 1048576), // 1MB
		},
		Health: HealthConfig{
			Interval: getEnvDuration("DISPATCH_HEALTH_CHECK_INTERVAL", 30*time.Second),
			Timeout:  getEnvDuration("DISPATCH_HEALTH_CHECK_TIMEOUT", 5*time.Second),
		},
		Proxy: ProxyConfig{
			Timeout:      getEnvDuration("DISPATCH_PROXY_TIMEOUT", 30*time.Second),
			ServiceToken: getEnv("DISPATCH_SERVICE_TOKEN", ""),
		},
		Database: DatabaseConfig{
			Path: getEnv("DISPATCH_DB_PATH", ":memory:"),
		},
		RoutesFile:      getEnv("DISPATCH_ROUTES_FILE", ""),
		EnableTestHooks: getEnvBool("DISPATCH_ENABLE_TEST_HOOKS", false),
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Printf("Configuration loaded:")
	log.Printf("  Server: %s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("  Health check: every %v (timeout %v)", cfg.Health.Interval, cfg.Health.Timeout)
	log.Printf("  Database: %s", cfg.Database.Path)
	if cfg.RoutesFile != "" {
		log.Printf("  Routes file: %s", cfg.RoutesFile)
	}
	if cfg.EnableTestHooks {
		log.Printf("  Test hooks: enabled")
	}

	return cfg, nil
}

// validate checks if the configuration is valid.
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", cfg.Server.Port)
	}

	if cfg.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be positive)", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v (must be positive)", cfg.Server.WriteTimeout)
	}

	if cfg.Health.Interval <= 0 {
		return fmt.Errorf("invalid health check interval: %v (must be positive)", cfg.Health.Interval)
	}
	if cfg.Health.Timeout <= 0 || cfg.Health.Timeout > cfg.Health.Interval {
		return fmt.Errorf("invalid health check timeout: %v (must be positive and at most the interval)", cfg.Health.Timeout)
	}
	if cfg.Proxy.Timeout <= 0 {
		return fmt.Errorf("invalid proxy timeout: %v (must be positive)", cfg.Proxy.Timeout)
	}
	if cfg.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}

	return nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid integer value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool accepts the usual spellings: true/false, 1/0, t/f.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := cast.ToBoolE(value); err == nil {
			return b
		}
		log.Printf("Warning: invalid boolean value for %s: %s, using default: %v", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns a default value.
// Accepts values like "30s", "5m", "1h"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %v", key, value, defaultValue)
	}
	return defaultValue
}

// GetLogLevel returns the configured log level.
func GetLogLevel() string {
	return getEnv("DISPATCH_LOG_LEVEL", "info")
}

// IsDebugMode returns true if debug mode is enabled.
func IsDebugMode() bool {
	return GetLogLevel() == "debug"
}
