// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Document store settings.
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Planning model settings.
	GeminiAPIKey string
	Model        string

	// Client settings.
	MCPServerURL string

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:            envInt("FLIGHTOPS_PORT", 3000),
		ReadTimeout:     envDuration("FLIGHTOPS_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    envDuration("FLIGHTOPS_WRITE_TIMEOUT", 120*time.Second),
		MongoURI:        envStr("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   envStr("MONGO_DB", "flightdb"),
		MongoCollection: envStr("MONGO_COLLECTION", "flight_legs"),
		GeminiAPIKey:    envStr("GEMINI_API_KEY", ""),
		Model:           envStr("FLIGHTOPS_MODEL", "gemini-2.0-flash"),
		MCPServerURL:    envStr("MCP_SERVER_URL", "http://localhost:3000/mcp"),
		OTELEndpoint:    envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:    envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:     envStr("OTEL_SERVICE_NAME", "flightops"),
		LogLevel:        envStr("FLIGHTOPS_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present.
func (c Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("config: MONGO_URI is required")
	}
	if c.MongoDatabase == "" {
		return fmt.Errorf("config: MONGO_DB is required")
	}
	if c.MongoCollection == "" {
		return fmt.Errorf("config: MONGO_COLLECTION is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: FLIGHTOPS_PORT must be a valid port")
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
