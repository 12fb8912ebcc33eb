package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all configuration for the document classify service
type Config struct {
	// Server configuration
	Port           string
	AllowedOrigins string

	// LLM provider configuration
	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string

	// Session configuration
	SessionTTL time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		// Server defaults
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),

		// LLM defaults
		LLMProvider:  getEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		// Session defaults (30 minutes)
		SessionTTL: getDurationEnv("SESSION_TTL", 30*time.Minute),

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks that required configuration is present before any call is
// made, so a missing credential fails at startup instead of surfacing as a
// transport error on the first classification.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable is required when LLM_PROVIDER=gemini")
		}
	case "stub":
		// no credentials needed
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q (expected gemini or stub)", c.LLMProvider)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
