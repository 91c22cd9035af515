package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the lmk backend service
type Config struct {
	// Server configuration
	Port string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// OpenAI configuration
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAIVisionModel string
	LLMTimeout        time.Duration

	// Auth configuration
	JWTSecret string

	// Hazard report defaults
	DefaultMaxDistance float64

	// Email configuration (optional; reports are emailed when a key is set)
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		// Server defaults
		Port: getEnv("PORT", "8080"),

		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "lmk"),
		DBPassword: getEnv("DB_PASSWORD", "secret_app"),
		DBName:     getEnv("DB_NAME", "lmk"),

		// OpenAI defaults
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIVisionModel: getEnv("OPENAI_VISION_MODEL", "gpt-4-turbo"),
		LLMTimeout:        getDurationEnv("LLM_TIMEOUT", 60*time.Second),

		// Auth defaults
		JWTSecret: getEnv("JWT_SECRET", ""),

		// Hazard report defaults (miles)
		DefaultMaxDistance: getFloatEnv("DEFAULT_MAX_DISTANCE", 5.0),

		// Email defaults
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "reports@lmk.app"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "lmk reports"),

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
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

// getFloatEnv gets a float environment variable or returns a default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
