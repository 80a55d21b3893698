package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath      string
	LogLevel          string
	OFXAccountID      string
	Port              int
	MaxRetries        int
	RetryDelaySeconds int
	ResolveWorkers    int
	DevMode           bool
	EnableCryptoCodes bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnvAsInt("PORT", 8080),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		DatabasePath:      getEnv("DATABASE_PATH", "./data/metadata.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		MaxRetries:        getEnvAsInt("MAX_RETRIES", 3),
		RetryDelaySeconds: getEnvAsInt("RETRY_DELAY_SECONDS", 1),
		ResolveWorkers:    getEnvAsInt("RESOLVE_WORKERS", 4),
		EnableCryptoCodes: getEnvAsBool("ENABLE_CRYPTO_CODES", false),
		OFXAccountID:      getEnv("OFX_ACCOUNT_ID", "00000"),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("MAX_RETRIES must be at least 1")
	}
	if c.ResolveWorkers < 1 {
		return fmt.Errorf("RESOLVE_WORKERS must be at least 1")
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
