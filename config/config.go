package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	LogLevel    string

	// Database
	DBVendor string // sqlite, postgres or mysql
	DBDSN    string

	// Trigger migration generation
	MigrationDir     string
	DBVendorOverride string // vendor to generate trigger SQL for, when it differs from DBVendor

	// When true, selecting a soft-deleted option is allowed instead of
	// rejected with a validation error.
	AllowDeletedSelections bool
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		Environment:            getEnv("ENVIRONMENT", "development"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		DBVendor:               getEnv("DB_VENDOR", "sqlite"),
		DBDSN:                  getEnv("DB_DSN", "tenant_options.db"),
		MigrationDir:           getEnv("MIGRATION_DIR", "migrations"),
		DBVendorOverride:       getEnv("DB_VENDOR_OVERRIDE", ""),
		AllowDeletedSelections: getBoolEnv("ALLOW_DELETED_SELECTIONS", false),
	}
}

// TriggerVendor returns the vendor trigger SQL should be generated for:
// the override when set, otherwise the connection vendor.
func (c *Config) TriggerVendor() string {
	if c.DBVendorOverride != "" {
		return c.DBVendorOverride
	}
	return c.DBVendor
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid boolean value for %s: %q, using default", key, value)
		return defaultValue
	}
	return parsed
}
