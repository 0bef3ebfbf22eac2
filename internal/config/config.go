package config

import (
	"os"
	"strconv"
	"time"

	"github.com/luizvinicius2219/planimport/internal/errors"
)

// Config represents the complete engine configuration
type Config struct {
	Database DatabaseConfig
	Source   SourceConfig
	Import   ImportConfig
	Log      LogConfig
}

// DatabaseConfig holds MySQL connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
}

// SourceConfig holds where the spreadsheets and their contract live
type SourceConfig struct {
	Folder      string
	SchemaFile  string
	CSVEncoding string
}

// ImportConfig holds batching, retry and coercion settings
type ImportConfig struct {
	BatchSize    int
	MaxRetries   int
	RetryBackoff time.Duration
	DecimalComma bool
	DayFirst     bool
	AbortOnError bool
	DryRun       bool
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables and validates it.
// Environment names follow the original pipeline's contract.
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "127.0.0.1"),
			Port:     getEnvIntOrDefault("DB_PORT", 3306),
			Name:     os.Getenv("DB_NAME"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASS"),
		},
		Source: SourceConfig{
			Folder:      getEnvOrDefault("PLANILHAS_FOLDER", "./planilhas"),
			SchemaFile:  getEnvOrDefault("SCHEMA_FILE", "./schema.toml"),
			CSVEncoding: getEnvOrDefault("CSV_ENCODING", "utf-8"),
		},
		Import: ImportConfig{
			BatchSize:    getEnvIntOrDefault("BATCH_SIZE", 500),
			MaxRetries:   getEnvIntOrDefault("MAX_RETRIES", 3),
			RetryBackoff: getEnvDurationOrDefault("RETRY_BACKOFF", 500*time.Millisecond),
			DecimalComma: getEnvBoolOrDefault("DECIMAL_COMMA", true),
			DayFirst:     getEnvBoolOrDefault("DAY_FIRST", true),
			AbortOnError: getEnvBoolOrDefault("ABORT_ON_ERROR", false),
			DryRun:       getEnvBoolOrDefault("DRY_RUN", false),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Database.Name == "" {
		return errors.ConfigInvalid("DB_NAME is required")
	}
	if config.Database.User == "" {
		return errors.ConfigInvalid("DB_USER is required")
	}
	if config.Database.Port < 1 || config.Database.Port > 65535 {
		return errors.ConfigInvalid("DB_PORT is out of range")
	}
	if config.Import.BatchSize < 1 {
		return errors.ConfigInvalid("BATCH_SIZE must be at least 1")
	}
	if config.Import.MaxRetries < 0 {
		return errors.ConfigInvalid("MAX_RETRIES cannot be negative")
	}
	if config.Import.RetryBackoff <= 0 {
		return errors.ConfigInvalid("RETRY_BACKOFF must be positive")
	}
	switch config.Source.CSVEncoding {
	case "utf-8", "utf8", "latin-1", "latin1", "iso-8859-1", "windows-1252", "cp1252":
	default:
		return errors.ConfigInvalid("CSV_ENCODING must be utf-8, latin-1 or windows-1252")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault also accepts a bare number of milliseconds,
// which is how the original pipeline expressed its retry delay
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
