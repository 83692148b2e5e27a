package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"chemviz/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Ops      OpsConfig
	Ingest   IngestConfig
	Log      LogConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL          string `validate:"required"`
	MaxOpenConns int    `validate:"gte=0"`
	MaxIdleConns int    `validate:"gte=0"`
}

// ServerConfig holds API server settings
type ServerConfig struct {
	Port            string        `validate:"required,numeric"`
	GinMode         string        `validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// OpsConfig holds the health, metrics and profiling listener settings
type OpsConfig struct {
	Port    string `validate:"required,numeric"`
	Enabled bool
}

// IngestConfig holds upload processing limits
type IngestConfig struct {
	MaxDatasets    int   `validate:"gte=1"`
	MaxUploadBytes int64 `validate:"gt=0"`
	MaxConcurrent  int64 `validate:"gte=1"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// DefaultIngestConfig returns the upload limits used when no overrides are set
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		MaxDatasets:    5,
		MaxUploadBytes: 10 * 1024 * 1024,
		MaxConcurrent:  4,
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig
	config.Server = *loadServerConfig()
	config.Ops = *loadOpsConfig()
	config.Ingest = *loadIngestConfig()
	config.Log = LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	return &DatabaseConfig{
		URL:          url,
		MaxOpenConns: getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 20),
		MaxIdleConns: getEnvIntOrDefault("DB_MAX_IDLE_CONNS", 5),
	}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8000"),
		GinMode:         getEnvOrDefault("GIN_MODE", "release"),
		ReadTimeout:     getEnvDurationOrDefault("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getEnvDurationOrDefault("WRITE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadOpsConfig() *OpsConfig {
	return &OpsConfig{
		Port:    getEnvOrDefault("OPS_PORT", "9090"),
		Enabled: getEnvBoolOrDefault("OPS_ENABLED", true),
	}
}

func loadIngestConfig() *IngestConfig {
	defaults := DefaultIngestConfig()
	return &IngestConfig{
		MaxDatasets:    getEnvIntOrDefault("MAX_DATASETS", defaults.MaxDatasets),
		MaxUploadBytes: int64(getEnvIntOrDefault("MAX_UPLOAD_BYTES", int(defaults.MaxUploadBytes))),
		MaxConcurrent:  int64(getEnvIntOrDefault("MAX_CONCURRENT_INGESTS", int(defaults.MaxConcurrent))),
	}
}

func validateConfig(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
