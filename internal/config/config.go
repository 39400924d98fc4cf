// Package config loads cardscan settings from the environment.
//
// Only values with an invalid shape fail Load; missing cloud credentials are
// reported by the OCR layer when a command actually needs them, so offline
// commands (decode, contacts, export) keep working without any setup.
package config

import (
	"fmt"
	"os"
	"strconv"

	"cardscan/internal/logger"
)

type Config struct {
	// OCR engine selection: "vision" or "documentai"
	OCREngine string

	// Google Cloud configuration
	GoogleCloudProject    string
	DocAILocation         string
	DocAIProcessorID      string
	DocAIProcessorVersion string

	// Contact storage
	DatabasePath string

	// Classifier keyword extensions (optional YAML file)
	KeywordsFile string

	// Batch scanning
	BatchWorkers int

	// Logging configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	workers, err := getEnvInt("BATCH_WORKERS", 4)
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	config := &Config{
		OCREngine:             getEnv("OCR_ENGINE", "vision"),
		GoogleCloudProject:    getEnv("GOOGLE_CLOUD_PROJECT", ""),
		DocAILocation:         getEnv("DOCAI_LOCATION", "us"),
		DocAIProcessorID:      getEnv("DOCAI_PROCESSOR_ID", ""),
		DocAIProcessorVersion: getEnv("DOCAI_PROCESSOR_VERSION", ""),
		DatabasePath:          getEnv("CARDSCAN_DB", "contacts.db"),
		KeywordsFile:          getEnv("KEYWORDS_FILE", ""),
		BatchWorkers:          workers,
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.OCREngine {
	case "vision", "documentai":
	default:
		return fmt.Errorf("OCR_ENGINE must be \"vision\" or \"documentai\", got %q", c.OCREngine)
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be positive, got %d", c.BatchWorkers)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("CARDSCAN_DB must not be empty")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}
