/**
 * Configuration for the OCR service.
 *
 * Loads configuration from environment variables, following the shape
 * of the original fileprocess-worker config loader.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL string
	AppDomain   string

	MaxConcurrentJobs  int
	PDFPageConcurrency int

	PollInterval         time.Duration
	ProcessingTimeout    time.Duration
	StuckJobThreshold    time.Duration
	WebhookTimeout       time.Duration

	MaxUploadBytes int64

	HTTPListenAddr string

	// RedisURL, when set, enables the non-authoritative job event
	// notifier (see internal/events). The store remains the sole
	// dispatch authority regardless of whether this is configured.
	RedisURL string

	// QdrantURL, when set, enables the admin similar-jobs search index.
	QdrantURL        string
	QdrantCollection string

	TesseractLangs string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        getEnvOrThrow("DATABASE_URL"),
		AppDomain:          getEnvOrDefault("APP_DOMAIN", "http://localhost:8080"),
		MaxConcurrentJobs:  getEnvAsIntOrDefault("MAX_CONCURRENT_JOBS", 3),
		PDFPageConcurrency: getEnvAsIntOrDefault("PDF_PAGE_CONCURRENCY", 4),
		PollInterval:       time.Duration(getEnvAsIntOrDefault("POLL_INTERVAL_SECONDS", 5)) * time.Second,
		ProcessingTimeout:  time.Duration(getEnvAsIntOrDefault("PROCESSING_TIMEOUT_SECONDS", 300)) * time.Second,
		StuckJobThreshold:  time.Duration(getEnvAsIntOrDefault("STUCK_JOB_THRESHOLD_MINUTES", 10)) * time.Minute,
		WebhookTimeout:     time.Duration(getEnvAsIntOrDefault("WEBHOOK_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxUploadBytes:     getEnvAsInt64OrDefault("MAX_UPLOAD_BYTES", 50*1024*1024),
		HTTPListenAddr:     getEnvOrDefault("HTTP_LISTEN_ADDR", ":8080"),
		RedisURL:           getEnvOrDefault("REDIS_URL", ""),
		QdrantURL:          getEnvOrDefault("QDRANT_URL", ""),
		QdrantCollection:   getEnvOrDefault("QDRANT_COLLECTION", "ocr_documents"),
		TesseractLangs:     getEnvOrDefault("TESSERACT_LANGS", "eng"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.MaxConcurrentJobs < 1 || c.MaxConcurrentJobs > 100 {
		return fmt.Errorf("MAX_CONCURRENT_JOBS must be between 1 and 100, got %d", c.MaxConcurrentJobs)
	}

	if c.PDFPageConcurrency < 1 || c.PDFPageConcurrency > 32 {
		return fmt.Errorf("PDF_PAGE_CONCURRENCY must be between 1 and 32, got %d", c.PDFPageConcurrency)
	}

	if c.MaxUploadBytes < 1024 || c.MaxUploadBytes > 10*1024*1024*1024 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be between 1KB and 10GB, got %d", c.MaxUploadBytes)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrThrow(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return value
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
