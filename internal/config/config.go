package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Storage backends understood by the media layer.
const (
	StorageLocal = "local"
	StorageR2    = "r2"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string        `json:"port" validate:"required,numeric"`
	Env             string        `json:"env"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" validate:"gt=0"`
	HTTPTimeout     time.Duration `json:"http_timeout" validate:"gt=0"`

	// Database
	DatabasePath string `json:"database_path" validate:"required"`

	// Redis configuration. An empty URL selects the in-process cache.
	RedisURL    string        `json:"redis_url"`
	RedisPrefix string        `json:"redis_prefix"`
	CacheTTL    time.Duration `json:"cache_ttl"`

	// Sessions
	SessionTTL    time.Duration `json:"session_ttl" validate:"gt=0"`
	SessionSecure bool          `json:"session_secure"`

	// Media storage
	StorageBackend string `json:"storage_backend" validate:"oneof=local r2"`
	MediaRoot      string `json:"media_root" validate:"required_if=StorageBackend local"`
	MediaURL       string `json:"media_url" validate:"required,startswith=/,endswith=/"`
	MaxFileSize    int64  `json:"max_file_size" validate:"gt=0"`

	// CloudFlare R2 Configuration
	R2Endpoint  string `json:"r2_endpoint"`
	R2AccessKey string `json:"r2_access_key" validate:"required_if=StorageBackend r2"`
	R2SecretKey string `json:"r2_secret_key" validate:"required_if=StorageBackend r2"`
	R2Bucket    string `json:"r2_bucket" validate:"required_if=StorageBackend r2"`
	R2AccountID string `json:"r2_account_id"`
	R2PublicURL string `json:"r2_public_url"`

	// Social media collector
	FeedTimeout      time.Duration `json:"feed_timeout" validate:"gt=0"`
	FeedRetries      int           `json:"feed_retries" validate:"gte=0"`
	ProcessorTimeout time.Duration `json:"processor_timeout" validate:"gt=0"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogFile   string `json:"log_file"`
	LogPretty bool   `json:"log_pretty"`

	MetricsEnabled bool `json:"metrics_enabled"`
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),

		DatabasePath: getEnv("DATABASE_PATH", "./data/s13core.db"),

		RedisURL:    getEnv("REDIS_URL", ""),
		RedisPrefix: getEnv("REDIS_PREFIX", "s13:"),
		CacheTTL:    getEnvAsDuration("CACHE_TTL", 720*time.Hour), // 30 days

		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		SessionSecure: getEnvAsBool("SESSION_SECURE", false),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageLocal)),
		MediaRoot:      getEnv("MEDIA_ROOT", "./data/media"),
		MediaURL:       getEnv("MEDIA_URL", "/media/"),
		MaxFileSize:    getEnvAsInt64("MAX_FILE_SIZE", 10<<20), // 10MB

		R2Endpoint:  getEnv("R2_ENDPOINT", ""),
		R2AccessKey: getEnv("R2_ACCESS_KEY", ""),
		R2SecretKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:    getEnv("R2_BUCKET", ""),
		R2AccountID: getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
		R2PublicURL: getEnv("R2_PUBLIC_URL", ""),

		FeedTimeout:      getEnvAsDuration("FEED_TIMEOUT", 30*time.Second),
		FeedRetries:      getEnvAsInt("FEED_RETRIES", 3),
		ProcessorTimeout: getEnvAsDuration("PROCESSOR_TIMEOUT", 10*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFile:   getEnv("LOG_FILE", ""),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if cfg.R2Endpoint == "" && cfg.R2AccountID != "" {
		cfg.R2Endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.StorageBackend == StorageR2 && c.R2Endpoint == "" {
		return fmt.Errorf("R2_ENDPOINT or CLOUDFLARE_ACCOUNT_ID is required for the r2 backend")
	}
	return nil
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsInt64(name string, defaultVal int64) int64 {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %t", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}
