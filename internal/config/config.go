package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration. It is built once at startup and
// passed by reference to constructors; nothing mutates it afterwards.
type Config struct {
	// API credentials
	SECUserAgentEmail string
	NasdaqAPIKey      string

	// Rate limiting and retries
	SECRateLimit          time.Duration
	NasdaqRateLimit       time.Duration
	MaxConcurrentRequests int
	MaxRetries            int
	RequestTimeout        time.Duration
	RetryBackoffFactor    float64

	// Storage
	BaseDataDir    string
	StorageBackend string // "csv" or "sqlite"

	// Logging
	LogLevel  string
	LogPretty bool

	// HTTP server (serve mode)
	Port int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		SECUserAgentEmail:     getEnv("SEC_USER_AGENT_EMAIL", ""),
		NasdaqAPIKey:          getEnv("NASDAQ_API_KEY", ""),
		SECRateLimit:          getEnvAsMillis("SEC_RATE_LIMIT_MS", 100),
		NasdaqRateLimit:       getEnvAsMillis("NASDAQ_RATE_LIMIT_MS", 1000),
		MaxConcurrentRequests: getEnvAsInt("MAX_CONCURRENT_REQUESTS", 5),
		MaxRetries:            getEnvAsInt("MAX_RETRIES", 5),
		RequestTimeout:        time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		RetryBackoffFactor:    getEnvAsFloat("RETRY_BACKOFF_FACTOR", 2.0),
		BaseDataDir:           getEnv("BASE_DATA_DIR", "data"),
		StorageBackend:        getEnv("STORAGE_BACKEND", "csv"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogPretty:             getEnvAsBool("LOG_PRETTY", false),
		Port:                  getEnvAsInt("PORT", 8010),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.SECUserAgentEmail == "" {
		return fmt.Errorf("SEC_USER_AGENT_EMAIL is required")
	}
	if c.StorageBackend != "csv" && c.StorageBackend != "sqlite" {
		return fmt.Errorf("STORAGE_BACKEND must be csv or sqlite, got %q", c.StorageBackend)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("MAX_RETRIES must be at least 1")
	}
	return nil
}

// Directory layout helpers. All paths derive from BaseDataDir.

// RawNasdaqDir is where raw API payload archives are written.
func (c *Config) RawNasdaqDir() string {
	return filepath.Join(c.BaseDataDir, "raw", "nasdaq")
}

// CompaniesFile is the master company CSV file.
func (c *Config) CompaniesFile() string {
	return filepath.Join(c.BaseDataDir, "processed", "companies", "companies.csv")
}

// EarningsDir is the base directory for earnings files.
func (c *Config) EarningsDir() string {
	return filepath.Join(c.BaseDataDir, "processed", "earnings")
}

// DatabaseFile is the sqlite database path used by the sqlite backend.
func (c *Config) DatabaseFile() string {
	return filepath.Join(c.BaseDataDir, "scraper.db")
}

// LogDir is where file logs would be written.
func (c *Config) LogDir() string {
	return filepath.Join(c.BaseDataDir, "logs")
}

// EnsureDirs creates the data directory tree if it doesn't exist
func (c *Config) EnsureDirs() error {
	dirs := []string{
		c.RawNasdaqDir(),
		filepath.Dir(c.CompaniesFile()),
		filepath.Join(c.EarningsDir(), "daily"),
		c.LogDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

func getEnvAsMillis(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Millisecond
}
