// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port      string
	Env       string // "development", "staging", "production"
	LogLevel  string
	LogFormat string // "text" or "json"

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Ledger settings
	SolanaRPCURL    string
	OracleProgramID string // Base58 program id of the trust oracle

	// Scoring settings
	DefaultBaseScore int           // Base score for wallets with no upstream signal
	RescoreInterval  time.Duration // How often the worker re-runs active wallets
	PreferredWindow  int           // Trend window (days) driving classification: 7 or 30

	// Observability
	OTLPEndpoint string // OTLP gRPC endpoint; empty disables tracing
}

// Defaults for local development against Solana devnet.
const (
	DefaultSolanaRPCURL    = "https://api.devnet.solana.com"
	DefaultPort            = "8080"
	DefaultEnv             = "development"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultBaseScore       = 50
	DefaultRescoreInterval = time.Hour
	DefaultPreferredWindow = 30
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", DefaultPort),
		Env:              getEnv("ENV", DefaultEnv),
		LogLevel:         getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:        getEnv("LOG_FORMAT", DefaultLogFormat),
		DatabaseURL:      os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		SolanaRPCURL:     getEnv("SOLANA_RPC_URL", DefaultSolanaRPCURL),
		OracleProgramID:  os.Getenv("ORACLE_PROGRAM_ID"),
		DefaultBaseScore: int(getEnvInt64("DEFAULT_BASE_SCORE", DefaultBaseScore)),
		RescoreInterval:  getEnvDuration("RESCORE_INTERVAL", DefaultRescoreInterval),
		PreferredWindow:  int(getEnvInt64("PREFERRED_WINDOW_DAYS", DefaultPreferredWindow)),
		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.SolanaRPCURL == "" {
		return fmt.Errorf("SOLANA_RPC_URL is required")
	}

	if c.DefaultBaseScore < 0 || c.DefaultBaseScore > 100 {
		return fmt.Errorf("DEFAULT_BASE_SCORE must be in [0,100]")
	}

	if c.PreferredWindow != 7 && c.PreferredWindow != 30 {
		return fmt.Errorf("PREFERRED_WINDOW_DAYS must be 7 or 30")
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json'")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
