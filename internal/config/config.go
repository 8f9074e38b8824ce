// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults for the sales report column mapping. Unmodified QuickBooks-style
// exports load with no configuration at all.
const (
	DefaultDateColumn   = "Date"
	DefaultAmountColumn = "Amount"
	DefaultDateLayout   = "2006-01-02"

	DefaultMovingAverageDays = 30
	DefaultSimulations       = 1000
)

// Config holds application configuration
type Config struct {
	DataDir           string // Base directory for the settings and history databases
	Port              int
	LogLevel          string
	DevMode           bool
	InputFile         string // Default sales report path for headless and scheduled runs
	DateColumn        string
	AmountColumn      string
	TypeColumn        string
	TypeFilter        string
	DateLayout        string
	DecimalComma      bool // Treat comma as the decimal separator when parsing amounts
	MovingAverageDays int
	Simulations       int
	Schedule          string // Cron expression for scheduled re-evaluation; empty disables it
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("ADEVAL_DATA_DIR", "")
	if dataDir == "" {
		dataDir = filepath.Join(".", "data")
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:           absDataDir,
		Port:              getEnvAsInt("ADEVAL_PORT", 8002),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		InputFile:         getEnv("ADEVAL_INPUT_FILE", ""),
		DateColumn:        getEnv("ADEVAL_DATE_COLUMN", DefaultDateColumn),
		AmountColumn:      getEnv("ADEVAL_AMOUNT_COLUMN", DefaultAmountColumn),
		TypeColumn:        getEnv("ADEVAL_TYPE_COLUMN", ""),
		TypeFilter:        getEnv("ADEVAL_TYPE_FILTER", ""),
		DateLayout:        getEnv("ADEVAL_DATE_LAYOUT", DefaultDateLayout),
		DecimalComma:      getEnvAsBool("ADEVAL_DECIMAL_COMMA", false),
		MovingAverageDays: getEnvAsInt("ADEVAL_MA_DAYS", DefaultMovingAverageDays),
		Simulations:       getEnvAsInt("ADEVAL_SIMULATIONS", DefaultSimulations),
		Schedule:          getEnv("ADEVAL_SCHEDULE", ""),
	}

	return cfg, nil
}

// SettingsDBPath returns the path of the settings database
func (c *Config) SettingsDBPath() string {
	return filepath.Join(c.DataDir, "settings.db")
}

// HistoryDBPath returns the path of the evaluation history database
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
