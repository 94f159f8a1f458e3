package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Data load modes. Selected once at startup, never per request.
const (
	ModeRemote = "remote" // JSON API at DATA_BASE_URL
	ModeStatic = "static" // CSV files under {DATA_BASE_URL}/output/
)

// Config holds all configuration for the application.
// Only this package reads environment variables.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Dataset source
	Data DataConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Market data providers
	Eastmoney EastmoneyConfig
	THS       THSConfig

	// Picker
	StrategyFile string
	OutputDir    string

	// Position monitor
	Monitor MonitorConfig

	// Daily report mail
	SMTP SMTPConfig

	// Pick search
	SearchIndexPath string

	// Logging
	LogLevel  string
	LogFormat string
}

// DataConfig selects the dataset load strategy for viewers of the
// exported picks (remote JSON API vs static CSV layout).
type DataConfig struct {
	Mode    string // remote or static
	BaseURL string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// EastmoneyConfig holds the quote/kline API configuration
type EastmoneyConfig struct {
	BaseURL     string // push2 (spot quotes)
	HistBaseURL string // push2his (daily klines)
	RatePerSec  float64
}

// THSConfig holds the 同花顺 rank-list page configuration
type THSConfig struct {
	BaseURL        string
	FinanceBaseURL string
	UserAgent      string
}

// MonitorConfig holds position-monitor settings
type MonitorConfig struct {
	PositionsFile string
	Interval      time.Duration
	StopLossPct   float64 // negative, e.g. -8 means alert at -8%
	TakeProfitPct float64
	TrailingPct   float64 // drawdown from session high
	AlertCooldown time.Duration
}

// SMTPConfig holds daily-report mail settings
type SMTPConfig struct {
	Host       string
	Port       string
	Username   string
	Password   string
	From       string
	Recipients []string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8000"),
		Env:  getEnv("ENV", "development"),

		Data: DataConfig{
			Mode:    getEnv("DATA_MODE", ModeStatic),
			BaseURL: getEnv("DATA_BASE_URL", "http://localhost:8000"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Eastmoney: EastmoneyConfig{
			BaseURL:     getEnv("EASTMONEY_BASE_URL", "https://push2.eastmoney.com"),
			HistBaseURL: getEnv("EASTMONEY_HIST_BASE_URL", "https://push2his.eastmoney.com"),
			RatePerSec:  getEnvAsFloat("EASTMONEY_RATE_PER_SEC", 5),
		},

		THS: THSConfig{
			BaseURL:        getEnv("THS_BASE_URL", "https://data.10jqka.com.cn"),
			FinanceBaseURL: getEnv("THS_FINANCE_BASE_URL", "https://basic.10jqka.com.cn"),
			UserAgent:      getEnv("THS_USER_AGENT", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"),
		},

		StrategyFile: getEnv("STRATEGY_FILE", "config/strategy.yaml"),
		OutputDir:    getEnv("OUTPUT_DIR", "output"),

		Monitor: MonitorConfig{
			PositionsFile: getEnv("MONITOR_POSITIONS_FILE", "config/positions.yaml"),
			Interval:      getEnvAsDuration("MONITOR_INTERVAL", "30s"),
			StopLossPct:   getEnvAsFloat("MONITOR_STOP_LOSS_PCT", -8),
			TakeProfitPct: getEnvAsFloat("MONITOR_TAKE_PROFIT_PCT", 15),
			TrailingPct:   getEnvAsFloat("MONITOR_TRAILING_PCT", 5),
			AlertCooldown: getEnvAsDuration("MONITOR_ALERT_COOLDOWN", "30m"),
		},

		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnv("SMTP_PORT", "587"),
			Username:   getEnv("SMTP_USERNAME", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			From:       getEnv("SMTP_FROM", ""),
			Recipients: getEnvAsSlice("REPORT_RECIPIENTS", nil),
		},

		SearchIndexPath: getEnv("SEARCH_INDEX_PATH", "data/picks.bleve"),

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks required values and enums.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Data.Mode != ModeRemote && c.Data.Mode != ModeStatic {
		return fmt.Errorf("DATA_MODE must be one of: %s, %s", ModeRemote, ModeStatic)
	}

	if c.Data.BaseURL == "" {
		return fmt.Errorf("DATA_BASE_URL is required")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"config/.env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
