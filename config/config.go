package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"futuresregime/internal/adapters/obslog"
)

// Config holds all application configuration.
type Config struct {
	// Quote vendor OAuth
	AppKey      string
	AppSecret   string
	RedirectURI string
	AuthURL     string
	TokenURL    string
	BaseURL     string

	// Credential storage
	TokenPath       string
	EncryptionKeyHex string

	// Vendor rate limiting
	RateLimitPerSecond float64
	RateLimitBurst     int

	// Pipeline
	LookbackDays  int
	PollInterval  time.Duration
	CalibrationOverridePath string
	EventCalendarPath       string

	// Database
	DBPath string

	// Logging
	LogLevel obslog.Level

	// Connection settings
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string

	// Quote vendor OAuth
	cfg.AppKey = getEnv("QUOTE_APP_KEY", "")
	cfg.AppSecret = getEnv("QUOTE_APP_SECRET", "")
	cfg.RedirectURI = getEnv("QUOTE_REDIRECT_URI", "https://127.0.0.1:8787/callback")
	cfg.AuthURL = getEnv("QUOTE_AUTH_URL", "https://api.schwabapi.com/v1/oauth/authorize")
	cfg.TokenURL = getEnv("QUOTE_TOKEN_URL", "https://api.schwabapi.com/v1/oauth/token")
	cfg.BaseURL = getEnv("QUOTE_BASE_URL", "https://api.schwabapi.com")

	if cfg.AppKey == "" {
		errs = append(errs, "QUOTE_APP_KEY must be set")
	}
	if cfg.AppSecret == "" {
		errs = append(errs, "QUOTE_APP_SECRET must be set")
	}

	// Credential storage
	cfg.TokenPath = getEnv("TOKEN_PATH", "./data/token.enc")
	cfg.EncryptionKeyHex = getEnv("TOKEN_ENCRYPTION_KEY", "")
	if cfg.EncryptionKeyHex == "" {
		errs = append(errs, "TOKEN_ENCRYPTION_KEY must be set (32 bytes, hex-encoded)")
	} else if len(cfg.EncryptionKeyHex) != 64 {
		errs = append(errs, "TOKEN_ENCRYPTION_KEY must be exactly 64 hex characters (32 bytes)")
	}

	// Vendor rate limiting
	cfg.RateLimitPerSecond, err = getEnvAsFloatRequired("RATE_LIMIT_PER_SECOND", 2.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RATE_LIMIT_PER_SECOND: %v", err))
	} else if cfg.RateLimitPerSecond <= 0 {
		errs = append(errs, "RATE_LIMIT_PER_SECOND must be positive")
	}
	cfg.RateLimitBurst = getEnvAsInt("RATE_LIMIT_BURST", 2)
	if cfg.RateLimitBurst <= 0 {
		errs = append(errs, "RATE_LIMIT_BURST must be positive")
	}

	// Pipeline
	cfg.LookbackDays, err = getEnvAsIntRequired("LOOKBACK_DAYS", 5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid LOOKBACK_DAYS: %v", err))
	} else if cfg.LookbackDays <= 0 {
		errs = append(errs, "LOOKBACK_DAYS must be positive")
	}

	pollSeconds := getEnvAsInt("POLL_INTERVAL_SECONDS", 60)
	if pollSeconds <= 0 {
		errs = append(errs, "POLL_INTERVAL_SECONDS must be positive")
	}
	cfg.PollInterval = time.Duration(pollSeconds) * time.Second

	cfg.CalibrationOverridePath = getEnv("CALIBRATION_OVERRIDE_PATH", "")
	cfg.EventCalendarPath = getEnv("EVENT_CALENDAR_PATH", "./config/events.yaml")

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/regime_reports.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = obslog.ParseLevel(logLevelStr)

	// Connection settings
	reconnectDelaySeconds := getEnvAsInt("RECONNECT_DELAY_SECONDS", 5)
	if reconnectDelaySeconds <= 0 {
		errs = append(errs, "RECONNECT_DELAY_SECONDS must be positive")
	}
	cfg.ReconnectDelay = time.Duration(reconnectDelaySeconds) * time.Second

	cfg.MaxReconnectAttempts = getEnvAsInt("MAX_RECONNECT_ATTEMPTS", 10)
	if cfg.MaxReconnectAttempts < 0 {
		errs = append(errs, "MAX_RECONNECT_ATTEMPTS cannot be negative")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
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

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
