package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AllowedOrigin string
	// Database: postgres when DatabaseURL is set, embedded sqlite otherwise
	DatabaseURL string
	SQLitePath  string
	CatalogCSV  string
	// Auth
	JWTSecret string
	// Telegram front-end, disabled when empty
	TelegramBotToken string
	// Widget
	TypingDelay time.Duration
	SessionTTL  time.Duration
	RateLimit   float64
	RateBurst   int
	// Logging
	LogLevel  string
	LogPretty bool
	// Owner the terminal client shops as
	LocalOwnerID string
}

// Load reads .env (if present) and the environment. Malformed values are errors.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []string
	cfg := &Config{
		Port:             getEnvDefault("PORT", "8080"),
		AllowedOrigin:    getEnvDefault("ALLOWED_ORIGIN", "*"),
		DatabaseURL:      os.Getenv("DB_URL"),
		SQLitePath:       getEnvDefault("SQLITE_PATH", "data/orderchat.db"),
		CatalogCSV:       getEnvDefault("CATALOG_CSV", "data/products.csv"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		LogLevel:         getEnvDefault("LOG_LEVEL", "info"),
		LogPretty:        getEnvBoolDefault("LOG_PRETTY", false),
		LocalOwnerID:     getEnvDefault("LOCAL_OWNER_ID", "local"),
	}

	var err error
	if cfg.TypingDelay, err = getEnvDurationDefault("TYPING_DELAY", time.Second); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.SessionTTL, err = getEnvDurationDefault("SESSION_TTL", 30*time.Minute); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.RateLimit, err = getEnvFloatDefault("RATE_LIMIT", 2); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.RateBurst, err = getEnvIntDefault("RATE_BURST", 5); err != nil {
		errs = append(errs, err.Error())
	}

	if cfg.TypingDelay < 0 {
		errs = append(errs, "TYPING_DELAY must not be negative")
	}
	if cfg.RateLimit <= 0 || cfg.RateBurst <= 0 {
		errs = append(errs, "RATE_LIMIT and RATE_BURST must be positive")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// UsePostgres reports whether the postgres store is configured
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getEnvDurationDefault(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	// bare numbers are milliseconds
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a duration", key, v)
	}
	return d, nil
}

func getEnvIntDefault(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	return n, nil
}

func getEnvFloatDefault(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, v)
	}
	return f, nil
}
