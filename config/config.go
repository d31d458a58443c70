package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"barfeed/internal/model"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	LogLevel    string
	MetricsAddr string // empty disables the metrics server

	// Live feed
	FeedURL    string
	FeedAPIKey string
	Symbol     string
	Period     model.Period

	// Newest bars kept per period; 0 keeps everything.
	MaxBarsPerPeriod int

	// Infrastructure
	RedisAddr          string // empty disables the tick publisher
	RedisPassword      string
	RedisChannelPrefix string
	SQLitePath         string

	// Comma-separated strategy names.
	Strategies string

	// AlertWebhookURL receives strategy alerts; empty logs them instead.
	AlertWebhookURL string
}

// Load reads an optional .env file, then the environment. Every invalid
// value is reported in the returned error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:           getEnv("LOG_LEVEL", "INFO"),
		FeedURL:            getEnv("FEED_URL", "wss://ws.finnhub.io"),
		FeedAPIKey:         getEnv("FEED_API_KEY", ""),
		Symbol:             getEnv("FEED_SYMBOL", "AUDUSD"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisChannelPrefix: getEnv("REDIS_CHANNEL_PREFIX", "tick"),
		SQLitePath:         getEnv("SQLITE_PATH", "data/bars.db"),
		Strategies:         getEnv("STRATEGIES", ""),
		AlertWebhookURL:    getEnv("ALERT_WEBHOOK_URL", ""),
	}
	var errs []string

	cfg.MetricsAddr = ":9090"
	if v, ok := os.LookupEnv("METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}

	p, err := model.ParsePeriod(getEnv("FEED_PERIOD", "1m"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid FEED_PERIOD: %v", err))
	}
	cfg.Period = p

	cfg.MaxBarsPerPeriod, err = getEnvAsInt("MAX_BARS_PER_PERIOD", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_BARS_PER_PERIOD: %v", err))
	} else if cfg.MaxBarsPerPeriod < 0 {
		errs = append(errs, "MAX_BARS_PER_PERIOD cannot be negative")
	}

	if cfg.Symbol == "" {
		errs = append(errs, "FEED_SYMBOL must be set")
	}
	if cfg.RedisChannelPrefix == "" {
		errs = append(errs, "REDIS_CHANNEL_PREFIX must be set")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// StrategyNames splits Strategies into trimmed, non-empty names.
func (c *Config) StrategyNames() []string {
	return SplitList(c.Strategies)
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvAsInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", v, key, err)
	}
	return n, nil
}
