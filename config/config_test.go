package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barfeed/internal/model"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"LOG_LEVEL", "FEED_URL", "FEED_API_KEY", "FEED_SYMBOL", "FEED_PERIOD",
		"MAX_BARS_PER_PERIOD", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_CHANNEL_PREFIX",
		"SQLITE_PATH", "STRATEGIES", "ALERT_WEBHOOK_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("METRICS_ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, "wss://ws.finnhub.io", cfg.FeedURL)
	assert.Equal(t, "AUDUSD", cfg.Symbol)
	assert.Equal(t, model.Period1m, cfg.Period)
	assert.Equal(t, 0, cfg.MaxBarsPerPeriod)
	assert.Equal(t, "", cfg.RedisAddr)
	assert.Equal(t, "tick", cfg.RedisChannelPrefix)
	assert.Equal(t, "data/bars.db", cfg.SQLitePath)
	assert.Empty(t, cfg.StrategyNames())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("METRICS_ADDR", "")
	t.Setenv("FEED_PERIOD", "15m")
	t.Setenv("MAX_BARS_PER_PERIOD", "500")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("STRATEGIES", "basic_ema, sma_crossover,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "", cfg.MetricsAddr)
	assert.Equal(t, model.Period15m, cfg.Period)
	assert.Equal(t, 500, cfg.MaxBarsPerPeriod)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, []string{"basic_ema", "sma_crossover"}, cfg.StrategyNames())
}

func TestLoad_CollectsErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("FEED_PERIOD", "2m")
	t.Setenv("MAX_BARS_PER_PERIOD", "lots")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEED_PERIOD")
	assert.Contains(t, err.Error(), "MAX_BARS_PER_PERIOD")
}

func TestLoad_NegativeRetention(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_BARS_PER_PERIOD", "-1")
	_, err := Load()
	assert.ErrorContains(t, err, "cannot be negative")
}
