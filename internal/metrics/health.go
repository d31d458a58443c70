package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	Mode           string    `json:"mode"` // replay or live
	FeedConnected  bool      `json:"feed_connected"`
	LastTickTime   time.Time `json:"last_tick_time"`
	RedisEnabled   bool      `json:"redis_enabled"`
	RedisConnected bool      `json:"redis_connected"`
	SQLiteEnabled  bool      `json:"sqlite_enabled"`
	SQLiteOK       bool      `json:"sqlite_ok"`
	Strategies     []string  `json:"strategies"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status for mode.
func NewHealthStatus(mode string) *HealthStatus {
	return &HealthStatus{
		Mode:      mode,
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetFeedConnected(v bool) {
	h.mu.Lock()
	h.FeedConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastTickTime(t time.Time) {
	h.mu.Lock()
	h.LastTickTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisEnabled(v bool) {
	h.mu.Lock()
	h.RedisEnabled = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteEnabled(v bool) {
	h.mu.Lock()
	h.SQLiteEnabled = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetStrategies(names []string) {
	h.mu.Lock()
	h.Strategies = append([]string(nil), names...)
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb goredis.UniversalClient) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the database and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// RunLivenessChecker probes the given dependencies every interval until ctx
// is done. Nil dependencies are skipped.
func (h *HealthStatus) RunLivenessChecker(ctx context.Context, rdb goredis.UniversalClient, sqlDB *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			if rdb != nil {
				h.CheckRedis(probeCtx, rdb)
			}
			if sqlDB != nil {
				h.CheckSQLite(probeCtx, sqlDB)
			}
			cancel()
		}
	}
}

// Status reports "healthy", "degraded" or "unhealthy" from the enabled
// components.
func (h *HealthStatus) Status() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.statusLocked()
}

func (h *HealthStatus) statusLocked() string {
	feedDown := h.Mode == "live" && !h.FeedConnected
	redisDown := h.RedisEnabled && !h.RedisConnected
	sqliteDown := h.SQLiteEnabled && !h.SQLiteOK
	switch {
	case feedDown:
		return "unhealthy"
	case redisDown || sqliteDown:
		return "degraded"
	default:
		return "healthy"
	}
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := h.statusLocked()
	httpCode := http.StatusOK
	if overallStatus != "healthy" {
		httpCode = http.StatusServiceUnavailable
	}

	tickAge := ""
	lastTick := ""
	if !h.LastTickTime.IsZero() {
		tickAge = time.Since(h.LastTickTime).Round(time.Millisecond).String()
		lastTick = h.LastTickTime.Format(time.RFC3339)
	}

	status := struct {
		Status          string   `json:"status"`
		Mode            string   `json:"mode"`
		Uptime          string   `json:"uptime"`
		FeedConnected   bool     `json:"feed_connected"`
		LastTickTime    string   `json:"last_tick_time"`
		TickAge         string   `json:"tick_age"`
		RedisEnabled    bool     `json:"redis_enabled"`
		RedisConnected  bool     `json:"redis_connected"`
		RedisLatencyMs  float64  `json:"redis_latency_ms"`
		SQLiteEnabled   bool     `json:"sqlite_enabled"`
		SQLiteOK        bool     `json:"sqlite_ok"`
		SQLiteLatencyMs float64  `json:"sqlite_latency_ms"`
		Strategies      []string `json:"strategies"`
	}{
		Status:          overallStatus,
		Mode:            h.Mode,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		FeedConnected:   h.FeedConnected,
		LastTickTime:    lastTick,
		TickAge:         tickAge,
		RedisEnabled:    h.RedisEnabled,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteEnabled:   h.SQLiteEnabled,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		Strategies:      h.Strategies,
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}
