package metrics

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.BarsAppended.WithLabelValues("1m").Add(3)
	m.SubscriberFaults.WithLabelValues("basic_ema").Inc()
	m.RedisSkipped.Inc()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.BarsAppended.WithLabelValues("1m")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubscriberFaults.WithLabelValues("basic_ema")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RedisSkipped))

	// A second set on a fresh registry must not collide.
	require.NotPanics(t, func() { NewMetrics(prometheus.NewRegistry()) })
}

func TestHealthStatus_Status(t *testing.T) {
	h := NewHealthStatus("replay")
	assert.Equal(t, "healthy", h.Status())

	h.SetRedisEnabled(true)
	assert.Equal(t, "degraded", h.Status())
	h.SetRedisConnected(true)
	assert.Equal(t, "healthy", h.Status())

	live := NewHealthStatus("live")
	assert.Equal(t, "unhealthy", live.Status())
	live.SetFeedConnected(true)
	assert.Equal(t, "healthy", live.Status())
}

func TestHealthStatus_ServeHTTP(t *testing.T) {
	h := NewHealthStatus("live")
	h.SetStrategies([]string{"basic_ema"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h.SetFeedConnected(true)
	h.SetLastTickTime(time.Now())
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "live", body["mode"])
	assert.NotEmpty(t, body["last_tick_time"])
	assert.Equal(t, []any{"basic_ema"}, body["strategies"])
}

func TestServer_Endpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.TradesReceived.Add(2)

	srv := NewServer(":0", NewHealthStatus("replay"), reg)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := new(strings.Builder)
	_, _ = io.Copy(buf, resp.Body)
	assert.Contains(t, buf.String(), "barfeed_trades_received_total 2")

	resp2, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	srv := NewServer("127.0.0.1:0", NewHealthStatus("replay"), prometheus.NewRegistry())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
