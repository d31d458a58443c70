package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barfeed/internal/logger"
	"barfeed/internal/metrics"
	"barfeed/internal/model"
)

type published struct {
	channel string
	payload []byte
}

type fakeClient struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakeClient) Publish(_ context.Context, channel string, message interface{}) *goredis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return goredis.NewIntResult(0, f.err)
	}
	f.msgs = append(f.msgs, published{channel: channel, payload: message.([]byte)})
	return goredis.NewIntResult(1, nil)
}

func TestPublisher_PublishesTick(t *testing.T) {
	fc := &fakeClient{}
	m := metrics.NewMetrics(prometheus.NewRegistry())
	p := NewPublisher(fc, PublisherConfig{Symbol: "AUDUSD"}, m)

	ctx := logger.WithTraceID(context.Background(), "1m-t1")
	tick := model.Tick{Period: model.Period1m, Bar: model.Bar{Timestamp: "t1", Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 3}}
	require.NoError(t, p.Handle(ctx, tick))

	require.Len(t, fc.msgs, 1)
	assert.Equal(t, "tick:AUDUSD:1m", fc.msgs[0].channel)

	var msg tickMessage
	require.NoError(t, json.Unmarshal(fc.msgs[0].payload, &msg))
	assert.Equal(t, tickMessage{Symbol: "AUDUSD", Period: model.Period1m, Bar: tick.Bar, TraceID: "1m-t1"}, msg)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RedisPublishes))
}

func TestPublisher_BreakerSkipsWhenOpen(t *testing.T) {
	fc := &fakeClient{err: errors.New("connection refused")}
	m := metrics.NewMetrics(prometheus.NewRegistry())
	p := NewPublisher(fc, PublisherConfig{Symbol: "S", ChannelPrefix: "bars", MaxFailures: 2, ResetTimeout: time.Hour}, m)
	assert.Equal(t, "bars:S:5m", p.Channel(model.Period5m))

	ctx := context.Background()
	tick := model.Tick{Period: model.Period5m, Bar: model.Bar{Timestamp: "t"}}
	assert.Error(t, p.Handle(ctx, tick))
	assert.Error(t, p.Handle(ctx, tick))
	assert.Equal(t, StateOpen, p.Breaker().CurrentState())

	// Open breaker: skipped, not a fault.
	assert.NoError(t, p.Handle(ctx, tick))
	assert.NoError(t, p.Handle(ctx, tick))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RedisSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RedisCircuitBreakerTrips))
	assert.Equal(t, float64(StateOpen), testutil.ToFloat64(m.RedisCircuitBreakerState))
}

func TestPublisher_NaNBarIsMalformed(t *testing.T) {
	fc := &fakeClient{}
	p := NewPublisher(fc, PublisherConfig{Symbol: "S"}, nil)
	err := p.Handle(context.Background(), model.Tick{Period: model.Period1m, Bar: model.Bar{Close: math.NaN()}})
	assert.True(t, errors.Is(err, model.ErrMalformedRecord))
	assert.Empty(t, fc.msgs)
}
