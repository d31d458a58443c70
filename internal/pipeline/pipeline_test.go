package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barfeed/internal/metrics"
	"barfeed/internal/model"
)

func TestPipeline_AppendDispatchesInOrder(t *testing.T) {
	p := New(Config{})
	var got []string
	p.Subscribe("rec", func(_ context.Context, tick model.Tick) error {
		got = append(got, tick.Bar.Timestamp)
		return nil
	})

	ctx := context.Background()
	require.NoError(t, p.Append(ctx, model.Period1m, model.Bar{Timestamp: "a"}))
	require.NoError(t, p.Append(ctx, model.Period1m, model.Bar{Timestamp: "b"}))

	assert.Equal(t, []string{"a", "b"}, got)
	all, err := p.All(model.Period1m)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPipeline_SubscriberSeesItsOwnBarInHistory(t *testing.T) {
	p := New(Config{})
	var lastLen int
	p.Subscribe("reader", func(_ context.Context, tick model.Tick) error {
		h, err := p.History(tick.Period, 10)
		lastLen = len(h)
		return err
	})
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Append(context.Background(), model.Period5m, model.Bar{}))
	}
	assert.Equal(t, 3, lastLen)
}

func TestPipeline_Metrics(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	h := metrics.NewHealthStatus("replay")
	p := New(Config{Retention: 2, Metrics: m, Health: h})

	p.Subscribe("bad", func(context.Context, model.Tick) error { return errors.New("boom") })
	p.Subscribe("panics", func(context.Context, model.Tick) error { panic("kaboom") })
	var ok int
	p.Subscribe("good", func(context.Context, model.Tick) error { ok++; return nil })

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Append(ctx, model.Period1h, model.Bar{}))
	}

	assert.Equal(t, 3, ok)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.BarsAppended.WithLabelValues("1h")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Evictions.WithLabelValues("1h")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SubscriberFaults.WithLabelValues("bad")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SubscriberFaults.WithLabelValues("panics")))
	assert.Equal(t, 2, p.Store().Len(model.Period1h))
	assert.False(t, h.LastTickTime.IsZero())
}

func TestPipeline_InvalidPeriodNotDispatched(t *testing.T) {
	p := New(Config{})
	called := false
	p.Subscribe("rec", func(context.Context, model.Tick) error { called = true; return nil })

	err := p.Append(context.Background(), model.Period("3m"), model.Bar{})
	assert.True(t, errors.Is(err, model.ErrInvalidPeriod))
	assert.False(t, called)
}

func TestPipeline_IndependentInstances(t *testing.T) {
	a, b := New(Config{}), New(Config{})
	require.NoError(t, a.Append(context.Background(), model.Period1d, model.Bar{}))
	assert.Equal(t, 1, a.Store().Len(model.Period1d))
	assert.Equal(t, 0, b.Store().Len(model.Period1d))
	assert.Equal(t, 0, b.Dispatcher().Len())
}
