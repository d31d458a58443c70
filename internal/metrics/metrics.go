// Package metrics exposes Prometheus metrics and a health endpoint for the
// bar feed.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the bar pipeline.
type Metrics struct {
	BarsAppended     *prometheus.CounterVec // labels: period
	Evictions        *prometheus.CounterVec // labels: period
	SubscriberFaults *prometheus.CounterVec // labels: subscriber
	DispatchDur      prometheus.Histogram

	// Ingestion
	MalformedRecords *prometheus.CounterVec // labels: source
	TradesReceived   prometheus.Counter
	FeedConnected    prometheus.Gauge // 0=down, 1=connected
	FeedDisconnects  prometheus.Counter

	// Redis tick publisher
	RedisPublishes           prometheus.Counter
	RedisSkipped             prometheus.Counter
	RedisPublishDur          prometheus.Histogram
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter

	// Strategies
	StrategyEvalDur *prometheus.HistogramVec // labels: strategy
}

// NewMetrics creates all metrics and registers them with reg. A nil reg
// registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		BarsAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "barfeed_bars_appended_total",
			Help: "Bars appended to the store (by period)",
		}, []string{"period"}),
		Evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "barfeed_bars_evicted_total",
			Help: "Bars evicted by the retention policy (by period)",
		}, []string{"period"}),
		SubscriberFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "barfeed_subscriber_faults_total",
			Help: "Subscriber callbacks that returned an error or panicked",
		}, []string{"subscriber"}),
		DispatchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "barfeed_dispatch_duration_seconds",
			Help:    "Append plus synchronous dispatch latency per bar",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),

		MalformedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "barfeed_malformed_records_total",
			Help: "Rows or messages skipped because they could not be decoded",
		}, []string{"source"}),
		TradesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "barfeed_trades_received_total",
			Help: "Trade events received from the live feed",
		}),
		FeedConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "barfeed_feed_connected",
			Help: "Live feed connection state (0=down, 1=connected)",
		}),
		FeedDisconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "barfeed_feed_disconnects_total",
			Help: "Live feed connections lost",
		}),

		RedisPublishes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "barfeed_redis_publishes_total",
			Help: "Ticks published to Redis",
		}),
		RedisSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "barfeed_redis_skipped_total",
			Help: "Ticks not published because the circuit breaker was open",
		}),
		RedisPublishDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "barfeed_redis_publish_duration_seconds",
			Help:    "Redis PUBLISH latency",
			Buckets: prometheus.DefBuckets,
		}),
		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "barfeed_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "barfeed_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),

		StrategyEvalDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "barfeed_strategy_eval_duration_seconds",
			Help:    "Indicator evaluation latency per strategy tick",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}, []string{"strategy"}),
	}

	reg.MustRegister(
		m.BarsAppended,
		m.Evictions,
		m.SubscriberFaults,
		m.DispatchDur,
		m.MalformedRecords,
		m.TradesReceived,
		m.FeedConnected,
		m.FeedDisconnects,
		m.RedisPublishes,
		m.RedisSkipped,
		m.RedisPublishDur,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
		m.StrategyEvalDur,
	)

	return m
}
