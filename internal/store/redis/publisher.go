// Package redis republishes appended ticks on Redis pub/sub so processes
// outside the pipeline can follow the feed. Calls go through a circuit
// breaker; while it is open ticks are skipped, never queued.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"barfeed/internal/logger"
	"barfeed/internal/metrics"
	"barfeed/internal/model"
)

// PublisherConfig configures the Redis tick publisher.
type PublisherConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int

	// ChannelPrefix defaults to "tick"; channels are {prefix}:{symbol}:{period}.
	ChannelPrefix string
	Symbol        string

	// Timeout bounds each PUBLISH. Defaults to 500ms.
	Timeout time.Duration

	MaxFailures  int           // defaults to 5
	ResetTimeout time.Duration // defaults to 10s
}

func (c *PublisherConfig) defaults() {
	if c.ChannelPrefix == "" {
		c.ChannelPrefix = "tick"
	}
	if c.Timeout == 0 {
		c.Timeout = 500 * time.Millisecond
	}
	if c.MaxFailures == 0 {
		c.MaxFailures = 5
	}
	if c.ResetTimeout == 0 {
		c.ResetTimeout = 10 * time.Second
	}
}

// PublishClient is the subset of the go-redis client the publisher needs.
type PublishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

// Dial connects to Redis and pings the server.
func Dial(ctx context.Context, cfg PublisherConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	slog.Info("connected", "component", "redis", "addr", cfg.Addr)
	return client, nil
}

// tickMessage is the JSON payload of every published tick.
type tickMessage struct {
	Symbol  string       `json:"symbol"`
	Period  model.Period `json:"period"`
	Bar     model.Bar    `json:"bar"`
	TraceID string       `json:"trace_id,omitempty"`
}

// Publisher is a tick subscriber that PUBLISHes every tick to Redis.
type Publisher struct {
	client  PublishClient
	cfg     PublisherConfig
	breaker *CircuitBreaker
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewPublisher creates a publisher over client. m may be nil.
func NewPublisher(client PublishClient, cfg PublisherConfig, m *metrics.Metrics) *Publisher {
	cfg.defaults()
	p := &Publisher{
		client:  client,
		cfg:     cfg,
		breaker: NewCircuitBreaker(cfg.MaxFailures, cfg.ResetTimeout),
		metrics: m,
		log:     slog.With("component", "redis", "symbol", cfg.Symbol),
	}
	p.breaker.OnStateChange = func(from, to State) {
		p.log.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
		if m != nil {
			m.RedisCircuitBreakerState.Set(float64(to))
			if to == StateOpen {
				m.RedisCircuitBreakerTrips.Inc()
			}
		}
	}
	return p
}

// Channel returns the pub/sub channel for period.
func (p *Publisher) Channel(period model.Period) string {
	return p.cfg.ChannelPrefix + ":" + p.cfg.Symbol + ":" + string(period)
}

// Breaker exposes the publisher's circuit breaker.
func (p *Publisher) Breaker() *CircuitBreaker { return p.breaker }

// Handle publishes tick. It has the bus.Handler signature. A skipped publish
// (breaker open) is not an error; a failed one is.
func (p *Publisher) Handle(ctx context.Context, tick model.Tick) error {
	payload, err := json.Marshal(tickMessage{
		Symbol:  p.cfg.Symbol,
		Period:  tick.Period,
		Bar:     tick.Bar,
		TraceID: logger.TraceID(ctx),
	})
	if err != nil {
		return fmt.Errorf("redis: encode tick %s: %v: %w", tick.Bar.Timestamp, err, model.ErrMalformedRecord)
	}

	start := time.Now()
	err = p.breaker.Execute(func() error {
		pubCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
		return p.client.Publish(pubCtx, p.Channel(tick.Period), payload).Err()
	})
	switch {
	case errors.Is(err, ErrCircuitOpen):
		if p.metrics != nil {
			p.metrics.RedisSkipped.Inc()
		}
		return nil
	case err != nil:
		return fmt.Errorf("redis publish: %w", err)
	}

	if p.metrics != nil {
		p.metrics.RedisPublishes.Inc()
		p.metrics.RedisPublishDur.Observe(time.Since(start).Seconds())
	}
	return nil
}
