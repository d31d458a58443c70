package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"barfeed/internal/metrics"
	"barfeed/internal/model"
	"barfeed/internal/notification"
	"barfeed/internal/pipeline"
	redisstore "barfeed/internal/store/redis"
	"barfeed/internal/strategy"
)

// runtime is one wired pipeline with its strategies and optional publisher.
type runtime struct {
	reg        *prometheus.Registry
	metrics    *metrics.Metrics
	health     *metrics.HealthStatus
	pipe       *pipeline.Pipeline
	strategies []strategy.Strategy
	publisher  *redisstore.Publisher
	redis      *goredis.Client
	sqlDB      *sql.DB
	closers    []func() error
}

func (a *app) newRuntime(mode string) (*runtime, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)
	h := metrics.NewHealthStatus(mode)

	p := pipeline.New(pipeline.Config{
		Retention: a.cfg.MaxBarsPerPeriod,
		Metrics:   m,
		Health:    h,
	})

	registry := strategy.NewDefaultRegistry()
	if s, ok := registry.Get("sma_crossover"); ok {
		s.(*strategy.SMACrossover).Notifier = a.notifier()
	}
	attached, err := registry.Attach(p, a.strategyNames(), m)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(attached))
	for i, s := range attached {
		names[i] = s.Name()
	}
	h.SetStrategies(names)
	if len(names) > 0 {
		a.log.Info("strategies attached", "strategies", strings.Join(names, ","))
	}

	return &runtime{reg: reg, metrics: m, health: h, pipe: p, strategies: attached}, nil
}

func (a *app) notifier() notification.Notifier {
	if a.cfg.AlertWebhookURL != "" {
		return notification.NewWebhookNotifier(a.cfg.AlertWebhookURL)
	}
	return notification.NewLogNotifier()
}

// primary returns the first attached strategy, if any. Its symbol and period
// select the live feed when no flag names one.
func (r *runtime) primary() strategy.Strategy {
	if len(r.strategies) == 0 {
		return nil
	}
	return r.strategies[0]
}

// attachRedis subscribes a Redis publisher when REDIS_ADDR is set.
func (a *app) attachRedis(ctx context.Context, r *runtime, symbol string) error {
	if a.cfg.RedisAddr == "" {
		return nil
	}
	r.health.SetRedisEnabled(true)
	cfg := redisstore.PublisherConfig{
		Addr:          a.cfg.RedisAddr,
		Password:      a.cfg.RedisPassword,
		ChannelPrefix: a.cfg.RedisChannelPrefix,
		Symbol:        symbol,
	}
	client, err := redisstore.Dial(ctx, cfg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	r.health.SetRedisConnected(true)
	r.redis = client
	r.closers = append(r.closers, client.Close)

	r.publisher = redisstore.NewPublisher(client, cfg, r.metrics)
	r.pipe.Subscribe("redis", r.publisher.Handle)
	a.log.Info("redis publisher attached", "addr", a.cfg.RedisAddr, "prefix", a.cfg.RedisChannelPrefix)
	return nil
}

// recorder returns a subscriber forwarding ticks to ch. A full channel drops
// the tick rather than stall dispatch.
func recorder(ch chan<- model.Tick, log *slog.Logger) func(context.Context, model.Tick) error {
	return func(_ context.Context, tick model.Tick) error {
		select {
		case ch <- tick:
		default:
			log.Warn("recorder channel full, dropping bar", "period", tick.Period, "ts", tick.Bar.Timestamp)
		}
		return nil
	}
}

// redisClient keeps a missing client a nil interface.
func (r *runtime) redisClient() goredis.UniversalClient {
	if r.redis == nil {
		return nil
	}
	return r.redis
}

func (r *runtime) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		_ = r.closers[i]()
	}
}
