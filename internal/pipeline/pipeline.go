// Package pipeline owns one BarStore and its TickDispatcher. Components that
// need either receive the *Pipeline explicitly; there is no process-wide
// instance, so independent pipelines can run side by side.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"barfeed/internal/barstore"
	"barfeed/internal/marketdata/bus"
	"barfeed/internal/metrics"
	"barfeed/internal/model"
)

// Config configures a Pipeline. The zero value is an unbounded, unmetered
// pipeline.
type Config struct {
	// Retention bounds each period to the newest Retention bars; 0 keeps all.
	Retention int
	Metrics   *metrics.Metrics
	Health    *metrics.HealthStatus
}

// Pipeline is the explicit context object of one ingestion run.
type Pipeline struct {
	cfg   Config
	disp  *bus.Dispatcher
	store *barstore.Store
	log   *slog.Logger
}

// New builds a dispatcher and a store publishing into it.
func New(cfg Config) *Pipeline {
	p := &Pipeline{
		cfg:  cfg,
		disp: bus.New(),
		log:  slog.With("component", "pipeline"),
	}
	p.disp.OnFault = p.onFault

	var opts []barstore.Option
	if cfg.Retention > 0 {
		opts = append(opts, barstore.WithRetention(cfg.Retention))
		if cfg.Metrics != nil {
			opts = append(opts, barstore.WithEvictHook(func(period model.Period) {
				cfg.Metrics.Evictions.WithLabelValues(period.String()).Inc()
			}))
		}
	}
	p.store = barstore.New(p.disp, opts...)
	return p
}

func (p *Pipeline) onFault(name string, err error) {
	p.log.Warn("subscriber fault", "subscriber", name, "error", err)
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.SubscriberFaults.WithLabelValues(name).Inc()
	}
}

// Append stores bar under period and dispatches it to every subscriber
// before returning. It satisfies model.BarSink.
func (p *Pipeline) Append(ctx context.Context, period model.Period, bar model.Bar) error {
	start := time.Now()
	if err := p.store.Append(ctx, period, bar); err != nil {
		return err
	}
	if m := p.cfg.Metrics; m != nil {
		m.BarsAppended.WithLabelValues(period.String()).Inc()
		m.DispatchDur.Observe(time.Since(start).Seconds())
	}
	if p.cfg.Health != nil {
		p.cfg.Health.SetLastTickTime(time.Now())
	}
	return nil
}

// Subscribe registers handler for every bar appended from now on.
func (p *Pipeline) Subscribe(name string, handler bus.Handler) *bus.Subscription {
	return p.disp.Subscribe(name, handler)
}

// Store returns the underlying bar store for read access.
func (p *Pipeline) Store() *barstore.Store { return p.store }

// Dispatcher returns the pipeline's tick dispatcher.
func (p *Pipeline) Dispatcher() *bus.Dispatcher { return p.disp }

// History returns a copy of the last count bars of period.
func (p *Pipeline) History(period model.Period, count int) ([]model.Bar, error) {
	return p.store.History(period, count)
}

// All returns a copy of period's full history.
func (p *Pipeline) All(period model.Period) ([]model.Bar, error) {
	return p.store.All(period)
}

var _ model.BarSink = (*Pipeline)(nil)
