// Package strategy hosts subscribers that read bar history and indicator
// output on every tick. Strategies make no trading decisions here; they
// observe and report.
//
// Strategies are held by an explicit Registry and attached to a pipeline by
// name, so two pipelines never share strategy state.
package strategy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"barfeed/internal/marketdata/bus"
	"barfeed/internal/metrics"
	"barfeed/internal/model"
)

// History gives read access to stored bars.
type History interface {
	History(period model.Period, count int) ([]model.Bar, error)
}

// Host is what a strategy is attached to; *pipeline.Pipeline satisfies it.
type Host interface {
	History
	Subscribe(name string, handler bus.Handler) *bus.Subscription
}

// Strategy is the interface that all strategies must implement.
type Strategy interface {
	// Name returns the unique name used to select the strategy.
	Name() string

	// Label is a human readable description.
	Label() string

	// Symbol and Period select the feed the strategy wants.
	Symbol() string
	Period() model.Period

	// OnTick is called for every appended bar of Period().
	OnTick(ctx context.Context, tick model.Tick, h History) error
}

// Registry holds the strategies available to a run.
type Registry struct {
	strategies []Strategy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry returns a registry with the built-in strategies.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(NewBasicEMA())
	if x, err := NewSMACrossover("AUDUSD", model.Period1m, 9, 21); err == nil {
		_ = r.Register(x)
	}
	return r
}

// Register adds s. Names must be unique.
func (r *Registry) Register(s Strategy) error {
	if _, ok := r.Get(s.Name()); ok {
		return fmt.Errorf("strategy %q already registered", s.Name())
	}
	r.strategies = append(r.strategies, s)
	return nil
}

// Get looks a strategy up by name.
func (r *Registry) Get(name string) (Strategy, bool) {
	for _, s := range r.strategies {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.strategies))
	for _, s := range r.strategies {
		names = append(names, s.Name())
	}
	sort.Strings(names)
	return names
}

// Resolve returns the named strategies in the given order. An unknown name
// fails with an error listing the available ones.
func (r *Registry) Resolve(names []string) ([]Strategy, error) {
	out := make([]Strategy, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		s, ok := r.Get(n)
		if !ok {
			return nil, fmt.Errorf("strategy %q not found (available: %s)", n, strings.Join(r.Names(), ", "))
		}
		out = append(out, s)
	}
	return out, nil
}

// Attach subscribes each named strategy to host, in order. Every strategy
// only sees ticks of its own period. m may be nil.
func (r *Registry) Attach(host Host, names []string, m *metrics.Metrics) ([]Strategy, error) {
	resolved, err := r.Resolve(names)
	if err != nil {
		return nil, err
	}
	for _, s := range resolved {
		s := s
		host.Subscribe(s.Name(), func(ctx context.Context, tick model.Tick) error {
			if tick.Period != s.Period() {
				return nil
			}
			start := time.Now()
			err := s.OnTick(ctx, tick, host)
			if m != nil {
				m.StrategyEvalDur.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())
			}
			return err
		})
	}
	return resolved, nil
}
