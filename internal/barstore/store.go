// Package barstore holds the per-period, append-only bar sequences of a
// pipeline. Every Append synchronously publishes the bar to subscribers.
package barstore

import (
	"context"
	"fmt"
	"sync"

	"barfeed/internal/logger"
	"barfeed/internal/model"
	"barfeed/internal/ringbuf"
)

// Publisher is notified of every appended bar. *bus.Dispatcher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, tick model.Tick) int
}

// Option configures a Store.
type Option func(*Store)

// WithRetention bounds every period to its newest n bars; older bars are
// evicted on append. n <= 0 keeps everything.
func WithRetention(n int) Option {
	return func(s *Store) { s.retention = n }
}

// WithEvictHook installs a callback invoked once per evicted bar.
func WithEvictHook(fn func(period model.Period)) Option {
	return func(s *Store) { s.onEvict = fn }
}

// series is one period's sequence. Exactly one of bars/ring is used.
type series struct {
	mu   sync.RWMutex
	bars []model.Bar
	ring *ringbuf.Ring
}

// Store maps each Period to its ordered bar sequence.
//
// Reads take the period's read lock and always return copies. Appends are
// serialised store-wide together with their publish, so dispatch is never
// concurrent with itself. Handlers may read the store but must not Append.
type Store struct {
	pub       Publisher
	retention int
	onEvict   func(period model.Period)

	series map[model.Period]*series

	// publishMu serialises append+publish across all periods.
	publishMu sync.Mutex
}

// New creates an empty store with one sequence per Period. pub may be nil.
func New(pub Publisher, opts ...Option) *Store {
	s := &Store{
		pub:    pub,
		series: make(map[model.Period]*series, len(model.Periods)),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, p := range model.Periods {
		sr := &series{}
		if s.retention > 0 {
			sr.ring = ringbuf.New(s.retention)
		}
		s.series[p] = sr
	}
	return s
}

// Retention returns the per-period bar limit, 0 when unbounded.
func (s *Store) Retention() int { return s.retention }

func (s *Store) get(period model.Period) (*series, error) {
	sr, ok := s.series[period]
	if !ok {
		return nil, fmt.Errorf("barstore: %q: %w", period, model.ErrInvalidPeriod)
	}
	return sr, nil
}

// Append adds bar to the end of period's sequence, then publishes it.
// No deduplication or ordering check is performed.
func (s *Store) Append(ctx context.Context, period model.Period, bar model.Bar) error {
	sr, err := s.get(period)
	if err != nil {
		return err
	}

	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	sr.mu.Lock()
	evicted := false
	if sr.ring != nil {
		evicted = sr.ring.Push(bar)
	} else {
		sr.bars = append(sr.bars, bar)
	}
	sr.mu.Unlock()

	if evicted && s.onEvict != nil {
		s.onEvict(period)
	}

	if s.pub != nil {
		ctx = logger.WithTraceID(ctx, logger.GenerateTraceID(period, bar.Timestamp))
		s.pub.Publish(ctx, model.Tick{Period: period, Bar: bar})
	}
	return nil
}

// All returns a copy of period's full history in arrival order. It is empty,
// never nil, when nothing has been appended.
func (s *Store) All(period model.Period) ([]model.Bar, error) {
	sr, err := s.get(period)
	if err != nil {
		return nil, err
	}
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	if sr.ring != nil {
		return sr.ring.Slice(), nil
	}
	out := make([]model.Bar, len(sr.bars))
	copy(out, sr.bars)
	return out, nil
}

// History returns a copy of the last count bars of period, or all of them
// when fewer are stored. count <= 0 yields an empty slice.
func (s *Store) History(period model.Period, count int) ([]model.Bar, error) {
	sr, err := s.get(period)
	if err != nil {
		return nil, err
	}
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	if sr.ring != nil {
		return sr.ring.Tail(count), nil
	}
	n := len(sr.bars)
	if count > n {
		count = n
	}
	if count <= 0 {
		return []model.Bar{}, nil
	}
	out := make([]model.Bar, count)
	copy(out, sr.bars[n-count:])
	return out, nil
}

// Len returns the number of bars held for period (0 for unknown periods).
func (s *Store) Len(period model.Period) int {
	sr, err := s.get(period)
	if err != nil {
		return 0
	}
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	if sr.ring != nil {
		return sr.ring.Len()
	}
	return len(sr.bars)
}

// Latest returns the newest bar of period.
func (s *Store) Latest(period model.Period) (model.Bar, bool) {
	sr, err := s.get(period)
	if err != nil {
		return model.Bar{}, false
	}
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	if sr.ring != nil {
		return sr.ring.Last()
	}
	if len(sr.bars) == 0 {
		return model.Bar{}, false
	}
	return sr.bars[len(sr.bars)-1], true
}
