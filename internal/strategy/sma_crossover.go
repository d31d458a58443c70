package strategy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"barfeed/internal/indicator"
	"barfeed/internal/logger"
	"barfeed/internal/model"
	"barfeed/internal/notification"
)

// Cross is the direction of a fast/slow SMA crossover.
type Cross int

const (
	NoCross Cross = iota
	CrossUp
	CrossDown
)

func (c Cross) String() string {
	switch c {
	case CrossUp:
		return "up"
	case CrossDown:
		return "down"
	}
	return "none"
}

// SMACrossover reports when the fast SMA crosses the slow SMA.
type SMACrossover struct {
	symbol string
	period model.Period
	fast   int
	slow   int

	// Notifier, when set, receives an alert for every crossover.
	Notifier notification.Notifier

	mu      sync.RWMutex
	last    Cross
	crosses int
}

// NewSMACrossover creates a crossover watcher. fast must be below slow.
func NewSMACrossover(symbol string, period model.Period, fast, slow int) (*SMACrossover, error) {
	if fast <= 0 || slow <= fast {
		return nil, model.ErrInvalidParameter
	}
	return &SMACrossover{symbol: symbol, period: period, fast: fast, slow: slow}, nil
}

func (s *SMACrossover) Name() string         { return "sma_crossover" }
func (s *SMACrossover) Label() string        { return "SMA Crossover" }
func (s *SMACrossover) Symbol() string       { return s.symbol }
func (s *SMACrossover) Period() model.Period { return s.period }

// Last returns the cross seen on the latest tick.
func (s *SMACrossover) Last() Cross {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Crosses returns the number of crossovers seen so far.
func (s *SMACrossover) Crosses() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.crosses
}

// OnTick implements Strategy.
func (s *SMACrossover) OnTick(ctx context.Context, tick model.Tick, h History) error {
	// One bar more than the slow window yields two aligned points.
	bars, err := h.History(s.period, s.slow+1)
	if err != nil {
		return err
	}
	fast, err := indicator.SMA(bars, s.fast)
	if err == nil {
		var slow []float64
		slow, err = indicator.SMA(bars, s.slow)
		if err == nil && len(slow) < 2 {
			err = model.ErrInsufficientData
		}
		if err == nil {
			fast = fast[len(fast)-len(slow):]
			cross := detect(fast[0], slow[0], fast[1], slow[1])
			return s.record(ctx, tick, cross, fast[1], slow[1])
		}
	}
	if errors.Is(err, model.ErrInsufficientData) {
		s.mu.Lock()
		s.last = NoCross
		s.mu.Unlock()
		return nil
	}
	return err
}

func detect(prevFast, prevSlow, fast, slow float64) Cross {
	switch {
	case prevFast <= prevSlow && fast > slow:
		return CrossUp
	case prevFast >= prevSlow && fast < slow:
		return CrossDown
	}
	return NoCross
}

func (s *SMACrossover) record(ctx context.Context, tick model.Tick, cross Cross, fast, slow float64) error {
	s.mu.Lock()
	s.last = cross
	if cross != NoCross {
		s.crosses++
	}
	s.mu.Unlock()

	if cross == NoCross {
		return nil
	}
	slog.Info("sma crossover", append(logger.LogWithTrace(ctx),
		"strategy", s.Name(), "direction", cross.String(),
		"ts", tick.Bar.Timestamp, "fast", fast, "slow", slow)...)

	if s.Notifier == nil {
		return nil
	}
	alert := notification.Alert{
		Level:     notification.AlertInfo,
		Strategy:  s.Name(),
		Symbol:    s.symbol,
		Period:    tick.Period,
		Timestamp: tick.Bar.Timestamp,
		Title:     "sma crossover " + cross.String(),
		Message:   fmt.Sprintf("SMA%d %.6g crossed %s SMA%d %.6g", s.fast, fast, cross, s.slow, slow),
	}
	if err := s.Notifier.Send(ctx, alert); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}
