package strategy

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"barfeed/internal/indicator"
	"barfeed/internal/logger"
	"barfeed/internal/model"
)

// DefaultLookback is how many recent bars BasicEMA evaluates per tick.
const DefaultLookback = 50

// Snapshot holds the latest value of every indicator BasicEMA computes.
// Indicators still short of data are listed in Pending and left at 0.
type Snapshot struct {
	Timestamp string   `json:"timestamp"`
	Bars      int      `json:"bars"`
	Pending   []string `json:"pending,omitempty"`

	SMA       float64 `json:"sma"`
	EMA       float64 `json:"ema"`
	RSI       float64 `json:"rsi"`
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
	BBUpper   float64 `json:"bb_upper"`
	BBMiddle  float64 `json:"bb_middle"`
	BBLower   float64 `json:"bb_lower"`
	StochK    float64 `json:"stoch_k"`
	StochD    float64 `json:"stoch_d"`
	ATR       float64 `json:"atr"`
}

// BasicEMA evaluates a fixed indicator set over the last Lookback bars on
// every tick and logs the latest values.
type BasicEMA struct {
	symbol   string
	period   model.Period
	Lookback int

	mu   sync.RWMutex
	last Snapshot
	seen int
}

// NewBasicEMA creates the strategy for AUDUSD on 1m bars.
func NewBasicEMA() *BasicEMA {
	return &BasicEMA{symbol: "AUDUSD", period: model.Period1m, Lookback: DefaultLookback}
}

func (s *BasicEMA) Name() string         { return "basic_ema" }
func (s *BasicEMA) Label() string        { return "Basic Exponential Moving Average Strategy" }
func (s *BasicEMA) Symbol() string       { return s.symbol }
func (s *BasicEMA) Period() model.Period { return s.period }

// Snapshot returns the values computed on the latest tick.
func (s *BasicEMA) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.last
	snap.Pending = append([]string(nil), s.last.Pending...)
	return snap
}

// Ticks returns how many ticks the strategy has evaluated.
func (s *BasicEMA) Ticks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seen
}

func last(xs []float64) float64 { return xs[len(xs)-1] }

// OnTick implements Strategy.
func (s *BasicEMA) OnTick(ctx context.Context, tick model.Tick, h History) error {
	bars, err := h.History(s.period, s.Lookback)
	if err != nil {
		return err
	}

	snap := Snapshot{Timestamp: tick.Bar.Timestamp, Bars: len(bars)}
	// pending records indicators still waiting for data; anything else fails the tick.
	pending := func(name string, err error) error {
		if errors.Is(err, model.ErrInsufficientData) {
			snap.Pending = append(snap.Pending, name)
			return nil
		}
		return err
	}

	if v, err := indicator.SMA(bars, 14); err == nil {
		snap.SMA = last(v)
	} else if err := pending("sma", err); err != nil {
		return err
	}
	if v, err := indicator.EMA(bars, 14); err == nil {
		snap.EMA = last(v)
	} else if err := pending("ema", err); err != nil {
		return err
	}
	if v, err := indicator.RSI(bars, 14); err == nil && len(v) == 0 {
		// Exactly 14 bars close no RSI window yet.
		snap.Pending = append(snap.Pending, "rsi")
	} else if err == nil {
		snap.RSI = last(v)
	} else if err := pending("rsi", err); err != nil {
		return err
	}
	if v, err := indicator.MACD(bars, 9, 26, 14); err == nil {
		// The three lines are index aligned; Signal is the shortest.
		j := len(v.Signal) - 1
		snap.MACD, snap.Signal, snap.Histogram = v.MACD[j], v.Signal[j], v.Histogram[j]
	} else if err := pending("macd", err); err != nil {
		return err
	}
	if v, err := indicator.BollingerBands(bars, 14, 2); err == nil {
		snap.BBUpper, snap.BBMiddle, snap.BBLower = last(v.Upper), last(v.Middle), last(v.Lower)
	} else if err := pending("bollinger", err); err != nil {
		return err
	}
	if v, err := indicator.StochasticOscillator(bars, 14); err == nil {
		snap.StochK, snap.StochD = last(v.K), last(v.D)
	} else if err := pending("stochastic", err); err != nil {
		return err
	}
	if v, err := indicator.ATR(bars, 14); err == nil {
		snap.ATR = last(v)
	} else if err := pending("atr", err); err != nil {
		return err
	}

	s.mu.Lock()
	s.last = snap
	s.seen++
	s.mu.Unlock()

	attrs := append(logger.LogWithTrace(ctx),
		"strategy", s.Name(), "bars", snap.Bars, "close", tick.Bar.Close)
	if len(snap.Pending) > 0 {
		slog.Debug("waiting for data", append(attrs, "pending", snap.Pending)...)
		return nil
	}
	slog.Info("indicators",
		append(attrs,
			"sma14", snap.SMA, "ema14", snap.EMA, "rsi14", snap.RSI,
			"macd", snap.MACD, "signal", snap.Signal, "histogram", snap.Histogram,
			"bb_upper", snap.BBUpper, "bb_middle", snap.BBMiddle, "bb_lower", snap.BBLower,
			"stoch_k", snap.StochK, "stoch_d", snap.StochD, "atr14", snap.ATR)...)
	return nil
}
