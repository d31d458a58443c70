package indicator

import (
	"fmt"

	"barfeed/internal/model"
)

// MACDResult holds the three MACD lines. MACD and Histogram share the length
// of the short EMA; Signal is shorter and Histogram is 0 past its end.
type MACDResult struct {
	MACD      []float64 `json:"macd"`
	Signal    []float64 `json:"signal"`
	Histogram []float64 `json:"histogram"`
}

// MACD computes macd[i] = EMA(short)[i] - EMA(long)[i] by index (0 where the
// long EMA has ended), the signal EMA over macd[long-short:], and the
// index-aligned histogram. It needs at least long bars, and enough macd values
// left after the offset to seed the signal EMA.
func MACD(bars []model.Bar, short, long, signal int) (MACDResult, error) {
	for _, p := range []int{short, long, signal} {
		if err := requirePeriod("MACD", p); err != nil {
			return MACDResult{}, err
		}
	}
	if short > long {
		return MACDResult{}, fmt.Errorf("indicator: MACD short %d > long %d: %w", short, long, model.ErrInvalidParameter)
	}
	if err := requireLen("MACD", len(bars), long); err != nil {
		return MACDResult{}, err
	}

	c := closes(bars)
	shortEMA, err := emaOf("MACD short EMA", c, short)
	if err != nil {
		return MACDResult{}, err
	}
	longEMA, err := emaOf("MACD long EMA", c, long)
	if err != nil {
		return MACDResult{}, err
	}

	line := make([]float64, len(shortEMA))
	for i, v := range shortEMA {
		if i < len(longEMA) {
			line[i] = v - longEMA[i]
		}
	}

	sig, err := emaOf("MACD signal", line[long-short:], signal)
	if err != nil {
		return MACDResult{}, err
	}

	hist := make([]float64, len(line))
	for i, v := range line {
		if i < len(sig) {
			hist[i] = v - sig[i]
		}
	}
	return MACDResult{MACD: line, Signal: sig, Histogram: hist}, nil
}
