package indicator

import (
	"gonum.org/v1/gonum/floats"

	"barfeed/internal/model"
)

// StochasticResult holds %K and its 3-period SMA %D.
type StochasticResult struct {
	K []float64 `json:"k"`
	D []float64 `json:"d"`
}

// StochasticOscillator computes %K = (close - lowest low) / (highest high -
// lowest low) * 100 for every window of period bars ending at i, and %D as
// SMA(3) of %K. A flat window yields NaN or ±Inf. Because %D needs three %K
// values, at least period+2 bars are required.
func StochasticOscillator(bars []model.Bar, period int) (StochasticResult, error) {
	if err := requirePeriod("StochasticOscillator", period); err != nil {
		return StochasticResult{}, err
	}
	if err := requireLen("StochasticOscillator", len(bars), period+2); err != nil {
		return StochasticResult{}, err
	}

	h, l := highs(bars), lows(bars)
	k := make([]float64, 0, len(bars)-period+1)
	for i := period - 1; i < len(bars); i++ {
		hi := floats.Max(h[i-period+1 : i+1])
		lo := floats.Min(l[i-period+1 : i+1])
		k = append(k, (bars[i].Close-lo)/(hi-lo)*100)
	}

	d, err := smaOf("StochasticOscillator %D", k, 3)
	if err != nil {
		return StochasticResult{}, err
	}
	return StochasticResult{K: k, D: d}, nil
}
