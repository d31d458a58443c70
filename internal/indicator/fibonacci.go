package indicator

import (
	"gonum.org/v1/gonum/floats"

	"barfeed/internal/model"
)

// FibonacciRatios are the retracement ratios, in output order.
var FibonacciRatios = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1}

// FibonacciResult is one set of retracement levels over the Close range.
type FibonacciResult struct {
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Levels []float64 `json:"levels"`
}

// FibonacciRetracement returns high - (high-low)*ratio for every ratio, where
// high and low span the Close of the entire input.
func FibonacciRetracement(bars []model.Bar) (FibonacciResult, error) {
	if err := requireLen("FibonacciRetracement", len(bars), 2); err != nil {
		return FibonacciResult{}, err
	}

	c := closes(bars)
	hi, lo := floats.Max(c), floats.Min(c)
	levels := make([]float64, len(FibonacciRatios))
	for i, r := range FibonacciRatios {
		levels[i] = hi - (hi-lo)*r
	}
	return FibonacciResult{High: hi, Low: lo, Levels: levels}, nil
}
