package indicator

import (
	"math"

	"barfeed/internal/model"
)

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) for every
// bar after the first.
func TrueRange(bars []model.Bar) []float64 {
	if len(bars) < 2 {
		return []float64{}
	}
	out := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		out[i-1] = math.Max(bars[i].High-bars[i].Low,
			math.Max(math.Abs(bars[i].High-prev), math.Abs(bars[i].Low-prev)))
	}
	return out
}

// ATR is SMA(period) of the true range series. It needs period+1 bars.
func ATR(bars []model.Bar, period int) ([]float64, error) {
	if err := requirePeriod("ATR", period); err != nil {
		return nil, err
	}
	if err := requireLen("ATR", len(bars), period+1); err != nil {
		return nil, err
	}
	return smaOf("ATR", TrueRange(bars), period)
}
