package indicator

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"barfeed/internal/model"
)

// TypicalPrice returns (high+low+close)/3 per bar.
func TypicalPrice(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = (b.High + b.Low + b.Close) / 3
	}
	return out
}

// CCI returns the commodity channel index for every window of period bars
// ending at i: (tp[i] - mean(tp)) / (0.015 * meanAbsDev(tp)). A window with
// zero mean deviation yields NaN or ±Inf.
func CCI(bars []model.Bar, period int) ([]float64, error) {
	if err := requirePeriod("CCI", period); err != nil {
		return nil, err
	}
	if err := requireLen("CCI", len(bars), period); err != nil {
		return nil, err
	}

	tp := TypicalPrice(bars)
	out := make([]float64, 0, len(tp)-period+1)
	for i := period - 1; i < len(tp); i++ {
		w := tp[i-period+1 : i+1]
		mean := stat.Mean(w, nil)
		var dev float64
		for _, v := range w {
			dev += math.Abs(v - mean)
		}
		dev /= float64(period)
		out = append(out, (tp[i]-mean)/(0.015*dev))
	}
	return out, nil
}
