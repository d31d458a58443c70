package indicator

import (
	"gonum.org/v1/gonum/floats"

	"barfeed/internal/model"
)

// EMA returns the exponential moving average of Close. The first value is the
// SMA of the first period closes; each following close i >= period applies
// (close - prev) * k + prev with k = 2/(period+1).
func EMA(bars []model.Bar, period int) ([]float64, error) {
	return emaOf("EMA", closes(bars), period)
}

// EMAOf is EMA over an arbitrary numeric series.
func EMAOf(values []float64, period int) ([]float64, error) {
	return emaOf("EMA", values, period)
}

func emaOf(name string, values []float64, period int) ([]float64, error) {
	if err := requirePeriod(name, period); err != nil {
		return nil, err
	}
	if err := requireLen(name, len(values), period); err != nil {
		return nil, err
	}

	k := 2.0 / float64(period+1)
	prev := floats.Sum(values[:period]) / float64(period)

	out := make([]float64, 0, len(values)-period+1)
	out = append(out, prev)
	for _, v := range values[period:] {
		prev = (v-prev)*k + prev
		out = append(out, prev)
	}
	return out, nil
}
