package indicator

import (
	"gonum.org/v1/gonum/floats"

	"barfeed/internal/model"
)

// SMA returns the simple moving average of Close, one value per window start
// i in [0, n-period].
func SMA(bars []model.Bar, period int) ([]float64, error) {
	return smaOf("SMA", closes(bars), period)
}

// SMAOf is SMA over an arbitrary numeric series.
func SMAOf(values []float64, period int) ([]float64, error) {
	return smaOf("SMA", values, period)
}

func smaOf(name string, values []float64, period int) ([]float64, error) {
	if err := requirePeriod(name, period); err != nil {
		return nil, err
	}
	if err := requireLen(name, len(values), period); err != nil {
		return nil, err
	}

	out := make([]float64, 0, len(values)-period+1)
	for i := 0; i <= len(values)-period; i++ {
		out = append(out, floats.Sum(values[i:i+period])/float64(period))
	}
	return out, nil
}
