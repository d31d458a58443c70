package indicator

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"barfeed/internal/model"
)

// BollingerResult holds the three bands, index-aligned with SMA(period).
type BollingerResult struct {
	Upper  []float64 `json:"upper"`
	Middle []float64 `json:"middle"`
	Lower  []float64 `json:"lower"`
}

// BollingerBands returns middle = SMA(period) and middle ± k·σ, where σ is the
// population standard deviation (divisor period) of the same window.
func BollingerBands(bars []model.Bar, period int, k float64) (BollingerResult, error) {
	c := closes(bars)
	middle, err := smaOf("BollingerBands", c, period)
	if err != nil {
		return BollingerResult{}, err
	}

	upper := make([]float64, len(middle))
	lower := make([]float64, len(middle))
	for i, m := range middle {
		sd := math.Sqrt(stat.PopVariance(c[i:i+period], nil))
		upper[i] = m + k*sd
		lower[i] = m - k*sd
	}
	return BollingerResult{Upper: upper, Middle: middle, Lower: lower}, nil
}
