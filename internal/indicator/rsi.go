package indicator

import "barfeed/internal/model"

// RSI returns the relative strength index of the window c[i-period:i] for
// every i in [period, n), so the newest bar never ends a window and exactly
// period closes yield an empty result. Gains and losses are summed over the
// consecutive deltas inside the window. Zero total loss is treated as a loss
// of 1.
func RSI(bars []model.Bar, period int) ([]float64, error) {
	if err := requirePeriod("RSI", period); err != nil {
		return nil, err
	}
	if err := requireLen("RSI", len(bars), period); err != nil {
		return nil, err
	}

	c := closes(bars)
	out := make([]float64, 0, len(c)-period)
	for i := period; i < len(c); i++ {
		window := c[i-period : i]
		var gains, losses float64
		for j := 1; j < len(window); j++ {
			switch d := window[j] - window[j-1]; {
			case d > 0:
				gains += d
			case d < 0:
				losses -= d
			}
		}
		if losses == 0 {
			losses = 1
		}
		rs := gains / losses
		out = append(out, 100-100/(1+rs))
	}
	return out, nil
}
