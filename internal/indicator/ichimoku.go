package indicator

import (
	"gonum.org/v1/gonum/floats"

	"barfeed/internal/model"
)

const (
	tenkanLen  = 9
	kijunLen   = 26
	spanBLen   = 52
	ichiShift  = 26
	ichiMinLen = spanBLen
)

// IchimokuResult holds the five Ichimoku lines. Each starts at its own offset
// into the input:
//
//	Tenkan  bar 8 onward, n-8 values
//	Kijun   bar 26 onward, n-26 values
//	SpanA   n-34 values, (Tenkan[j] + Kijun[j]) / 2 for j from 0
//	SpanB   bar 52 onward, n-52 values (empty at exactly 52 bars)
//	Chikou  Close with the last 26 bars dropped
type IchimokuResult struct {
	Tenkan []float64 `json:"tenkan"`
	Kijun  []float64 `json:"kijun"`
	SpanA  []float64 `json:"span_a"`
	SpanB  []float64 `json:"span_b"`
	Chikou []float64 `json:"chikou"`
}

func midpoint(h, l []float64, from, to int) float64 {
	return (floats.Max(h[from:to+1]) + floats.Min(l[from:to+1])) / 2
}

// IchimokuCloud computes the cloud over at least 52 bars.
func IchimokuCloud(bars []model.Bar) (IchimokuResult, error) {
	n := len(bars)
	if err := requireLen("IchimokuCloud", n, ichiMinLen); err != nil {
		return IchimokuResult{}, err
	}

	h, l := highs(bars), lows(bars)
	var res IchimokuResult

	res.Tenkan = make([]float64, 0, n-(tenkanLen-1))
	for i := tenkanLen - 1; i < n; i++ {
		res.Tenkan = append(res.Tenkan, midpoint(h, l, i-(tenkanLen-1), i))
	}

	// The 26-bar kijun window starts at bar 26, not bar 25.
	res.Kijun = make([]float64, 0, n-kijunLen)
	for i := kijunLen; i < n; i++ {
		res.Kijun = append(res.Kijun, midpoint(h, l, i-(kijunLen-1), i))
	}

	res.SpanA = make([]float64, 0, len(res.Tenkan)-ichiShift)
	for i := ichiShift; i < len(res.Tenkan); i++ {
		res.SpanA = append(res.SpanA, (res.Tenkan[i-ichiShift]+res.Kijun[i-ichiShift])/2)
	}

	res.SpanB = make([]float64, 0, n-spanBLen)
	for i := spanBLen; i < n; i++ {
		res.SpanB = append(res.SpanB, midpoint(h, l, i-(spanBLen-1), i))
	}

	res.Chikou = closes(bars[:n-ichiShift])
	return res, nil
}
