// Package indicator computes technical indicators over bar sequences.
//
// Every function recomputes from its full input on each call and returns
// freshly allocated slices, so results never alias the caller's bars. Input
// shorter than an indicator's minimum fails with model.ErrInsufficientData and
// produces no partial output. ParabolicSAR is the only stateful component.
//
// Flat-range Stochastic and zero-deviation CCI are not guarded: the IEEE-754
// NaN/Inf values they produce are returned as-is.
package indicator

import (
	"fmt"

	"barfeed/internal/model"
)

func closes(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func highs(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

func lows(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

func requirePeriod(name string, period int) error {
	if period <= 0 {
		return fmt.Errorf("indicator: %s period %d: %w", name, period, model.ErrInvalidParameter)
	}
	return nil
}

func requireLen(name string, n, min int) error {
	if n < min {
		return fmt.Errorf("indicator: %s needs %d values, got %d: %w", name, min, n, model.ErrInsufficientData)
	}
	return nil
}
