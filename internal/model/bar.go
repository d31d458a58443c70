package model

import (
	"fmt"
)

// Bar is one OHLCV sample. Timestamp is an opaque ordering key taken
// verbatim from the source (CSV column or feed trade time).
//
// low <= open, close <= high is not enforced; sources may violate it.
type Bar struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Period is the sampling granularity key under which bars are stored.
// It is never validated against the bar's own timestamp granularity.
type Period string

const (
	Period1m  Period = "1m"
	Period5m  Period = "5m"
	Period15m Period = "15m"
	Period1h  Period = "1h"
	Period4h  Period = "4h"
	Period1d  Period = "1d"
)

// Periods is the fixed closed set of store keys, in ascending granularity.
var Periods = []Period{Period1m, Period5m, Period15m, Period1h, Period4h, Period1d}

// Valid reports whether p belongs to the fixed set.
func (p Period) Valid() bool {
	switch p {
	case Period1m, Period5m, Period15m, Period1h, Period4h, Period1d:
		return true
	}
	return false
}

func (p Period) String() string { return string(p) }

// ParsePeriod converts s into a Period, failing with ErrInvalidPeriod.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if !p.Valid() {
		return "", fmt.Errorf("parse period %q: %w", s, ErrInvalidPeriod)
	}
	return p, nil
}

// Tick is the event delivered to subscribers each time a bar is appended.
type Tick struct {
	Period Period `json:"period"`
	Bar    Bar    `json:"bar"`
}
