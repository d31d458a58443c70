package model

import "errors"

// Error kinds shared across the pipeline. Call sites wrap these with
// fmt.Errorf("...: %w", ...) so callers can test with errors.Is.
//
// Flat-range Stochastic and zero-deviation CCI are not errors: they
// propagate IEEE-754 Inf/NaN values.
var (
	// ErrInsufficientData is returned by an indicator whose input is shorter
	// than its minimum. Callers should wait for more bars.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidParameter is returned for non-positive windows and similar
	// nonsensical indicator parameters.
	ErrInvalidParameter = errors.New("invalid indicator parameter")

	// ErrInvalidPeriod is returned when a period key outside the fixed set is used.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrSourceUnavailable means the historical file is missing or unreadable,
	// or the live connection could not be established or dropped.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedRecord marks a row or message that could not be decoded into a bar.
	ErrMalformedRecord = errors.New("malformed record")
)
