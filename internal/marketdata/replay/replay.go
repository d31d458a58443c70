// Package replay drives a finished historical sequence through a sink one bar
// at a time. Each Append dispatches synchronously before the next bar is
// read, so a replay is fully deterministic.
package replay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"barfeed/internal/model"
)

// Replayer appends every bar produced by Loader under Period.
type Replayer struct {
	Loader model.BarLoader
	Period model.Period

	// Delay paces the replay between bars; 0 replays as fast as possible.
	Delay time.Duration
}

// Result summarises a replay run.
type Result struct {
	Loaded   int
	Appended int
	Elapsed  time.Duration
}

// Run loads the whole sequence, then appends it in order. Cancellation is
// checked between bars, never during one.
func (r *Replayer) Run(ctx context.Context, sink model.BarSink) (Result, error) {
	if !r.Period.Valid() {
		return Result{}, fmt.Errorf("replay: %q: %w", r.Period, model.ErrInvalidPeriod)
	}
	start := time.Now()

	bars, err := r.Loader.Load(ctx)
	if err != nil {
		return Result{}, err
	}
	res := Result{Loaded: len(bars)}

	if len(bars) == 0 {
		slog.Info("nothing to replay", "component", "replay", "period", r.Period)
		return res, nil
	}
	slog.Info("replay started", "component", "replay", "bars", len(bars), "period", r.Period, "delay", r.Delay)

	for i, b := range bars {
		if err := ctx.Err(); err != nil {
			slog.Info("replay cancelled", "component", "replay", "appended", res.Appended)
			res.Elapsed = time.Since(start)
			return res, err
		}

		if r.Delay > 0 && i > 0 {
			select {
			case <-ctx.Done():
				res.Elapsed = time.Since(start)
				return res, ctx.Err()
			case <-time.After(r.Delay):
			}
		}

		if err := sink.Append(ctx, r.Period, b); err != nil {
			res.Elapsed = time.Since(start)
			return res, err
		}
		res.Appended++
	}

	res.Elapsed = time.Since(start)
	slog.Info("replay completed", "component", "replay", "appended", res.Appended, "elapsed", res.Elapsed)
	return res, nil
}
