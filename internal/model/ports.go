package model

import "context"

// ── Ingestion Ports ──
// Adapters produce bars; the pipeline consumes them. Bars for a given
// period must be handed over in non-decreasing timestamp order.

// BarSink accepts bars from an ingestion adapter.
type BarSink interface {
	// Append stores bar under period and synchronously notifies subscribers.
	Append(ctx context.Context, period Period, bar Bar) error
}

// BarLoader decodes a finite, already-complete historical sequence.
type BarLoader interface {
	// Load returns every decodable bar in source order.
	Load(ctx context.Context) ([]Bar, error)
}
