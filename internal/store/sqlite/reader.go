package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"barfeed/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to stored bars.
type Reader struct {
	db   *sql.DB
	path string
}

// NewReader opens an existing database. A missing file fails with
// model.ErrSourceUnavailable.
func NewReader(dbPath string) (*Reader, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("sqlite: %s: %v: %w", dbPath, err, model.ErrSourceUnavailable)
	}
	db, err := sql.Open("sqlite3", dbPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %v: %w", err, model.ErrSourceUnavailable)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	slog.Info("database opened for reading", "component", "sqlite", "path", dbPath)
	return &Reader{db: db, path: dbPath}, nil
}

// DB returns the underlying sql.DB for health checks.
func (r *Reader) DB() *sql.DB { return r.db }

// ReadBars returns every bar stored for symbol and period in arrival order.
func (r *Reader) ReadBars(ctx context.Context, symbol string, period model.Period) ([]model.Bar, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("sqlite: %q: %w", period, model.ErrInvalidPeriod)
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND period = ?
		ORDER BY seq ASC
	`, symbol, string(period))
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars: %v: %w", err, model.ErrSourceUnavailable)
	}
	defer rows.Close()

	bars := []model.Bar{}
	for rows.Next() {
		var (
			b                       model.Bar
			open, high, low, cls, v sql.NullFloat64
		)
		if err := rows.Scan(&b.Timestamp, &open, &high, &low, &cls, &v); err != nil {
			return nil, fmt.Errorf("sqlite scan bars: %w", err)
		}
		b.Open, b.High, b.Low, b.Close, b.Volume = nullToNaN(open), nullToNaN(high), nullToNaN(low), nullToNaN(cls), nullToNaN(v)
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Count returns the number of bars stored for symbol and period.
func (r *Reader) Count(ctx context.Context, symbol string, period model.Period) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bars WHERE symbol = ? AND period = ?`, symbol, string(period),
	).Scan(&n)
	return n, err
}

// Close closes the database.
func (r *Reader) Close() error {
	return r.db.Close()
}

// Loader adapts a Reader to model.BarLoader for one symbol and period.
type Loader struct {
	Reader *Reader
	Symbol string
	Period model.Period
}

// Load reads all bars of the loader's series.
func (l *Loader) Load(ctx context.Context) ([]model.Bar, error) {
	return l.Reader.ReadBars(ctx, l.Symbol, l.Period)
}

var _ model.BarLoader = (*Loader)(nil)
