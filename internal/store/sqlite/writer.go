package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"barfeed/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultBatchSize  = 500
	defaultFlushDelay = 200 * time.Millisecond
)

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/bars.db"

	// BatchSize bounds rows per transaction. Defaults to 500.
	BatchSize int
}

// Writer is a single-connection SQLite writer with transaction batching.
type Writer struct {
	db        *sql.DB
	batchSize int
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// NewWriter opens (creating if needed) the database in WAL mode and ensures
// the schema exists.
func NewWriter(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	slog.Info("database opened", "component", "sqlite", "path", cfg.DBPath)
	return &Writer{db: db, batchSize: cfg.BatchSize}, nil
}

// WriteBars appends bars after any already stored for symbol and period, in
// one transaction per batch. It returns the number of rows written.
func (w *Writer) WriteBars(ctx context.Context, symbol string, period model.Period, bars []model.Bar) (int, error) {
	if !period.Valid() {
		return 0, fmt.Errorf("sqlite: %q: %w", period, model.ErrInvalidPeriod)
	}
	written := 0
	for start := 0; start < len(bars); start += w.batchSize {
		end := start + w.batchSize
		if end > len(bars) {
			end = len(bars)
		}
		if err := w.insertBatch(ctx, symbol, period, bars[start:end]); err != nil {
			return written, err
		}
		written += end - start
	}
	return written, nil
}

// insertBatch inserts a batch of bars in a single transaction.
func (w *Writer) insertBatch(ctx context.Context, symbol string, period model.Period, bars []model.Bar) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM bars WHERE symbol = ? AND period = ?`,
		symbol, string(period),
	).Scan(&next); err != nil {
		tx.Rollback()
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bars (symbol, period, seq, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		next++
		if _, err := stmt.ExecContext(ctx, symbol, string(period), next, b.Timestamp,
			b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// Run records ticks from tickCh under symbol, flushing every batch size
// ticks or every flush delay, whichever comes first. Blocks until ctx is
// cancelled or tickCh is closed; pending ticks are flushed before returning.
func (w *Writer) Run(ctx context.Context, symbol string, tickCh <-chan model.Tick) {
	batch := make([]model.Tick, 0, w.batchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		// Group consecutive ticks of one period into a single write.
		for i := 0; i < len(batch); {
			j := i
			bars := make([]model.Bar, 0, len(batch)-i)
			for j < len(batch) && batch[j].Period == batch[i].Period {
				bars = append(bars, batch[j].Bar)
				j++
			}
			if _, err := w.WriteBars(context.Background(), symbol, batch[i].Period, bars); err != nil {
				slog.Error("batch insert failed", "component", "sqlite", "error", err)
			}
			i = j
		}
		slog.Debug("committed ticks", "component", "sqlite", "count", len(batch), "elapsed", time.Since(start))
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case tick, ok := <-tickCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, tick)
			if len(batch) >= w.batchSize {
				flush()
				timer.Reset(defaultFlushDelay)
			}

		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
