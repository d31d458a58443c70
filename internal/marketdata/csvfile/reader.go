// Package csvfile decodes historical bar files. Each file has a header row
// followed by timestamp,open,high,low,close,volume rows.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"barfeed/internal/model"
)

// Columns is the minimum number of fields a data row must carry.
const Columns = 6

// Reader loads every bar of a historical file. It implements model.BarLoader.
type Reader struct {
	Path string

	// OnMalformed is called for every skipped row, with its 1-based line.
	OnMalformed func(line int, err error)

	skipped int
}

// NewReader creates a Reader for path.
func NewReader(path string) *Reader {
	return &Reader{Path: path}
}

// Skipped returns the number of rows the last Load skipped.
func (r *Reader) Skipped() int { return r.skipped }

// Load reads the whole file. A missing or unreadable file fails with
// model.ErrSourceUnavailable; individual bad rows are skipped.
func (r *Reader) Load(ctx context.Context) ([]model.Bar, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, fmt.Errorf("csvfile: open %s: %v: %w", r.Path, err, model.ErrSourceUnavailable)
	}
	defer f.Close()

	bars, err := r.Decode(ctx, f)
	if err != nil {
		return nil, err
	}
	slog.Info("historical file loaded", "component", "csvfile",
		"path", r.Path, "bars", len(bars), "skipped", r.skipped)
	return bars, nil
}

// Decode reads bars from src. The first record is discarded as the header.
func (r *Reader) Decode(ctx context.Context, src io.Reader) ([]model.Bar, error) {
	r.skipped = 0

	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var bars []model.Bar
	header := true
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				// A syntax error only spoils its own record.
				r.skip(perr.StartLine, fmt.Errorf("%v: %w", perr.Err, model.ErrMalformedRecord))
				header = false
				continue
			}
			return nil, fmt.Errorf("csvfile: read %s: %v: %w", r.Path, err, model.ErrSourceUnavailable)
		}

		if header {
			header = false
			continue
		}

		line, _ := cr.FieldPos(0)
		bar, err := DecodeRecord(record)
		if err != nil {
			r.skip(line, err)
			continue
		}
		bars = append(bars, bar)
	}
	if bars == nil {
		bars = []model.Bar{}
	}
	return bars, nil
}

func (r *Reader) skip(line int, err error) {
	r.skipped++
	slog.Warn("skipping malformed row", "component", "csvfile", "path", r.Path, "line", line, "error", err)
	if r.OnMalformed != nil {
		r.OnMalformed(line, err)
	}
}

// DecodeRecord converts one data row into a Bar. A numeric field that does
// not parse becomes NaN; a row with too few fields is malformed.
func DecodeRecord(record []string) (model.Bar, error) {
	if len(record) < Columns {
		return model.Bar{}, fmt.Errorf("got %d of %d columns: %w", len(record), Columns, model.ErrMalformedRecord)
	}
	return model.Bar{
		Timestamp: strings.TrimSpace(record[0]),
		Open:      parseFloat(record[1]),
		High:      parseFloat(record[2]),
		Low:       parseFloat(record[3]),
		Close:     parseFloat(record[4]),
		Volume:    parseFloat(record[5]),
	}, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

var _ model.BarLoader = (*Reader)(nil)
