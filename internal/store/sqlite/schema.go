// Package sqlite stores historical bars in a SQLite database. It is an
// alternative replay source to CSV files and the target of `barfeed import`.
package sqlite

import (
	"database/sql"
	"math"
)

// dsnParams are appended to every database path.
const dsnParams = "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"

// Rows keep arrival order through seq; ts is the opaque bar timestamp.
// Prices are nullable because SQLite stores NaN as NULL.
const schema = `
	CREATE TABLE IF NOT EXISTS bars (
		symbol  TEXT    NOT NULL,
		period  TEXT    NOT NULL,
		seq     INTEGER NOT NULL,
		ts      TEXT    NOT NULL,
		open    REAL,
		high    REAL,
		low     REAL,
		close   REAL,
		volume  REAL,
		PRIMARY KEY (symbol, period, seq)
	);
`

func createSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
