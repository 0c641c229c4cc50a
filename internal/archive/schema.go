package archive

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the run archive.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Analysis runs
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    seed INTEGER NOT NULL,
    window_days INTEGER NOT NULL,
    reference_date TEXT NOT NULL,
    country_count INTEGER NOT NULL,
    observation_count INTEGER NOT NULL,
    democracy_sentiment_correlation REAL,
    democracy_volatility_correlation REAL,
    created_at TEXT NOT NULL,
    results TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`
