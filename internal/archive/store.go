// Package archive persists completed analysis runs in a local SQLite
// database so past results stay queryable across restarts.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"civicpulse/internal/analytics"
	apperrors "civicpulse/internal/errors"
)

// DefaultListLimit bounds ListRuns when the caller passes no limit
const DefaultListLimit = 20

// Timestamps are stored as fixed-width UTC text so lexicographic order in
// the database matches chronological order.
const (
	createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"
	refDateLayout   = "2006-01-02"
)

// Run is one archived analysis run. Results is populated by GetRun and
// left nil by ListRuns to keep listings light.
type Run struct {
	ID                             string                     `json:"id"`
	Seed                           int64                      `json:"seed"`
	WindowDays                     int                        `json:"window_days"`
	ReferenceDate                  time.Time                  `json:"reference_date"`
	CountryCount                   int                        `json:"country_count"`
	ObservationCount               int                        `json:"observation_count"`
	DemocracySentimentCorrelation  *float64                   `json:"democracy_sentiment_correlation"`
	DemocracyVolatilityCorrelation *float64                   `json:"democracy_volatility_correlation"`
	CreatedAt                      time.Time                  `json:"created_at"`
	Results                        *analytics.AnalysisResults `json:"results,omitempty"`
}

// Store provides access to the run archive database
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the archive database at path and
// ensures the schema exists.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open archive database", err)
	}

	// SQLite allows one writer; a single pooled connection avoids busy errors
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("failed to connect to archive database", err)
	}

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("failed to create archive schema", err)
	}

	logger.Info("Run archive opened",
		slog.String("path", path))

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the archive database is reachable
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.NewStorageError("archive database unreachable", err)
	}
	return nil
}

// SaveRun inserts one completed run with its full results document
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	if run == nil {
		return apperrors.NewAppValidationError("run is required")
	}
	if run.ID == "" {
		return apperrors.NewAppValidationError("run id is required")
	}
	if run.Results == nil {
		return apperrors.NewAppValidationError("run results are required")
	}

	payload, err := json.Marshal(run.Results)
	if err != nil {
		return apperrors.NewStorageError("failed to encode run results", err)
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query, args, err := sq.Insert("runs").
		Columns("id", "seed", "window_days", "reference_date", "country_count",
			"observation_count", "democracy_sentiment_correlation",
			"democracy_volatility_correlation", "created_at", "results").
		Values(run.ID, run.Seed, run.WindowDays,
			run.ReferenceDate.Format(refDateLayout),
			run.CountryCount, run.ObservationCount,
			run.DemocracySentimentCorrelation,
			run.DemocracyVolatilityCorrelation,
			createdAt.UTC().Format(createdAtLayout),
			string(payload)).
		ToSql()
	if err != nil {
		return apperrors.NewStorageError("failed to build insert query", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewStorageError("failed to save run", err)
	}

	s.logger.InfoContext(ctx, "Run archived",
		slog.String("run_id", run.ID),
		slog.Int("observations", run.ObservationCount))

	return nil
}

// GetRun returns one archived run with its full results document
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	query, args, err := sq.Select("id", "seed", "window_days", "reference_date",
		"country_count", "observation_count", "democracy_sentiment_correlation",
		"democracy_volatility_correlation", "created_at", "results").
		From("runs").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, apperrors.NewStorageError("failed to build select query", err)
	}

	row := s.db.QueryRowContext(ctx, query, args...)

	var (
		run       Run
		refDate   string
		createdAt string
		sentCorr  sql.NullFloat64
		volCorr   sql.NullFloat64
		payload   string
	)
	err = row.Scan(&run.ID, &run.Seed, &run.WindowDays, &refDate,
		&run.CountryCount, &run.ObservationCount, &sentCorr, &volCorr,
		&createdAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("run %s", id))
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read run", err)
	}

	if err := hydrateRun(&run, refDate, createdAt, sentCorr, volCorr); err != nil {
		return nil, err
	}

	var results analytics.AnalysisResults
	if err := json.Unmarshal([]byte(payload), &results); err != nil {
		return nil, apperrors.NewStorageError("failed to decode run results", err)
	}
	run.Results = &results

	return &run, nil
}

// ListRuns returns archived run summaries, most recent first. The results
// payload is not loaded; use GetRun for the full document.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query, args, err := sq.Select("id", "seed", "window_days", "reference_date",
		"country_count", "observation_count", "democracy_sentiment_correlation",
		"democracy_volatility_correlation", "created_at").
		From("runs").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, apperrors.NewStorageError("failed to build list query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list runs", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			refDate   string
			createdAt string
			sentCorr  sql.NullFloat64
			volCorr   sql.NullFloat64
		)
		if err := rows.Scan(&run.ID, &run.Seed, &run.WindowDays, &refDate,
			&run.CountryCount, &run.ObservationCount, &sentCorr, &volCorr,
			&createdAt); err != nil {
			return nil, apperrors.NewStorageError("failed to scan run row", err)
		}
		if err := hydrateRun(&run, refDate, createdAt, sentCorr, volCorr); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to iterate runs", err)
	}

	return runs, nil
}

// hydrateRun converts scanned column values into Run fields
func hydrateRun(run *Run, refDate, createdAt string, sentCorr, volCorr sql.NullFloat64) error {
	parsedRef, err := time.Parse(refDateLayout, refDate)
	if err != nil {
		return apperrors.NewStorageError("failed to parse reference date", err)
	}
	run.ReferenceDate = parsedRef

	parsedCreated, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return apperrors.NewStorageError("failed to parse created_at", err)
	}
	run.CreatedAt = parsedCreated

	if sentCorr.Valid {
		v := sentCorr.Float64
		run.DemocracySentimentCorrelation = &v
	}
	if volCorr.Valid {
		v := volCorr.Float64
		run.DemocracyVolatilityCorrelation = &v
	}
	return nil
}
