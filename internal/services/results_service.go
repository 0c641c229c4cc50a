package services

import (
	"context"
	"log/slog"
	"sync"

	"civicpulse/internal/analytics"
	"civicpulse/internal/archive"
	apperrors "civicpulse/internal/errors"
)

// CorrelationMethod names the correlation statistic reported by the API
const CorrelationMethod = "pearson"

// CorrelationReport carries the two democracy correlations. A nil
// coefficient means the correlation is undefined for the analyzed
// dataset; Defined distinguishes that case explicitly so clients never
// mistake an absent value for zero.
type CorrelationReport struct {
	Method                         string   `json:"method"`
	Defined                        bool     `json:"defined"`
	DemocracySentimentCorrelation  *float64 `json:"democracy_sentiment_correlation"`
	DemocracyVolatilityCorrelation *float64 `json:"democracy_volatility_correlation"`
}

// LatestResults wraps the served results with the run they came from
type LatestResults struct {
	RunID   string                     `json:"run_id"`
	Results *analytics.AnalysisResults `json:"results"`
}

// ResultsService serves the latest analysis results and the run archive.
// The in-memory copy is refreshed after every completed run; on a cold
// start it is lazily restored from the most recent archived run.
type ResultsService struct {
	store  *archive.Store
	logger *slog.Logger

	mu       sync.RWMutex
	latestID string
	latest   *analytics.AnalysisResults
}

// NewResultsService creates a results service over the run archive
func NewResultsService(store *archive.Store, logger *slog.Logger) *ResultsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsService{
		store:  store,
		logger: logger.With(slog.String("service", "results")),
	}
}

// SetLatest replaces the served results
func (s *ResultsService) SetLatest(runID string, results *analytics.AnalysisResults) {
	if results == nil {
		return
	}
	s.mu.Lock()
	s.latestID = runID
	s.latest = results
	s.mu.Unlock()

	s.logger.Info("Serving new analysis results",
		slog.String("run_id", runID),
		slog.Int("countries", len(results.CountryStats)))
}

// Latest returns the most recent analysis results, restoring them from
// the archive when the process has not completed a run yet.
func (s *ResultsService) Latest(ctx context.Context) (*LatestResults, error) {
	s.mu.RLock()
	id, results := s.latestID, s.latest
	s.mu.RUnlock()

	if results != nil {
		return &LatestResults{RunID: id, Results: results}, nil
	}

	restored, err := s.restoreFromArchive(ctx)
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// restoreFromArchive loads the newest archived run into memory
func (s *ResultsService) restoreFromArchive(ctx context.Context) (*LatestResults, error) {
	if s.store == nil {
		return nil, apperrors.NewNotFoundError("analysis results")
	}

	runs, err := s.store.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, apperrors.NewNotFoundError("analysis results")
	}

	run, err := s.store.GetRun(ctx, runs[0].ID)
	if err != nil {
		return nil, err
	}

	s.SetLatest(run.ID, run.Results)
	s.logger.InfoContext(ctx, "Restored results from archive",
		slog.String("run_id", run.ID))

	return &LatestResults{RunID: run.ID, Results: run.Results}, nil
}

// CountryStatistics returns the per-country statistics table
func (s *ResultsService) CountryStatistics(ctx context.Context) ([]analytics.CountryStatistics, error) {
	latest, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return latest.Results.CountryStats, nil
}

// Correlations returns the democracy correlation readout
func (s *ResultsService) Correlations(ctx context.Context) (*CorrelationReport, error) {
	latest, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	results := latest.Results
	return &CorrelationReport{
		Method: CorrelationMethod,
		Defined: results.DemocracySentimentCorrelation != nil &&
			results.DemocracyVolatilityCorrelation != nil,
		DemocracySentimentCorrelation:  results.DemocracySentimentCorrelation,
		DemocracyVolatilityCorrelation: results.DemocracyVolatilityCorrelation,
	}, nil
}

// MonthlyTrends returns the monthly aggregation table
func (s *ResultsService) MonthlyTrends(ctx context.Context) ([]analytics.MonthlyAggregate, error) {
	latest, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return latest.Results.MonthlyTrends, nil
}

// ClassificationStatistics returns the per-classification comparison
func (s *ResultsService) ClassificationStatistics(ctx context.Context) ([]analytics.ClassificationStatistics, error) {
	latest, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return latest.Results.ClassificationStats, nil
}

// Methodology returns the metadata describing the analyzed dataset
func (s *ResultsService) Methodology(ctx context.Context) (*analytics.Methodology, error) {
	latest, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return &latest.Results.Methodology, nil
}

// ArchivedRuns lists archived run summaries, most recent first
func (s *ResultsService) ArchivedRuns(ctx context.Context, limit int) ([]archive.Run, error) {
	if s.store == nil {
		return nil, apperrors.NewNotFoundError("run archive")
	}
	return s.store.ListRuns(ctx, limit)
}

// ArchivedRun returns one archived run with its full results document
func (s *ResultsService) ArchivedRun(ctx context.Context, id string) (*archive.Run, error) {
	if s.store == nil {
		return nil, apperrors.NewNotFoundError("run archive")
	}
	return s.store.GetRun(ctx, id)
}
