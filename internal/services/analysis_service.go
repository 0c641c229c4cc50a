package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"civicpulse/internal/archive"
	"civicpulse/internal/config"
	apperrors "civicpulse/internal/errors"
	"civicpulse/internal/operations"
)

// referenceDateLayout is the wire format for run reference dates
const referenceDateLayout = "2006-01-02"

// AnalysisRequest describes one requested analysis run. Zero values fall
// back to the configured simulation defaults.
type AnalysisRequest struct {
	Seed          *int64 `json:"seed,omitempty"`
	WindowDays    int    `json:"window_days,omitempty"`
	ReferenceDate string `json:"reference_date,omitempty"`
}

// RunSummary is the immediate response to an accepted run request
type RunSummary struct {
	ID            string    `json:"id"`
	Seed          int64     `json:"seed"`
	WindowDays    int       `json:"window_days"`
	ReferenceDate time.Time `json:"reference_date"`
	Status        string    `json:"status"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// AnalysisService orchestrates analysis runs over the operations runner
// and feeds completed results into the results service.
type AnalysisService struct {
	runner  *operations.Runner
	store   *archive.Store
	results *ResultsService
	sim     config.SimulationConfig
	logger  *slog.Logger
}

// NewAnalysisService creates the analysis service. The results service is
// optional; when present it receives the results of every completed run.
func NewAnalysisService(runner *operations.Runner, store *archive.Store, results *ResultsService, sim config.SimulationConfig, logger *slog.Logger) (*AnalysisService, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if store == nil {
		return nil, fmt.Errorf("archive store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		runner:  runner,
		store:   store,
		results: results,
		sim:     sim,
		logger:  logger.With(slog.String("service", "analysis")),
	}, nil
}

// normalize applies simulation defaults and validates the request
func (s *AnalysisService) normalize(req AnalysisRequest) (operations.RunRequest, error) {
	run := operations.RunRequest{
		ID:         uuid.New().String(),
		Seed:       s.sim.DefaultSeed,
		WindowDays: s.sim.DefaultWindowDays,
	}

	if req.Seed != nil {
		run.Seed = *req.Seed
	}
	if req.WindowDays != 0 {
		run.WindowDays = req.WindowDays
	}
	if run.WindowDays < 1 {
		return operations.RunRequest{}, apperrors.NewConfigurationError(
			fmt.Sprintf("window must span at least one day, got %d", run.WindowDays), nil)
	}
	if run.WindowDays > s.sim.MaxWindowDays {
		return operations.RunRequest{}, apperrors.NewConfigurationError(
			fmt.Sprintf("window of %d days exceeds the maximum of %d", run.WindowDays, s.sim.MaxWindowDays), nil)
	}

	if req.ReferenceDate == "" {
		run.ReferenceDate = time.Now().UTC().Truncate(24 * time.Hour)
	} else {
		reference, err := time.ParseInLocation(referenceDateLayout, req.ReferenceDate, time.UTC)
		if err != nil {
			return operations.RunRequest{}, apperrors.NewConfigurationError(
				fmt.Sprintf("reference date %q is not in YYYY-MM-DD form", req.ReferenceDate), err)
		}
		run.ReferenceDate = reference
	}

	return run, nil
}

// Run executes one analysis run synchronously and returns its outcome.
// On success the archived results are loaded back and published to the
// results service.
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*operations.RunResponse, error) {
	run, err := s.normalize(req)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Analysis run accepted",
		slog.String("run_id", run.ID),
		slog.Int64("seed", run.Seed),
		slog.Int("window_days", run.WindowDays),
		slog.String("reference_date", run.ReferenceDate.Format(referenceDateLayout)))

	resp, err := s.runner.Run(ctx, run)
	if err != nil {
		return resp, err
	}

	s.publishResults(ctx, run.ID)
	return resp, nil
}

// Start launches a run in the background and returns its summary
// immediately. Progress is observable over the run status API and the
// WebSocket hub.
func (s *AnalysisService) Start(ctx context.Context, req AnalysisRequest) (*RunSummary, error) {
	run, err := s.normalize(req)
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{
		ID:            run.ID,
		Seed:          run.Seed,
		WindowDays:    run.WindowDays,
		ReferenceDate: run.ReferenceDate,
		Status:        string(operations.RunStatusPending),
		SubmittedAt:   time.Now(),
	}

	// The run outlives the HTTP request that started it
	go func() {
		runCtx := context.Background()
		if _, err := s.runner.Run(runCtx, run); err != nil {
			s.logger.Error("Background analysis run failed",
				slog.String("run_id", run.ID),
				slog.String("error", err.Error()))
			return
		}
		s.publishResults(runCtx, run.ID)
	}()

	s.logger.InfoContext(ctx, "Analysis run started",
		slog.String("run_id", run.ID),
		slog.Int64("seed", run.Seed),
		slog.Int("window_days", run.WindowDays))

	return summary, nil
}

// publishResults loads the archived run document and hands it to the
// results service for serving.
func (s *AnalysisService) publishResults(ctx context.Context, runID string) {
	if s.results == nil {
		return
	}
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load archived run for serving",
			slog.String("run_id", runID),
			slog.String("error", err.Error()))
		return
	}
	s.results.SetLatest(run.ID, run.Results)
}

// RunStatus returns the state of an active run
func (s *AnalysisService) RunStatus(id string) (*operations.RunState, error) {
	return s.runner.GetRun(id)
}

// ActiveRuns lists all currently executing runs
func (s *AnalysisService) ActiveRuns() []*operations.RunState {
	return s.runner.ListRuns()
}

// Cancel stops an active run
func (s *AnalysisService) Cancel(id string) error {
	return s.runner.Cancel(id)
}

// CancelAll stops every active run, keeping the first error
func (s *AnalysisService) CancelAll(ctx context.Context) error {
	var firstErr error
	for _, state := range s.runner.ListRuns() {
		if err := s.runner.Cancel(state.ID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
