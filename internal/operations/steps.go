package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"civicpulse/internal/analytics"
	"civicpulse/internal/archive"
	"civicpulse/internal/config"
	"civicpulse/internal/exporter"
	"civicpulse/internal/infrastructure"
	"civicpulse/internal/registry"
	"civicpulse/internal/report"
	"civicpulse/internal/sentiment"
)

// StepOptions carries optional collaborators shared by the pipeline steps
type StepOptions struct {
	Broadcaster *StatusBroadcaster
	Metrics     *infrastructure.BusinessMetrics
}

// NewPipelineSteps returns the standard run pipeline in execution order
func NewPipelineSteps(paths *config.Paths, store *archive.Store, logger *slog.Logger, options *StepOptions) []Step {
	return []Step{
		NewGenerateStep(logger, options),
		NewAggregateStep(logger, options),
		NewExportStep(paths, logger, options),
		NewArchiveStep(store, logger, options),
	}
}

// reportProgress updates the in-memory step state and, when a broadcaster
// is wired, publishes the progress to clients
func reportProgress(opts *StepOptions, state *RunState, stepID string, progress float64, message string) {
	if stepState := state.GetStep(stepID); stepState != nil {
		stepState.UpdateProgress(progress, message)
	}
	if opts != nil && opts.Broadcaster != nil {
		opts.Broadcaster.UpdateStepProgress(state.ID, stepID, int(progress), message)
	}
}

// GenerateStep produces the synthetic observation dataset for the run
type GenerateStep struct {
	BaseStep
	logger  *slog.Logger
	options *StepOptions
}

// NewGenerateStep creates the generation step
func NewGenerateStep(logger *slog.Logger, options *StepOptions) *GenerateStep {
	if logger == nil {
		logger = slog.Default()
	}
	if options == nil {
		options = &StepOptions{}
	}
	return &GenerateStep{
		BaseStep: NewBaseStep(StepIDGenerate, StepNameGenerate),
		logger:   logger.With(slog.String("step", StepIDGenerate)),
		options:  options,
	}
}

// Validate checks the run configuration carries usable generator inputs
func (s *GenerateStep) Validate(state *RunState) error {
	windowDays, ok := configInt(state, ContextKeyWindowDays)
	if !ok || windowDays <= 0 {
		return fmt.Errorf("window days must be positive")
	}
	if windowDays > config.MaxWindowDays {
		return fmt.Errorf("window days must not exceed %d", config.MaxWindowDays)
	}
	if reference, ok := configTime(state, ContextKeyReferenceDate); !ok || reference.IsZero() {
		return fmt.Errorf("reference date is required")
	}
	return nil
}

// Execute generates observations for every registered country
func (s *GenerateStep) Execute(ctx context.Context, state *RunState) error {
	seed, _ := configInt64(state, ContextKeySeed)
	windowDays, _ := configInt(state, ContextKeyWindowDays)
	reference, _ := configTime(state, ContextKeyReferenceDate)

	profiles, err := registry.Load()
	if err != nil {
		return fmt.Errorf("failed to load country registry: %w", err)
	}

	reportProgress(s.options, state, s.ID(), 10,
		fmt.Sprintf("Generating observations for %d countries", len(profiles)))

	generator := sentiment.NewGenerator(profiles, seed, windowDays, reference, s.logger)
	observations, err := generator.Generate(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate observations: %w", err)
	}

	state.SetContext(ContextKeyObservations, observations)
	if stepState := state.GetStep(s.ID()); stepState != nil {
		stepState.SetMetadata("observations", len(observations))
		stepState.SetMetadata("countries", len(profiles))
	}
	infrastructure.RecordObservationsGenerated(ctx, s.options.Metrics, state.ID, int64(len(observations)))

	s.logger.InfoContext(ctx, "Observations generated",
		slog.String("run_id", state.ID),
		slog.Int("observations", len(observations)),
		slog.Int("countries", len(profiles)))

	return nil
}

// AggregateStep computes the statistical results over the generated dataset
type AggregateStep struct {
	BaseStep
	logger  *slog.Logger
	options *StepOptions
}

// NewAggregateStep creates the aggregation step
func NewAggregateStep(logger *slog.Logger, options *StepOptions) *AggregateStep {
	if logger == nil {
		logger = slog.Default()
	}
	if options == nil {
		options = &StepOptions{}
	}
	return &AggregateStep{
		BaseStep: NewBaseStep(StepIDAggregate, StepNameAggregate),
		logger:   logger.With(slog.String("step", StepIDAggregate)),
		options:  options,
	}
}

// Validate requires the observation dataset from the generate step
func (s *AggregateStep) Validate(state *RunState) error {
	if _, ok := contextObservations(state); !ok {
		return fmt.Errorf("no observation dataset in run context")
	}
	return nil
}

// Execute aggregates observations into country statistics, correlations,
// monthly trends, and classification comparisons
func (s *AggregateStep) Execute(ctx context.Context, state *RunState) error {
	observations, _ := contextObservations(state)

	reportProgress(s.options, state, s.ID(), 10,
		fmt.Sprintf("Aggregating %d observations", len(observations)))

	aggregator := analytics.NewAggregator(s.logger)
	results, err := aggregator.Aggregate(ctx, observations)
	if err != nil {
		return fmt.Errorf("failed to aggregate observations: %w", err)
	}

	state.SetContext(ContextKeyResults, results)
	if stepState := state.GetStep(s.ID()); stepState != nil {
		stepState.SetMetadata("countries", len(results.CountryStats))
		stepState.SetMetadata("sample_size", results.Methodology.SampleSize)
	}

	s.logger.InfoContext(ctx, "Aggregation complete",
		slog.String("run_id", state.ID),
		slog.Int("countries", len(results.CountryStats)),
		slog.Int("monthly_rows", len(results.MonthlyTrends)))

	return nil
}

// ExportStep writes the run artifacts: CSV exports, the JSON results
// document, the XLSX workbook, and the markdown report
type ExportStep struct {
	BaseStep
	paths   *config.Paths
	logger  *slog.Logger
	options *StepOptions
}

// NewExportStep creates the export step
func NewExportStep(paths *config.Paths, logger *slog.Logger, options *StepOptions) *ExportStep {
	if logger == nil {
		logger = slog.Default()
	}
	if options == nil {
		options = &StepOptions{}
	}
	return &ExportStep{
		BaseStep: NewBaseStep(StepIDExport, StepNameExport),
		paths:    paths,
		logger:   logger.With(slog.String("step", StepIDExport)),
		options:  options,
	}
}

// Validate requires the dataset and results from the earlier steps
func (s *ExportStep) Validate(state *RunState) error {
	if s.paths == nil {
		return fmt.Errorf("paths are not configured")
	}
	if _, ok := contextObservations(state); !ok {
		return fmt.Errorf("no observation dataset in run context")
	}
	if _, ok := contextResults(state); !ok {
		return fmt.Errorf("no analysis results in run context")
	}
	return nil
}

// Execute writes every artifact, reporting progress per file
func (s *ExportStep) Execute(ctx context.Context, state *RunState) error {
	observations, _ := contextObservations(state)
	results, _ := contextResults(state)

	observationExporter := exporter.NewObservationExporter(s.paths)
	statisticsExporter := exporter.NewStatisticsExporter(s.paths)
	resultsExporter := exporter.NewResultsExporter(s.paths)
	reportGenerator := report.NewGenerator(s.paths)

	artifacts := []struct {
		name  string
		write func() error
	}{
		{exporter.ObservationsFileName, func() error {
			return observationExporter.ExportObservations(observations, exporter.ObservationsFileName)
		}},
		{exporter.CountryFilesDirName, func() error {
			return observationExporter.ExportCountryFiles(observations, exporter.CountryFilesDirName)
		}},
		{exporter.CountryStatsFileName, func() error {
			return statisticsExporter.ExportCountryStatistics(results.CountryStats, exporter.CountryStatsFileName)
		}},
		{exporter.MonthlyTrendsFileName, func() error {
			return statisticsExporter.ExportMonthlyTrends(results.MonthlyTrends, exporter.MonthlyTrendsFileName)
		}},
		{exporter.ResultsJSONFileName, func() error {
			return resultsExporter.ExportJSON(results, exporter.ResultsJSONFileName)
		}},
		{exporter.ResultsWorkbookFileName, func() error {
			return resultsExporter.ExportWorkbook(results, exporter.ResultsWorkbookFileName)
		}},
		{report.DefaultReportFileName, func() error {
			return reportGenerator.Save(results, report.DefaultReportFileName)
		}},
	}

	tracker := NewProgressTracker(s.ID(), len(artifacts))
	written := make([]string, 0, len(artifacts))

	for _, artifact := range artifacts {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := artifact.write(); err != nil {
			return fmt.Errorf("failed to write %s: %w", artifact.name, err)
		}
		written = append(written, artifact.name)

		tracker.Increment(artifact.name)
		_, _, percentage, _ := tracker.GetProgress()
		reportProgress(s.options, state, s.ID(), percentage,
			fmt.Sprintf("Wrote %s", artifact.name))
	}

	state.SetContext(ContextKeyExportedFiles, written)
	if stepState := state.GetStep(s.ID()); stepState != nil {
		stepState.SetMetadata("files", len(written))
	}

	s.logger.InfoContext(ctx, "Artifacts exported",
		slog.String("run_id", state.ID),
		slog.Int("files", len(written)),
		slog.String("exports_dir", s.paths.ExportsDir),
		slog.String("report", filepath.Join(s.paths.ReportsDir, report.DefaultReportFileName)))

	return nil
}

// ArchiveStep persists the completed run in the SQLite archive
type ArchiveStep struct {
	BaseStep
	store   *archive.Store
	logger  *slog.Logger
	options *StepOptions
}

// NewArchiveStep creates the archival step
func NewArchiveStep(store *archive.Store, logger *slog.Logger, options *StepOptions) *ArchiveStep {
	if logger == nil {
		logger = slog.Default()
	}
	if options == nil {
		options = &StepOptions{}
	}
	return &ArchiveStep{
		BaseStep: NewBaseStep(StepIDArchive, StepNameArchive),
		store:    store,
		logger:   logger.With(slog.String("step", StepIDArchive)),
		options:  options,
	}
}

// Validate requires a configured store and results to persist
func (s *ArchiveStep) Validate(state *RunState) error {
	if s.store == nil {
		return fmt.Errorf("archive store is not configured")
	}
	if _, ok := contextResults(state); !ok {
		return fmt.Errorf("no analysis results in run context")
	}
	return nil
}

// Execute saves the run summary plus the full results document
func (s *ArchiveStep) Execute(ctx context.Context, state *RunState) error {
	observations, _ := contextObservations(state)
	results, _ := contextResults(state)

	seed, _ := configInt64(state, ContextKeySeed)
	windowDays, _ := configInt(state, ContextKeyWindowDays)
	reference, _ := configTime(state, ContextKeyReferenceDate)

	run := &archive.Run{
		ID:                             state.ID,
		Seed:                           seed,
		WindowDays:                     windowDays,
		ReferenceDate:                  reference,
		CountryCount:                   len(results.CountryStats),
		ObservationCount:               len(observations),
		DemocracySentimentCorrelation:  results.DemocracySentimentCorrelation,
		DemocracyVolatilityCorrelation: results.DemocracyVolatilityCorrelation,
		CreatedAt:                      time.Now(),
		Results:                        results,
	}

	reportProgress(s.options, state, s.ID(), 50, "Archiving run")

	start := time.Now()
	err := s.store.SaveRun(ctx, run)
	infrastructure.RecordArchiveSave(ctx, s.options.Metrics, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to archive run: %w", err)
	}

	s.logger.InfoContext(ctx, "Run archived",
		slog.String("run_id", state.ID),
		slog.Int("observations", len(observations)))

	return nil
}

// Typed accessors over the untyped run context and config maps.

func configInt64(state *RunState, key string) (int64, bool) {
	v, ok := state.GetConfig(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

func configInt(state *RunState, key string) (int, bool) {
	v, ok := state.GetConfig(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

func configTime(state *RunState, key string) (time.Time, bool) {
	v, ok := state.GetConfig(key)
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

func contextObservations(state *RunState) ([]sentiment.Observation, bool) {
	v, ok := state.GetContext(ContextKeyObservations)
	if !ok {
		return nil, false
	}
	observations, ok := v.([]sentiment.Observation)
	if !ok || len(observations) == 0 {
		return nil, false
	}
	return observations, true
}

func contextResults(state *RunState) (*analytics.AnalysisResults, bool) {
	v, ok := state.GetContext(ContextKeyResults)
	if !ok {
		return nil, false
	}
	results, ok := v.(*analytics.AnalysisResults)
	if !ok || results == nil {
		return nil, false
	}
	return results, true
}
