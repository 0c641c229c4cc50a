package operations_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicpulse/internal/analytics"
	"civicpulse/internal/archive"
	"civicpulse/internal/config"
	"civicpulse/internal/exporter"
	"civicpulse/internal/operations"
	"civicpulse/internal/report"
	"civicpulse/internal/sentiment"
)

func pipelineFixture(t *testing.T, options *operations.StepOptions) ([]operations.Step, *archive.Store, *config.Paths) {
	t.Helper()
	tempDir := t.TempDir()

	paths := &config.Paths{
		ExecutableDir: tempDir,
		DataDir:       filepath.Join(tempDir, "data"),
		ExportsDir:    filepath.Join(tempDir, "data", "exports"),
		ReportsDir:    filepath.Join(tempDir, "data", "reports"),
		LogsDir:       filepath.Join(tempDir, "logs"),
		ArchiveFile:   filepath.Join(tempDir, "archive.db"),
	}

	store, err := archive.Open(paths.ArchiveFile, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return operations.NewPipelineSteps(paths, store, nil, options), store, paths
}

func TestPipeline_FullRun(t *testing.T) {
	steps, store, paths := pipelineFixture(t, nil)

	runner, err := operations.NewRunner(steps, nil)
	require.NoError(t, err)

	reference := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	resp, err := runner.Run(context.Background(), operations.RunRequest{
		ID:            "pipeline-test",
		Seed:          42,
		WindowDays:    30,
		ReferenceDate: reference,
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, operations.RunStatusCompleted, resp.Status)
	require.Len(t, resp.Steps, 4)
	for _, id := range []string{
		operations.StepIDGenerate,
		operations.StepIDAggregate,
		operations.StepIDExport,
		operations.StepIDArchive,
	} {
		assert.Equal(t, operations.StepStatusCompleted, resp.Steps[id].GetStatus(), id)
	}

	// 8 countries, 31 daily observations each
	count, ok := resp.Steps[operations.StepIDGenerate].GetMetadata("observations")
	require.True(t, ok)
	assert.Equal(t, 248, count)

	for _, name := range []string{
		exporter.ObservationsFileName,
		exporter.CountryStatsFileName,
		exporter.MonthlyTrendsFileName,
		exporter.ResultsJSONFileName,
		exporter.ResultsWorkbookFileName,
	} {
		assert.FileExists(t, paths.GetExportPath(name))
	}
	assert.FileExists(t, paths.GetReportPath(report.DefaultReportFileName))

	entries, err := os.ReadDir(paths.GetExportPath(exporter.CountryFilesDirName))
	require.NoError(t, err)
	assert.Len(t, entries, 8, "one history file per country")

	run, err := store.GetRun(context.Background(), "pipeline-test")
	require.NoError(t, err)
	assert.Equal(t, int64(42), run.Seed)
	assert.Equal(t, 30, run.WindowDays)
	assert.Equal(t, 8, run.CountryCount)
	assert.Equal(t, 248, run.ObservationCount)
	assert.NotNil(t, run.DemocracySentimentCorrelation)
	require.NotNil(t, run.Results)
	assert.Len(t, run.Results.CountryStats, 8)
	assert.Equal(t, 248, run.Results.Methodology.SampleSize)
}

func TestPipeline_BroadcastsEvents(t *testing.T) {
	sink := &captureSink{}
	broadcaster := operations.NewStatusBroadcaster(sink, nil)
	defer broadcaster.Stop()

	steps, _, _ := pipelineFixture(t, &operations.StepOptions{Broadcaster: broadcaster})
	runner, err := operations.NewRunner(steps, &operations.RunnerOptions{Broadcaster: broadcaster})
	require.NoError(t, err)

	resp, err := runner.Run(context.Background(), operations.RunRequest{
		ID:            "pipeline-events",
		Seed:          7,
		WindowDays:    5,
		ReferenceDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, operations.RunStatusCompleted, resp.Status)

	events := sink.all()
	require.NotEmpty(t, events)
	assert.Equal(t, operations.EventRunStatus, events[0].event)
	assert.Equal(t, operations.EventRunComplete, events[len(events)-1].event)

	var sawProgress bool
	for _, event := range events {
		if event.event == operations.EventRunProgress {
			sawProgress = true
			break
		}
	}
	assert.True(t, sawProgress, "steps should publish progress while running")

	snapshot, ok := broadcaster.GetSnapshot("pipeline-events")
	require.True(t, ok)
	assert.Equal(t, "completed", snapshot.Status)
	assert.Equal(t, 100, snapshot.Progress)
}

func TestGenerateStep_Validate(t *testing.T) {
	step := operations.NewGenerateStep(nil, nil)
	reference := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		setup   func(*operations.RunState)
		wantErr string
	}{
		{
			name: "window days missing",
			setup: func(state *operations.RunState) {
				state.SetConfig(operations.ContextKeyReferenceDate, reference)
			},
			wantErr: "window days must be positive",
		},
		{
			name: "window days zero",
			setup: func(state *operations.RunState) {
				state.SetConfig(operations.ContextKeyWindowDays, 0)
				state.SetConfig(operations.ContextKeyReferenceDate, reference)
			},
			wantErr: "window days must be positive",
		},
		{
			name: "window days above limit",
			setup: func(state *operations.RunState) {
				state.SetConfig(operations.ContextKeyWindowDays, config.MaxWindowDays+1)
				state.SetConfig(operations.ContextKeyReferenceDate, reference)
			},
			wantErr: "window days must not exceed",
		},
		{
			name: "reference date missing",
			setup: func(state *operations.RunState) {
				state.SetConfig(operations.ContextKeyWindowDays, 30)
			},
			wantErr: "reference date is required",
		},
		{
			name: "reference date zero",
			setup: func(state *operations.RunState) {
				state.SetConfig(operations.ContextKeyWindowDays, 30)
				state.SetConfig(operations.ContextKeyReferenceDate, time.Time{})
			},
			wantErr: "reference date is required",
		},
		{
			name: "valid",
			setup: func(state *operations.RunState) {
				state.SetConfig(operations.ContextKeyWindowDays, 30)
				state.SetConfig(operations.ContextKeyReferenceDate, reference)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := operations.NewRunState("validate-test")
			tt.setup(state)

			err := step.Validate(state)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAggregateStep_Validate(t *testing.T) {
	step := operations.NewAggregateStep(nil, nil)

	state := operations.NewRunState("validate-test")
	assert.Error(t, step.Validate(state), "requires an observation dataset")

	state.SetContext(operations.ContextKeyObservations, []sentiment.Observation{})
	assert.Error(t, step.Validate(state), "an empty dataset is not usable")

	state.SetContext(operations.ContextKeyObservations, []sentiment.Observation{{CountryID: "germany"}})
	assert.NoError(t, step.Validate(state))
}

func TestExportStep_Validate(t *testing.T) {
	noPaths := operations.NewExportStep(nil, nil, nil)
	state := operations.NewRunState("validate-test")
	require.Error(t, noPaths.Validate(state))
	assert.Contains(t, noPaths.Validate(state).Error(), "paths")

	step := operations.NewExportStep(&config.Paths{}, nil, nil)
	err := step.Validate(state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "observation dataset")

	state.SetContext(operations.ContextKeyObservations, []sentiment.Observation{{CountryID: "germany"}})
	err = step.Validate(state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis results")

	state.SetContext(operations.ContextKeyResults, &analytics.AnalysisResults{})
	assert.NoError(t, step.Validate(state))
}

func TestArchiveStep_Validate(t *testing.T) {
	noStore := operations.NewArchiveStep(nil, nil, nil)
	state := operations.NewRunState("validate-test")
	err := noStore.Validate(state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive store")

	tempDir := t.TempDir()
	store, err := archive.Open(filepath.Join(tempDir, "archive.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	step := operations.NewArchiveStep(store, nil, nil)
	err = step.Validate(state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis results")

	state.SetContext(operations.ContextKeyResults, &analytics.AnalysisResults{})
	assert.NoError(t, step.Validate(state))
}
