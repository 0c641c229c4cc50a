package exporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicpulse/internal/analytics"
)

func sampleResults() *analytics.AnalysisResults {
	corr := 0.9231
	return &analytics.AnalysisResults{
		CountryStats:                   sampleCountryStats(),
		DemocracySentimentCorrelation:  &corr,
		DemocracyVolatilityCorrelation: nil,
		MonthlyTrends: []analytics.MonthlyAggregate{
			{CountryID: "sweden", Month: "2024-01", SentimentMean: 0.49, SentimentStd: 0.1, TotalPosts: 3224},
		},
		ClassificationStats: []analytics.ClassificationStatistics{
			{Classification: "Full Democracy", CountryCount: 1, SentimentMean: 0.52, SentimentStd: 0, MeanVolatility: 0.11, MeanDemocracyScore: 9.2},
		},
		Methodology: analytics.Methodology{
			SampleSize:   732,
			TimePeriod:   "2023-03-16 to 2024-03-15",
			CountryCount: 2,
		},
	}
}

func TestResultsExporter_ExportJSON(t *testing.T) {
	paths, tempDir := testPaths(t)
	exporter := NewResultsExporter(paths)

	err := exporter.ExportJSON(sampleResults(), "analysis_results.json")
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(tempDir, "exports", "analysis_results.json"))
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(content, &doc))
	require.Contains(t, doc, "metadata")
	require.Contains(t, doc, "results")

	var metadata map[string]interface{}
	require.NoError(t, json.Unmarshal(doc["metadata"], &metadata))
	assert.Equal(t, "CivicPulse", metadata["application"])
	assert.NotEmpty(t, metadata["generated_at"])
	assert.Equal(t, float64(732), metadata["sample_size"])
	assert.Equal(t, float64(2), metadata["country_count"])
	assert.Equal(t, "2023-03-16 to 2024-03-15", metadata["time_period"])

	var results analytics.AnalysisResults
	require.NoError(t, json.Unmarshal(doc["results"], &results))
	assert.Len(t, results.CountryStats, 2)
	require.NotNil(t, results.DemocracySentimentCorrelation)
	assert.InDelta(t, 0.9231, *results.DemocracySentimentCorrelation, 1e-9)

	// Undefined correlation must be null, not zero
	assert.Nil(t, results.DemocracyVolatilityCorrelation)
	assert.Contains(t, string(doc["results"]), `"democracy_volatility_correlation": null`)
}

func TestResultsExporter_ExportJSON_NoResults(t *testing.T) {
	paths, _ := testPaths(t)
	exporter := NewResultsExporter(paths)

	err := exporter.ExportJSON(nil, "empty.json")
	assert.Error(t, err)

	err = exporter.ExportJSON(&analytics.AnalysisResults{}, "empty.json")
	assert.Error(t, err)
}

func TestResultsExporter_ExportJSON_AbsolutePath(t *testing.T) {
	paths, _ := testPaths(t)
	exporter := NewResultsExporter(paths)

	target := filepath.Join(t.TempDir(), "elsewhere", "results.json")
	err := exporter.ExportJSON(sampleResults(), target)
	require.NoError(t, err)

	_, err = os.Stat(target)
	assert.NoError(t, err)
}
