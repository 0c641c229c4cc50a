package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicpulse/internal/analytics"
	"civicpulse/internal/config"
	"civicpulse/internal/registry"
)

func testGenerator(t *testing.T) (*Generator, string) {
	t.Helper()
	tempDir := t.TempDir()
	paths := &config.Paths{
		ExportsDir: filepath.Join(tempDir, "exports"),
		ReportsDir: filepath.Join(tempDir, "reports"),
	}
	return NewGenerator(paths), tempDir
}

func fixtureResults() *analytics.AnalysisResults {
	sentCorr := 0.82
	volCorr := -0.45
	return &analytics.AnalysisResults{
		CountryStats: []analytics.CountryStatistics{
			{
				CountryID: "brazil", SentimentMean: 0.02, SentimentStd: 0.31,
				DemocracyScore: 6.9, Region: "South America",
				PoliticalSystem: "Federal Republic", TotalPosts: 787998,
				Classification: registry.FlawedDemocracy,
			},
			{
				CountryID: "poland", SentimentMean: -0.05, SentimentStd: 0.29,
				DemocracyScore: 6.8, Region: "Europe",
				PoliticalSystem: "Parliamentary Republic", TotalPosts: 138324,
				Classification: registry.FlawedDemocracy,
			},
			{
				CountryID: "sweden", SentimentMean: 0.52, SentimentStd: 0.11,
				DemocracyScore: 9.2, Region: "Europe",
				PoliticalSystem: "Constitutional Monarchy", TotalPosts: 38064,
				Classification: registry.FullDemocracy,
			},
			{
				CountryID: "usa", SentimentMean: 0.28, SentimentStd: 0.09,
				DemocracyScore: 7.8, Region: "North America",
				PoliticalSystem: "Federal Republic", TotalPosts: 1214754,
				Classification: registry.FlawedDemocracy,
			},
		},
		DemocracySentimentCorrelation:  &sentCorr,
		DemocracyVolatilityCorrelation: &volCorr,
		ClassificationStats: []analytics.ClassificationStatistics{
			{Classification: registry.FullDemocracy, CountryCount: 1, SentimentMean: 0.52, MeanVolatility: 0.11, MeanDemocracyScore: 9.2},
			{Classification: registry.FlawedDemocracy, CountryCount: 3, SentimentMean: 0.083, MeanVolatility: 0.23, MeanDemocracyScore: 7.2},
		},
		Methodology: analytics.Methodology{
			SampleSize:   1464,
			TimePeriod:   "2023-03-16 to 2024-03-15",
			CountryCount: 4,
		},
	}
}

func TestGenerator_Generate(t *testing.T) {
	g, _ := testGenerator(t)

	content, err := g.Generate(fixtureResults())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(content, "# Cross-National Political Sentiment Analysis\n"))

	// Methodology section carries the run metadata
	assert.Contains(t, content, "- **Time period**: 2023-03-16 to 2024-03-15")
	assert.Contains(t, content, "- **Sample size**: 1464 observations")
	assert.Contains(t, content, "- **Countries analyzed**: 4")

	// Headline findings pick the right countries
	assert.Contains(t, content, "### Highest political sentiment\n\n**Sweden** (Full Democracy)")
	assert.Contains(t, content, "### Lowest political sentiment\n\n**Poland** (Flawed Democracy)")
	assert.Contains(t, content, "### Most volatile sentiment\n\n**Brazil** (Flawed Democracy)")
	assert.Contains(t, content, "### Most stable sentiment\n\n**USA** (Flawed Democracy)")
	assert.Contains(t, content, "- Sentiment: 0.520 ± 0.110")
	assert.Contains(t, content, "- Total posts: 38064")

	// Correlation readouts use strength wording
	assert.Contains(t, content, "r = 0.820 (very strong positive correlation)")
	assert.Contains(t, content, "r = -0.450 (moderate negative correlation)")

	// Classification comparison table
	assert.Contains(t, content, "| Classification | Countries | Avg Sentiment | Avg Volatility | Avg Democracy Score |")
	assert.Contains(t, content, "| Full Democracy | 1 | 0.520 | 0.110 | 9.2 |")
	assert.Contains(t, content, "| Flawed Democracy | 3 | 0.083 | 0.230 | 7.2 |")

	// Regional notes list members ordered by sentiment
	assert.Contains(t, content, "### Europe (n=2)")
	europeIdx := strings.Index(content, "### Europe")
	swedenIdx := strings.Index(content[europeIdx:], "- Sweden: 0.520")
	polandIdx := strings.Index(content[europeIdx:], "- Poland: -0.050")
	require.Greater(t, swedenIdx, 0)
	require.Greater(t, polandIdx, 0)
	assert.Less(t, swedenIdx, polandIdx)

	assert.Contains(t, content, "## Limitations")
	assert.Contains(t, content, "correlation does not imply causation")
}

func TestGenerator_Generate_UndefinedCorrelations(t *testing.T) {
	g, _ := testGenerator(t)

	results := fixtureResults()
	results.DemocracySentimentCorrelation = nil
	results.DemocracyVolatilityCorrelation = nil

	content, err := g.Generate(results)
	require.NoError(t, err)

	assert.Contains(t, content, "undefined (fewer than two countries, or zero variance)")
	assert.NotContains(t, content, "r = 0.000")
}

func TestGenerator_Generate_NoResults(t *testing.T) {
	g, _ := testGenerator(t)

	_, err := g.Generate(nil)
	assert.Error(t, err)

	_, err = g.Generate(&analytics.AnalysisResults{})
	assert.Error(t, err)
}

func TestGenerator_Save(t *testing.T) {
	g, tempDir := testGenerator(t)

	err := g.Save(fixtureResults(), "analysis_report.md")
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(tempDir, "reports", "analysis_report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Cross-National Political Sentiment Analysis")
}

func TestGenerator_Save_AbsolutePath(t *testing.T) {
	g, _ := testGenerator(t)

	target := filepath.Join(t.TempDir(), "nested", "report.md")
	err := g.Save(fixtureResults(), target)
	require.NoError(t, err)

	_, err = os.Stat(target)
	assert.NoError(t, err)
}

func TestCorrelationStrength(t *testing.T) {
	tests := []struct {
		name     string
		r        float64
		expected string
	}{
		{"very strong positive", 0.82, "very strong"},
		{"very strong boundary", 0.7, "very strong"},
		{"very strong negative", -0.95, "very strong"},
		{"strong", 0.55, "strong"},
		{"strong boundary", 0.5, "strong"},
		{"moderate", -0.45, "moderate"},
		{"moderate boundary", 0.3, "moderate"},
		{"weak", 0.29, "weak"},
		{"weak near zero", -0.01, "weak"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, correlationStrength(tt.r))
		})
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"germany", "Germany"},
		{"usa", "USA"},
		{"uk", "UK"},
		{"brazil", "Brazil"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, titleCase(tt.input))
	}
}
