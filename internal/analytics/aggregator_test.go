package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicpulse/internal/errors"
	"civicpulse/internal/registry"
	"civicpulse/internal/sentiment"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func makeObs(country string, date time.Time, score float64, posts int, democracy float64) sentiment.Observation {
	return sentiment.Observation{
		CountryID:       country,
		Date:            date,
		SentimentScore:  score,
		PostCount:       posts,
		DemocracyScore:  democracy,
		Region:          "Europe",
		PoliticalSystem: "Parliamentary republic",
		Classification:  registry.ClassifyScore(democracy),
	}
}

func TestAggregator_EmptyDataset(t *testing.T) {
	results, err := NewAggregator(nil).Aggregate(context.Background(), nil)
	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, errors.IsType(err, errors.ErrTypeEmptyDataset))
}

func TestAggregator_RejectsDuplicates(t *testing.T) {
	observations := []sentiment.Observation{
		makeObs("sweden", day(2024, 3, 1), 0.4, 100, 9.2),
		makeObs("sweden", day(2024, 3, 1), 0.5, 120, 9.2),
	}

	results, err := NewAggregator(nil).Aggregate(context.Background(), observations)
	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestAggregator_RejectsOutOfRangeObservation(t *testing.T) {
	bad := makeObs("sweden", day(2024, 3, 1), 0.4, 100, 9.2)
	bad.SentimentScore = 1.5

	results, err := NewAggregator(nil).Aggregate(context.Background(), []sentiment.Observation{bad})
	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestAggregator_CountryStatistics(t *testing.T) {
	observations := []sentiment.Observation{
		makeObs("sweden", day(2024, 3, 1), 0.2, 100, 9.2),
		makeObs("sweden", day(2024, 3, 2), 0.4, 110, 9.2),
		makeObs("sweden", day(2024, 3, 3), 0.6, 90, 9.2),
		makeObs("sweden", day(2024, 3, 4), 0.8, 140, 9.2),
	}

	results, err := NewAggregator(nil).Aggregate(context.Background(), observations)
	require.NoError(t, err)
	require.Len(t, results.CountryStats, 1)

	cs := results.CountryStats[0]
	assert.Equal(t, "sweden", cs.CountryID)
	assert.InDelta(t, 0.5, cs.SentimentMean, 1e-9)
	// Sample standard deviation of {0.2, 0.4, 0.6, 0.8} with ddof=1.
	assert.InDelta(t, 0.2581988897, cs.SentimentStd, 1e-9)
	assert.Equal(t, 0.2, cs.SentimentMin)
	assert.Equal(t, 0.8, cs.SentimentMax)
	assert.InDelta(t, 0.5, cs.SentimentMedian, 1e-9)
	assert.Equal(t, 440, cs.TotalPosts)
	assert.InDelta(t, 110.0, cs.AvgPostsPerDay, 1e-9)
	assert.Equal(t, 9.2, cs.DemocracyScore)
	assert.Equal(t, registry.FullDemocracy, cs.Classification)
}

func TestAggregator_CorrelationSanity(t *testing.T) {
	// Sentiment pinned to exactly (democracy-5)/10 for every country and
	// day: the mean correlation must come out at 1.0. With zero
	// within-country variance the volatility correlation is undefined.
	scores := map[string]float64{"a": 3.0, "b": 5.5, "c": 7.0, "d": 9.0}

	var observations []sentiment.Observation
	for id, democracy := range scores {
		for d := 1; d <= 5; d++ {
			observations = append(observations, makeObs(id, day(2024, 1, d), (democracy-5)/10, 10, democracy))
		}
	}

	results, err := NewAggregator(nil).Aggregate(context.Background(), observations)
	require.NoError(t, err)

	require.NotNil(t, results.DemocracySentimentCorrelation)
	assert.InDelta(t, 1.0, *results.DemocracySentimentCorrelation, 1e-6)
	assert.Nil(t, results.DemocracyVolatilityCorrelation, "zero-variance volatility must be undefined")
}

func TestAggregator_SingleCountryCorrelationUndefined(t *testing.T) {
	observations := []sentiment.Observation{
		makeObs("sweden", day(2024, 3, 1), 0.3, 100, 9.2),
		makeObs("sweden", day(2024, 3, 2), 0.5, 110, 9.2),
	}

	results, err := NewAggregator(nil).Aggregate(context.Background(), observations)
	require.NoError(t, err)

	assert.Nil(t, results.DemocracySentimentCorrelation)
	assert.Nil(t, results.DemocracyVolatilityCorrelation)
	require.Len(t, results.CountryStats, 1)
}

func TestAggregator_MonthlyTrends(t *testing.T) {
	observations := []sentiment.Observation{
		makeObs("brazil", day(2024, 1, 10), 0.2, 10, 6.9),
		makeObs("brazil", day(2024, 1, 20), 0.4, 20, 6.9),
		makeObs("brazil", day(2024, 2, 5), 0.6, 30, 6.9),
		makeObs("argentina", day(2024, 1, 15), 0.1, 5, 6.5),
	}

	results, err := NewAggregator(nil).Aggregate(context.Background(), observations)
	require.NoError(t, err)

	require.Len(t, results.MonthlyTrends, 3)

	first := results.MonthlyTrends[0]
	assert.Equal(t, "argentina", first.CountryID)
	assert.Equal(t, "2024-01", first.Month)
	assert.InDelta(t, 0.1, first.SentimentMean, 1e-9)
	assert.Equal(t, 5, first.TotalPosts)

	second := results.MonthlyTrends[1]
	assert.Equal(t, "brazil", second.CountryID)
	assert.Equal(t, "2024-01", second.Month)
	assert.InDelta(t, 0.3, second.SentimentMean, 1e-9)
	assert.InDelta(t, 0.1414213562, second.SentimentStd, 1e-9)
	assert.Equal(t, 30, second.TotalPosts)

	third := results.MonthlyTrends[2]
	assert.Equal(t, "brazil", third.CountryID)
	assert.Equal(t, "2024-02", third.Month)
	assert.Equal(t, 30, third.TotalPosts)
}

func TestAggregator_ClassificationStatistics(t *testing.T) {
	observations := []sentiment.Observation{
		// Two full democracies.
		makeObs("sweden", day(2024, 1, 1), 0.4, 10, 9.2),
		makeObs("sweden", day(2024, 1, 2), 0.4, 10, 9.2),
		makeObs("germany", day(2024, 1, 1), 0.3, 10, 8.7),
		makeObs("germany", day(2024, 1, 2), 0.3, 10, 8.7),
		// One flawed democracy.
		makeObs("poland", day(2024, 1, 1), 0.1, 10, 6.8),
		makeObs("poland", day(2024, 1, 2), 0.2, 10, 6.8),
	}

	results, err := NewAggregator(nil).Aggregate(context.Background(), observations)
	require.NoError(t, err)
	require.Len(t, results.ClassificationStats, 2)

	full := results.ClassificationStats[0]
	assert.Equal(t, registry.FullDemocracy, full.Classification)
	assert.Equal(t, 2, full.CountryCount)
	assert.InDelta(t, 0.35, full.SentimentMean, 1e-9)
	// Sample std of the two per-country means {0.4, 0.3}.
	assert.InDelta(t, 0.0707106781, full.SentimentStd, 1e-9)
	assert.InDelta(t, 0.0, full.MeanVolatility, 1e-9)
	assert.InDelta(t, 8.95, full.MeanDemocracyScore, 1e-9)

	flawed := results.ClassificationStats[1]
	assert.Equal(t, registry.FlawedDemocracy, flawed.Classification)
	assert.Equal(t, 1, flawed.CountryCount)
	assert.InDelta(t, 0.15, flawed.SentimentMean, 1e-9)
	assert.InDelta(t, 6.8, flawed.MeanDemocracyScore, 1e-9)
}

func TestAggregator_Methodology(t *testing.T) {
	observations := []sentiment.Observation{
		makeObs("uk", day(2024, 2, 29), 0.1, 10, 8.3),
		makeObs("uk", day(2024, 3, 1), 0.2, 10, 8.3),
		makeObs("france", day(2024, 1, 5), 0.3, 10, 8.1),
	}

	results, err := NewAggregator(nil).Aggregate(context.Background(), observations)
	require.NoError(t, err)

	assert.Equal(t, 3, results.Methodology.SampleSize)
	assert.Equal(t, 2, results.Methodology.CountryCount)
	assert.Equal(t, "2024-01-05 to 2024-03-01", results.Methodology.TimePeriod)
}

func TestAggregator_EndToEndCorrelations(t *testing.T) {
	profiles, err := registry.Load()
	require.NoError(t, err)

	observations, err := sentiment.NewGenerator(profiles, 42, 365, day(2024, 3, 15), nil).Generate(context.Background())
	require.NoError(t, err)

	results, err := NewAggregator(nil).Aggregate(context.Background(), observations)
	require.NoError(t, err)

	require.Len(t, results.CountryStats, 8)
	assert.Equal(t, 8*366, results.Methodology.SampleSize)

	// The baseline ties sentiment linearly to the democracy score, so the
	// mean correlation comes out strongly positive.
	require.NotNil(t, results.DemocracySentimentCorrelation)
	assert.Greater(t, *results.DemocracySentimentCorrelation, 0.9)

	// High-tension countries sit at the low end of the democracy range and
	// carry the largest volatility, so this one comes out negative.
	require.NotNil(t, results.DemocracyVolatilityCorrelation)
	assert.Less(t, *results.DemocracyVolatilityCorrelation, -0.7)

	sweden, ok := results.StatsFor("sweden")
	require.True(t, ok)
	poland, ok := results.StatsFor("poland")
	require.True(t, ok)
	assert.Greater(t, sweden.SentimentMean, poland.SentimentMean)
	assert.Greater(t, poland.SentimentStd, sweden.SentimentStd)
}
