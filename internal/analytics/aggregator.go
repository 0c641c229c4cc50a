package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"civicpulse/internal/errors"
	"civicpulse/internal/registry"
	"civicpulse/internal/sentiment"
)

// Aggregator turns raw sentiment observations into AnalysisResults. It is
// stateless; one instance can serve any number of runs.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an aggregator with the given logger
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// Aggregate computes per-country, monthly and classification statistics
// plus the democracy correlations over the full observation set.
func (a *Aggregator) Aggregate(ctx context.Context, observations []sentiment.Observation) (*AnalysisResults, error) {
	start := time.Now()

	if len(observations) == 0 {
		return nil, errors.NewEmptyDatasetError("no observations to aggregate")
	}

	a.logger.InfoContext(ctx, "starting statistical aggregation",
		"observations", len(observations),
	)

	grouped, err := groupByCountry(observations)
	if err != nil {
		a.logger.ErrorContext(ctx, "observation validation failed", "error", err)
		return nil, err
	}

	stats := make([]CountryStatistics, 0, len(grouped))
	for id, country := range grouped {
		stats = append(stats, countryStatistics(id, country))
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].CountryID < stats[j].CountryID })

	meanCorr, volCorr := a.correlations(ctx, stats)

	results := &AnalysisResults{
		CountryStats:                   stats,
		DemocracySentimentCorrelation:  meanCorr,
		DemocracyVolatilityCorrelation: volCorr,
		MonthlyTrends:                  monthlyAggregates(grouped),
		ClassificationStats:            classificationStatistics(stats),
		Methodology:                    methodology(observations, len(grouped)),
	}

	a.logger.InfoContext(ctx, "statistical aggregation completed",
		"countries", len(stats),
		"monthly_rows", len(results.MonthlyTrends),
		"duration", time.Since(start),
	)

	return results, nil
}

// groupByCountry splits observations per country while enforcing the
// one-observation-per-(country, day) invariant.
func groupByCountry(observations []sentiment.Observation) (map[string][]sentiment.Observation, error) {
	grouped := make(map[string][]sentiment.Observation)
	seen := make(map[string]struct{}, len(observations))

	for i, obs := range observations {
		if !obs.IsValid() {
			return nil, errors.NewAppValidationError(fmt.Sprintf("observation %d for country %q is out of range", i, obs.CountryID))
		}
		key := obs.CountryID + "|" + obs.Date.Format("2006-01-02")
		if _, dup := seen[key]; dup {
			return nil, errors.NewAppValidationError(fmt.Sprintf("duplicate observation for %s on %s", obs.CountryID, obs.Date.Format("2006-01-02")))
		}
		seen[key] = struct{}{}
		grouped[obs.CountryID] = append(grouped[obs.CountryID], obs)
	}

	return grouped, nil
}

func countryStatistics(countryID string, observations []sentiment.Observation) CountryStatistics {
	scores := make([]float64, len(observations))
	totalPosts := 0
	for i, obs := range observations {
		scores[i] = obs.SentimentScore
		totalPosts += obs.PostCount
	}

	minScore, maxScore := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}

	profile := observations[0]
	return CountryStatistics{
		CountryID:       countryID,
		SentimentMean:   Mean(scores),
		SentimentStd:    SampleStd(scores),
		SentimentMin:    minScore,
		SentimentMax:    maxScore,
		SentimentMedian: Median(scores),
		TotalPosts:      totalPosts,
		AvgPostsPerDay:  float64(totalPosts) / float64(len(observations)),
		DemocracyScore:  profile.DemocracyScore,
		Region:          profile.Region,
		PoliticalSystem: profile.PoliticalSystem,
		Classification:  profile.Classification,
	}
}

// correlations computes the two democracy correlations across countries.
// An undefined correlation is reported as nil, never forced to zero.
func (a *Aggregator) correlations(ctx context.Context, stats []CountryStatistics) (*float64, *float64) {
	democracy := make([]float64, len(stats))
	means := make([]float64, len(stats))
	stds := make([]float64, len(stats))
	for i, cs := range stats {
		democracy[i] = cs.DemocracyScore
		means[i] = cs.SentimentMean
		stds[i] = cs.SentimentStd
	}

	var meanCorr, volCorr *float64
	if r, err := Pearson(means, democracy); err != nil {
		a.logger.WarnContext(ctx, "democracy-sentiment correlation undefined", "reason", err.Error())
	} else {
		meanCorr = &r
	}
	if r, err := Pearson(stds, democracy); err != nil {
		a.logger.WarnContext(ctx, "democracy-volatility correlation undefined", "reason", err.Error())
	} else {
		volCorr = &r
	}
	return meanCorr, volCorr
}

func monthlyAggregates(grouped map[string][]sentiment.Observation) []MonthlyAggregate {
	type bucket struct {
		scores []float64
		posts  int
	}
	type key struct {
		countryID string
		month     string
	}

	buckets := make(map[key]*bucket)
	for id, country := range grouped {
		for _, obs := range country {
			k := key{countryID: id, month: obs.Date.Format("2006-01")}
			b := buckets[k]
			if b == nil {
				b = &bucket{}
				buckets[k] = b
			}
			b.scores = append(b.scores, obs.SentimentScore)
			b.posts += obs.PostCount
		}
	}

	aggregates := make([]MonthlyAggregate, 0, len(buckets))
	for k, b := range buckets {
		aggregates = append(aggregates, MonthlyAggregate{
			CountryID:     k.countryID,
			Month:         k.month,
			SentimentMean: Mean(b.scores),
			SentimentStd:  SampleStd(b.scores),
			TotalPosts:    b.posts,
		})
	}

	sort.Slice(aggregates, func(i, j int) bool {
		if aggregates[i].CountryID != aggregates[j].CountryID {
			return aggregates[i].CountryID < aggregates[j].CountryID
		}
		return aggregates[i].Month < aggregates[j].Month
	})

	return aggregates
}

// classificationRank fixes the output order of regime bands from most to
// least democratic.
func classificationRank(c registry.Classification) int {
	switch c {
	case registry.FullDemocracy:
		return 0
	case registry.FlawedDemocracy:
		return 1
	case registry.HybridRegime:
		return 2
	case registry.Authoritarian:
		return 3
	default:
		return 4
	}
}

func classificationStatistics(stats []CountryStatistics) []ClassificationStatistics {
	type bucket struct {
		means     []float64
		stds      []float64
		democracy []float64
	}

	buckets := make(map[registry.Classification]*bucket)
	for _, cs := range stats {
		b := buckets[cs.Classification]
		if b == nil {
			b = &bucket{}
			buckets[cs.Classification] = b
		}
		b.means = append(b.means, cs.SentimentMean)
		b.stds = append(b.stds, cs.SentimentStd)
		b.democracy = append(b.democracy, cs.DemocracyScore)
	}

	aggregates := make([]ClassificationStatistics, 0, len(buckets))
	for classification, b := range buckets {
		aggregates = append(aggregates, ClassificationStatistics{
			Classification:     classification,
			CountryCount:       len(b.means),
			SentimentMean:      Mean(b.means),
			SentimentStd:       SampleStd(b.means),
			MeanVolatility:     Mean(b.stds),
			MeanDemocracyScore: Mean(b.democracy),
		})
	}

	sort.Slice(aggregates, func(i, j int) bool {
		return classificationRank(aggregates[i].Classification) < classificationRank(aggregates[j].Classification)
	})

	return aggregates
}

func methodology(observations []sentiment.Observation, countryCount int) Methodology {
	earliest, latest := observations[0].Date, observations[0].Date
	for _, obs := range observations[1:] {
		if obs.Date.Before(earliest) {
			earliest = obs.Date
		}
		if obs.Date.After(latest) {
			latest = obs.Date
		}
	}

	return Methodology{
		SampleSize:   len(observations),
		TimePeriod:   fmt.Sprintf("%s to %s", earliest.Format("2006-01-02"), latest.Format("2006-01-02")),
		CountryCount: countryCount,
	}
}
