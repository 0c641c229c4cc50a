package analytics

import (
	"civicpulse/internal/registry"
)

// CountryStatistics summarizes one country's sentiment series. It is
// recomputed in full on every analysis run, never updated incrementally.
type CountryStatistics struct {
	CountryID       string                  `json:"country_id"`
	SentimentMean   float64                 `json:"sentiment_mean"`
	SentimentStd    float64                 `json:"sentiment_std"`
	SentimentMin    float64                 `json:"sentiment_min"`
	SentimentMax    float64                 `json:"sentiment_max"`
	SentimentMedian float64                 `json:"sentiment_median"`
	TotalPosts      int                     `json:"total_posts"`
	AvgPostsPerDay  float64                 `json:"avg_posts_per_day"`
	DemocracyScore  float64                 `json:"democracy_score"`
	Region          string                  `json:"region"`
	PoliticalSystem string                  `json:"political_system"`
	Classification  registry.Classification `json:"classification"`
}

// MonthlyAggregate is the sentiment summary for one (country, calendar
// month) pair. Month uses the "2006-01" layout so lexicographic order is
// chronological order.
type MonthlyAggregate struct {
	CountryID     string  `json:"country_id"`
	Month         string  `json:"month"`
	SentimentMean float64 `json:"sentiment_mean"`
	SentimentStd  float64 `json:"sentiment_std"`
	TotalPosts    int     `json:"total_posts"`
}

// ClassificationStatistics aggregates countries sharing a democracy
// classification. Sentiment figures are computed over the per-country
// means, volatility over the per-country standard deviations.
type ClassificationStatistics struct {
	Classification     registry.Classification `json:"classification"`
	CountryCount       int                     `json:"country_count"`
	SentimentMean      float64                 `json:"sentiment_mean"`
	SentimentStd       float64                 `json:"sentiment_std"`
	MeanVolatility     float64                 `json:"mean_volatility"`
	MeanDemocracyScore float64                 `json:"mean_democracy_score"`
}

// Methodology records how the analyzed dataset was shaped
type Methodology struct {
	SampleSize   int    `json:"sample_size"`
	TimePeriod   string `json:"time_period"`
	CountryCount int    `json:"country_count"`
}

// AnalysisResults is the full output of one aggregation run. The two
// correlation coefficients are nil when undefined (fewer than two
// countries, or zero variance in either series); consumers must render
// them as absent rather than zero.
type AnalysisResults struct {
	CountryStats                   []CountryStatistics        `json:"country_statistics"`
	DemocracySentimentCorrelation  *float64                   `json:"democracy_sentiment_correlation"`
	DemocracyVolatilityCorrelation *float64                   `json:"democracy_volatility_correlation"`
	MonthlyTrends                  []MonthlyAggregate         `json:"monthly_trends"`
	ClassificationStats            []ClassificationStatistics `json:"classification_statistics"`
	Methodology                    Methodology                `json:"methodology"`
}

// StatsFor returns the statistics row for a country ID, if present
func (r *AnalysisResults) StatsFor(countryID string) (CountryStatistics, bool) {
	for _, cs := range r.CountryStats {
		if cs.CountryID == countryID {
			return cs, true
		}
	}
	return CountryStatistics{}, false
}
