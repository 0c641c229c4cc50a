package exporter

import (
	"sort"

	"civicpulse/internal/analytics"
	"civicpulse/internal/config"
)

// StatisticsExporter writes the aggregated statistics tables of an analysis run
type StatisticsExporter struct {
	csvWriter *CSVWriter
}

// NewStatisticsExporter creates a new statistics exporter
func NewStatisticsExporter(paths *config.Paths) *StatisticsExporter {
	return &StatisticsExporter{
		csvWriter: NewCSVWriter(paths),
	}
}

// ExportCountryStatistics writes the per-country statistics table as CSV
func (e *StatisticsExporter) ExportCountryStatistics(stats []analytics.CountryStatistics, outputPath string) error {
	sorted := make([]analytics.CountryStatistics, len(stats))
	copy(sorted, stats)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CountryID < sorted[j].CountryID
	})

	csvRecords := make([][]string, 0, len(sorted))
	for _, cs := range sorted {
		csvRecords = append(csvRecords, e.statisticsToCSVRow(cs))
	}

	headers := []string{
		"CountryID", "SentimentMean", "SentimentStd", "SentimentMin", "SentimentMax",
		"SentimentMedian", "TotalPosts", "AvgPostsPerDay", "DemocracyScore",
		"Region", "PoliticalSystem", "Classification",
	}

	return e.csvWriter.WriteSimpleCSV(outputPath, headers, csvRecords)
}

// ExportMonthlyTrends writes the monthly aggregates table as CSV
func (e *StatisticsExporter) ExportMonthlyTrends(trends []analytics.MonthlyAggregate, outputPath string) error {
	csvRecords := make([][]string, 0, len(trends))
	for _, agg := range trends {
		csvRecords = append(csvRecords, []string{
			agg.CountryID,
			agg.Month,
			formatScore(agg.SentimentMean),
			formatScore(agg.SentimentStd),
			formatInt(agg.TotalPosts),
		})
	}

	headers := []string{"CountryID", "Month", "SentimentMean", "SentimentStd", "TotalPosts"}
	return e.csvWriter.WriteSimpleCSV(outputPath, headers, csvRecords)
}

// statisticsToCSVRow converts a country statistics row to CSV fields
func (e *StatisticsExporter) statisticsToCSVRow(cs analytics.CountryStatistics) []string {
	return []string{
		cs.CountryID,
		formatScore(cs.SentimentMean),
		formatScore(cs.SentimentStd),
		formatScore(cs.SentimentMin),
		formatScore(cs.SentimentMax),
		formatScore(cs.SentimentMedian),
		formatInt(cs.TotalPosts),
		formatFloat(cs.AvgPostsPerDay),
		formatFloat(cs.DemocracyScore),
		cs.Region,
		cs.PoliticalSystem,
		string(cs.Classification),
	}
}
