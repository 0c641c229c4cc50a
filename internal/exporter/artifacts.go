package exporter

// Default artifact filenames written by a full analysis run. Relative
// names resolve under the exports directory.
const (
	ObservationsFileName    = "observations.csv"
	CountryStatsFileName    = "country_statistics.csv"
	MonthlyTrendsFileName   = "monthly_trends.csv"
	ResultsJSONFileName     = "analysis_results.json"
	ResultsWorkbookFileName = "analysis_results.xlsx"
	CountryFilesDirName     = "countries"
)
