// Package exporter writes analysis output to disk in machine-readable formats.
//
// This package contains four main components:
//
// CSVWriter: Core CSV writing functionality with support for headers, streaming,
// and UTF-8 BOM for Excel compatibility.
//
// ObservationExporter: Handles the observation dataset, both as one combined
// CSV and as per-country history files.
//
// StatisticsExporter: Writes the per-country statistics table produced by an
// analysis run.
//
// ResultsExporter: Writes the full analysis results document as JSON with a
// metadata envelope, and as an XLSX workbook with one sheet per results
// section.
//
// Example usage:
//
//	// Export the generated observations
//	obsExporter := exporter.NewObservationExporter(paths)
//	err := obsExporter.ExportObservations(observations, "sentiment_observations.csv")
//
//	// Export the per-country statistics table
//	statsExporter := exporter.NewStatisticsExporter(paths)
//	err = statsExporter.ExportCountryStatistics(results.CountryStats, "country_statistics.csv")
//
//	// Export the full results document
//	resultsExporter := exporter.NewResultsExporter(paths)
//	err = resultsExporter.ExportJSON(results, "analysis_results.json")
//	err = resultsExporter.ExportWorkbook(results, "analysis_results.xlsx")
package exporter
