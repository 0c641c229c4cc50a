package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"civicpulse/internal/analytics"
	"civicpulse/internal/config"
)

// ResultsExporter writes the full analysis results document to disk,
// as JSON with a metadata envelope and as an XLSX workbook.
type ResultsExporter struct {
	paths *config.Paths
}

// NewResultsExporter creates a new results document exporter
func NewResultsExporter(paths *config.Paths) *ResultsExporter {
	return &ResultsExporter{paths: paths}
}

// ExportJSON saves the analysis results to a JSON file with structured format
func (e *ResultsExporter) ExportJSON(results *analytics.AnalysisResults, outputPath string) error {
	if results == nil || len(results.CountryStats) == 0 {
		return fmt.Errorf("no results to export")
	}

	fullPath := e.resolvePath(outputPath)

	// Ensure output directory exists
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// Create structured output format
	output := map[string]interface{}{
		"metadata": map[string]interface{}{
			"application":   config.AppName,
			"version":       config.AppVersion,
			"generated_at":  time.Now().Format(time.RFC3339),
			"sample_size":   results.Methodology.SampleSize,
			"country_count": results.Methodology.CountryCount,
			"time_period":   results.Methodology.TimePeriod,
		},
		"results": results,
	}

	// Create JSON file
	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("create JSON file: %w", err)
	}
	defer file.Close()

	// Write JSON with pretty printing
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}

	return nil
}

// resolvePath resolves relative export paths against the exports directory
func (e *ResultsExporter) resolvePath(outputPath string) string {
	if filepath.IsAbs(outputPath) {
		return outputPath
	}
	return e.paths.GetExportPath(outputPath)
}
