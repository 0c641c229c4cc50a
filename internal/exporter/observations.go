package exporter

import (
	"fmt"
	"path/filepath"
	"sort"

	"civicpulse/internal/config"
	"civicpulse/internal/sentiment"
)

// ObservationExporter handles export of the generated observation dataset
type ObservationExporter struct {
	csvWriter *CSVWriter
}

// NewObservationExporter creates a new observation dataset exporter
func NewObservationExporter(paths *config.Paths) *ObservationExporter {
	return &ObservationExporter{
		csvWriter: NewCSVWriter(paths),
	}
}

// ExportObservations writes the full dataset to a single CSV file, ordered
// by country and chronologically within each country.
func (e *ObservationExporter) ExportObservations(observations []sentiment.Observation, outputPath string) error {
	sorted := make([]sentiment.Observation, len(observations))
	copy(sorted, observations)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CountryID == sorted[j].CountryID {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].CountryID < sorted[j].CountryID
	})

	csvRecords := make([][]string, 0, len(sorted))
	for _, obs := range sorted {
		csvRecords = append(csvRecords, e.observationToCSVRow(obs))
	}

	return e.csvWriter.WriteSimpleCSV(outputPath, e.getHeaders(), csvRecords)
}

// ExportCountryFiles generates one history CSV per country
func (e *ObservationExporter) ExportCountryFiles(observations []sentiment.Observation, outputDir string) error {
	byCountry := make(map[string][]sentiment.Observation)
	for _, obs := range observations {
		byCountry[obs.CountryID] = append(byCountry[obs.CountryID], obs)
	}

	var countries []string
	for id := range byCountry {
		countries = append(countries, id)
	}
	sort.Strings(countries)

	for _, id := range countries {
		series := byCountry[id]
		sort.Slice(series, func(i, j int) bool {
			return series[i].Date.Before(series[j].Date)
		})

		csvRecords := make([][]string, 0, len(series))
		for _, obs := range series {
			csvRecords = append(csvRecords, e.observationToCSVRow(obs))
		}

		filename := fmt.Sprintf("%s_sentiment_history.csv", id)
		filePath := filepath.Join(outputDir, filename)
		if err := e.csvWriter.WriteSimpleCSV(filePath, e.getHeaders(), csvRecords); err != nil {
			return fmt.Errorf("failed to write country file for %s: %w", id, err)
		}
	}

	return nil
}

// ExportObservationsStreaming writes the dataset through the stream writer,
// avoiding a second in-memory copy for large windows.
func (e *ObservationExporter) ExportObservationsStreaming(observations []sentiment.Observation, outputPath string) error {
	stream, err := e.csvWriter.CreateStreamWriter(outputPath, e.getHeaders())
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	for _, obs := range observations {
		if err := stream.WriteRecord(e.observationToCSVRow(obs)); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write observation record: %w", err)
		}
	}

	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close stream: %w", err)
	}
	return nil
}

// getHeaders returns the CSV headers for observation rows
func (e *ObservationExporter) getHeaders() []string {
	return []string{
		"Date", "CountryID", "SentimentScore", "PostCount",
		"DemocracyScore", "Region", "PoliticalSystem", "Classification",
	}
}

// observationToCSVRow converts an observation to a CSV row
func (e *ObservationExporter) observationToCSVRow(obs sentiment.Observation) []string {
	return []string{
		obs.Date.Format("2006-01-02"),
		obs.CountryID,
		formatScore(obs.SentimentScore),
		formatInt(obs.PostCount),
		formatFloat(obs.DemocracyScore),
		obs.Region,
		obs.PoliticalSystem,
		string(obs.Classification),
	}
}
