package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"civicpulse/internal/analytics"
	"civicpulse/internal/config"
	"civicpulse/internal/exporter"
	"civicpulse/internal/registry"
	"civicpulse/internal/report"
	"civicpulse/internal/sentiment"
)

func main() {
	seed := flag.Int64("seed", config.DefaultSeed, "random seed for the deterministic generator")
	windowDays := flag.Int("window", config.DefaultWindowDays, "window size in days ending at the reference date")
	referenceDate := flag.String("date", "", "reference date in YYYY-MM-DD format (defaults to today)")
	outputDir := flag.String("out", "", "output directory for exports and the report (defaults to data/)")
	format := flag.String("format", "all", "artifacts to write: all, csv, json, or xlsx")
	flag.Parse()

	if *windowDays < 1 || *windowDays > config.MaxWindowDays {
		slog.Error("Invalid window size",
			"window", *windowDays,
			"max", config.MaxWindowDays)
		os.Exit(1)
	}

	reference := time.Now().UTC().Truncate(24 * time.Hour)
	if *referenceDate != "" {
		parsed, err := time.Parse("2006-01-02", *referenceDate)
		if err != nil {
			slog.Error("Invalid reference date", "date", *referenceDate, "error", err)
			os.Exit(1)
		}
		reference = parsed
	}

	paths, err := resolvePaths(*outputDir)
	if err != nil {
		slog.Error("Failed to resolve output paths", "error", err)
		os.Exit(1)
	}

	profiles, err := registry.Load()
	if err != nil {
		slog.Error("Failed to load country registry", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded country registry", "countries", len(profiles))

	ctx := context.Background()

	slog.Info("Generating observations...",
		"seed", *seed,
		"window_days", *windowDays,
		"reference_date", reference.Format("2006-01-02"))

	generator := sentiment.NewGenerator(profiles, *seed, *windowDays, reference, slog.Default())
	observations, err := generator.Generate(ctx)
	if err != nil {
		slog.Error("Failed to generate observations", "error", err)
		os.Exit(1)
	}
	slog.Info("Generated observations", "observations", len(observations))

	slog.Info("Aggregating statistics...")
	aggregator := analytics.NewAggregator(slog.Default())
	results, err := aggregator.Aggregate(ctx, observations)
	if err != nil {
		slog.Error("Failed to aggregate observations", "error", err)
		os.Exit(1)
	}

	written, err := writeArtifacts(paths, *format, observations, results)
	if err != nil {
		slog.Error("Failed to write artifacts", "error", err)
		os.Exit(1)
	}

	slog.Info("Report generated successfully",
		"exports_dir", paths.ExportsDir,
		"reports_dir", paths.ReportsDir,
		"files", len(written))

	printSummary(results)
}

// resolvePaths builds the output layout, honoring an explicit output
// directory when one is given
func resolvePaths(outputDir string) (*config.Paths, error) {
	if outputDir == "" {
		paths, err := config.GetPaths()
		if err != nil {
			return nil, err
		}
		if err := paths.EnsureDirectories(); err != nil {
			return nil, err
		}
		return paths, nil
	}

	abs, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, err
	}

	paths := &config.Paths{
		ExecutableDir: abs,
		DataDir:       abs,
		ExportsDir:    filepath.Join(abs, "exports"),
		ReportsDir:    filepath.Join(abs, "reports"),
		LogsDir:       filepath.Join(abs, "logs"),
		ArchiveFile:   filepath.Join(abs, config.ArchiveFileName),
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}
	return paths, nil
}

// writeArtifacts writes the selected artifact set and returns the names written
func writeArtifacts(paths *config.Paths, format string, observations []sentiment.Observation, results *analytics.AnalysisResults) ([]string, error) {
	observationExporter := exporter.NewObservationExporter(paths)
	statisticsExporter := exporter.NewStatisticsExporter(paths)
	resultsExporter := exporter.NewResultsExporter(paths)
	reportGenerator := report.NewGenerator(paths)

	type artifact struct {
		name  string
		write func() error
	}

	var artifacts []artifact

	if format == "all" || format == "csv" {
		artifacts = append(artifacts,
			artifact{exporter.ObservationsFileName, func() error {
				return observationExporter.ExportObservations(observations, exporter.ObservationsFileName)
			}},
			artifact{exporter.CountryFilesDirName, func() error {
				return observationExporter.ExportCountryFiles(observations, exporter.CountryFilesDirName)
			}},
			artifact{exporter.CountryStatsFileName, func() error {
				return statisticsExporter.ExportCountryStatistics(results.CountryStats, exporter.CountryStatsFileName)
			}},
			artifact{exporter.MonthlyTrendsFileName, func() error {
				return statisticsExporter.ExportMonthlyTrends(results.MonthlyTrends, exporter.MonthlyTrendsFileName)
			}},
		)
	}
	if format == "all" || format == "json" {
		artifacts = append(artifacts, artifact{exporter.ResultsJSONFileName, func() error {
			return resultsExporter.ExportJSON(results, exporter.ResultsJSONFileName)
		}})
	}
	if format == "all" || format == "xlsx" {
		artifacts = append(artifacts, artifact{exporter.ResultsWorkbookFileName, func() error {
			return resultsExporter.ExportWorkbook(results, exporter.ResultsWorkbookFileName)
		}})
	}

	if len(artifacts) == 0 {
		return nil, fmt.Errorf("unknown format %q (expected all, csv, json, or xlsx)", format)
	}

	// The markdown report accompanies every format
	artifacts = append(artifacts, artifact{report.DefaultReportFileName, func() error {
		return reportGenerator.Save(results, report.DefaultReportFileName)
	}})

	written := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		if err := a.write(); err != nil {
			return nil, fmt.Errorf("write %s: %w", a.name, err)
		}
		slog.Info("Wrote artifact", "name", a.name)
		written = append(written, a.name)
	}

	return written, nil
}

func printSummary(results *analytics.AnalysisResults) {
	fmt.Println("\n=== COUNTRY SENTIMENT SUMMARY ===")
	fmt.Println("Country          | Mean   | Std    | Median | Democracy | Classification")
	fmt.Println("-----------------|--------|--------|--------|-----------|----------------")

	for _, cs := range results.CountryStats {
		fmt.Printf("%-16s | %6.3f | %6.3f | %6.3f | %9.1f | %s\n",
			cs.CountryID, cs.SentimentMean, cs.SentimentStd, cs.SentimentMedian,
			cs.DemocracyScore, cs.Classification)
	}

	fmt.Println("\n=== CORRELATIONS ===")
	printCorrelation("Democracy score vs mean sentiment", results.DemocracySentimentCorrelation)
	printCorrelation("Democracy score vs volatility    ", results.DemocracyVolatilityCorrelation)

	fmt.Printf("\nSample: %d observations across %d countries (%s)\n",
		results.Methodology.SampleSize,
		results.Methodology.CountryCount,
		results.Methodology.TimePeriod)
}

func printCorrelation(label string, r *float64) {
	if r == nil {
		fmt.Printf("%s: undefined\n", label)
		return
	}
	fmt.Printf("%s: r = %+.4f\n", label, *r)
}
