// Package report renders the narrative markdown report for an analysis run.
// It formats what the aggregator produced; all statistics are computed
// upstream in the analytics package.
package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"civicpulse/internal/analytics"
	"civicpulse/internal/config"
)

// DefaultReportFileName is where a run saves its report unless told
// otherwise. Relative names resolve under the reports directory.
const DefaultReportFileName = "sentiment_report.md"

// Generator builds markdown insight reports from analysis results
type Generator struct {
	paths *config.Paths
}

// NewGenerator creates a new report generator
func NewGenerator(paths *config.Paths) *Generator {
	return &Generator{paths: paths}
}

// Generate renders the full markdown report as a string
func (g *Generator) Generate(results *analytics.AnalysisResults) (string, error) {
	if results == nil || len(results.CountryStats) == 0 {
		return "", fmt.Errorf("no results to report")
	}

	var b strings.Builder

	g.writeHeader(&b, results)
	g.writeHeadlineFindings(&b, results.CountryStats)
	g.writeCorrelations(&b, results)
	g.writeClassificationComparison(&b, results.ClassificationStats)
	g.writeRegionalNotes(&b, results.CountryStats)
	g.writeLimitations(&b)

	return b.String(), nil
}

// Save renders the report and writes it under the reports directory.
// An absolute outputPath is used as-is.
func (g *Generator) Save(results *analytics.AnalysisResults, outputPath string) error {
	content, err := g.Generate(results)
	if err != nil {
		return err
	}

	fullPath := outputPath
	if !filepath.IsAbs(fullPath) {
		fullPath = g.paths.GetReportPath(outputPath)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func (g *Generator) writeHeader(b *strings.Builder, results *analytics.AnalysisResults) {
	fmt.Fprintf(b, "# Cross-National Political Sentiment Analysis\n\n")
	fmt.Fprintf(b, "Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	fmt.Fprintf(b, "## Methodology\n\n")
	fmt.Fprintf(b, "- **Time period**: %s\n", results.Methodology.TimePeriod)
	fmt.Fprintf(b, "- **Sample size**: %d observations\n", results.Methodology.SampleSize)
	fmt.Fprintf(b, "- **Countries analyzed**: %d\n\n", results.Methodology.CountryCount)
}

func (g *Generator) writeHeadlineFindings(b *strings.Builder, stats []analytics.CountryStatistics) {
	best := stats[0]
	worst := stats[0]
	mostVolatile := stats[0]
	mostStable := stats[0]
	for _, cs := range stats[1:] {
		if cs.SentimentMean > best.SentimentMean {
			best = cs
		}
		if cs.SentimentMean < worst.SentimentMean {
			worst = cs
		}
		if cs.SentimentStd > mostVolatile.SentimentStd {
			mostVolatile = cs
		}
		if cs.SentimentStd < mostStable.SentimentStd {
			mostStable = cs
		}
	}

	fmt.Fprintf(b, "## Headline Findings\n\n")

	fmt.Fprintf(b, "### Highest political sentiment\n\n")
	g.writeCountryCard(b, best)

	fmt.Fprintf(b, "### Lowest political sentiment\n\n")
	g.writeCountryCard(b, worst)

	fmt.Fprintf(b, "### Most volatile sentiment\n\n")
	fmt.Fprintf(b, "**%s** (%s)\n\n", titleCase(mostVolatile.CountryID), mostVolatile.Classification)
	fmt.Fprintf(b, "- Volatility (std): %.3f\n", mostVolatile.SentimentStd)
	fmt.Fprintf(b, "- Average sentiment: %.3f\n", mostVolatile.SentimentMean)
	fmt.Fprintf(b, "- Democracy score: %.1f/10\n\n", mostVolatile.DemocracyScore)

	fmt.Fprintf(b, "### Most stable sentiment\n\n")
	fmt.Fprintf(b, "**%s** (%s)\n\n", titleCase(mostStable.CountryID), mostStable.Classification)
	fmt.Fprintf(b, "- Volatility (std): %.3f\n", mostStable.SentimentStd)
	fmt.Fprintf(b, "- Average sentiment: %.3f\n", mostStable.SentimentMean)
	fmt.Fprintf(b, "- Democracy score: %.1f/10\n\n", mostStable.DemocracyScore)
}

func (g *Generator) writeCountryCard(b *strings.Builder, cs analytics.CountryStatistics) {
	fmt.Fprintf(b, "**%s** (%s)\n\n", titleCase(cs.CountryID), cs.Classification)
	fmt.Fprintf(b, "- Sentiment: %.3f ± %.3f\n", cs.SentimentMean, cs.SentimentStd)
	fmt.Fprintf(b, "- Democracy score: %.1f/10\n", cs.DemocracyScore)
	fmt.Fprintf(b, "- Political system: %s\n", cs.PoliticalSystem)
	fmt.Fprintf(b, "- Total posts: %d\n\n", cs.TotalPosts)
}

func (g *Generator) writeCorrelations(b *strings.Builder, results *analytics.AnalysisResults) {
	fmt.Fprintf(b, "## Correlation Analysis\n\n")
	fmt.Fprintf(b, "- **Democracy score vs. mean sentiment**: %s\n",
		correlationReadout(results.DemocracySentimentCorrelation))
	fmt.Fprintf(b, "- **Democracy score vs. sentiment volatility**: %s\n\n",
		correlationReadout(results.DemocracyVolatilityCorrelation))
	fmt.Fprintf(b, "Correlation does not imply causation; both readouts describe the\n")
	fmt.Fprintf(b, "cross-country association within this dataset only.\n\n")
}

func (g *Generator) writeClassificationComparison(b *strings.Builder, stats []analytics.ClassificationStatistics) {
	if len(stats) == 0 {
		return
	}

	fmt.Fprintf(b, "## Classification Comparison\n\n")
	fmt.Fprintf(b, "| Classification | Countries | Avg Sentiment | Avg Volatility | Avg Democracy Score |\n")
	fmt.Fprintf(b, "|---|---|---|---|---|\n")
	for _, cls := range stats {
		fmt.Fprintf(b, "| %s | %d | %.3f | %.3f | %.1f |\n",
			cls.Classification, cls.CountryCount, cls.SentimentMean,
			cls.MeanVolatility, cls.MeanDemocracyScore)
	}
	fmt.Fprintf(b, "\n")
}

func (g *Generator) writeRegionalNotes(b *strings.Builder, stats []analytics.CountryStatistics) {
	byRegion := make(map[string][]analytics.CountryStatistics)
	for _, cs := range stats {
		byRegion[cs.Region] = append(byRegion[cs.Region], cs)
	}

	var regions []string
	for region := range byRegion {
		regions = append(regions, region)
	}
	sort.Strings(regions)

	fmt.Fprintf(b, "## Regional Patterns\n\n")
	for _, region := range regions {
		members := byRegion[region]
		sort.Slice(members, func(i, j int) bool {
			return members[i].SentimentMean > members[j].SentimentMean
		})

		fmt.Fprintf(b, "### %s (n=%d)\n\n", region, len(members))
		for _, cs := range members {
			fmt.Fprintf(b, "- %s: %.3f ± %.3f (democracy %.1f)\n",
				titleCase(cs.CountryID), cs.SentimentMean, cs.SentimentStd, cs.DemocracyScore)
		}
		fmt.Fprintf(b, "\n")
	}
}

func (g *Generator) writeLimitations(b *strings.Builder) {
	fmt.Fprintf(b, "## Limitations\n\n")
	fmt.Fprintf(b, "- **Simulated data**: observations are generated, not collected from live platforms\n")
	fmt.Fprintf(b, "- **Time scope**: findings cover the configured window only\n")
	fmt.Fprintf(b, "- **Country scope**: limited to the registered country profiles\n")
	fmt.Fprintf(b, "- **Causality**: correlation does not imply causation\n")
}

// correlationReadout renders one coefficient with strength wording, or an
// explicit undefined marker when the coefficient could not be computed.
func correlationReadout(r *float64) string {
	if r == nil {
		return "undefined (fewer than two countries, or zero variance)"
	}
	return fmt.Sprintf("r = %.3f (%s %s correlation)", *r, correlationStrength(*r), correlationDirection(*r))
}

func correlationStrength(r float64) string {
	switch abs := math.Abs(r); {
	case abs >= 0.7:
		return "very strong"
	case abs >= 0.5:
		return "strong"
	case abs >= 0.3:
		return "moderate"
	default:
		return "weak"
	}
}

func correlationDirection(r float64) string {
	if r < 0 {
		return "negative"
	}
	return "positive"
}

// titleCase renders a registry country ID for display. IDs are lowercase
// single words; short all-letter IDs that read as initialisms stay upper.
func titleCase(countryID string) string {
	if countryID == "" {
		return countryID
	}
	if len(countryID) <= 3 {
		return strings.ToUpper(countryID)
	}
	return strings.ToUpper(countryID[:1]) + countryID[1:]
}
