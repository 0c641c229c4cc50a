package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"civicpulse/internal/analytics"
)

// Workbook sheet names, in display order
const (
	sheetCountryStats    = "Country Statistics"
	sheetMonthlyTrends   = "Monthly Trends"
	sheetClassifications = "Classifications"
)

// ExportWorkbook saves the analysis results as an XLSX workbook with one
// sheet per results section. Headers are styled and the top row is frozen
// so the tables stay readable when scrolled.
func (e *ResultsExporter) ExportWorkbook(results *analytics.AnalysisResults, outputPath string) error {
	if results == nil || len(results.CountryStats) == 0 {
		return fmt.Errorf("no results to export")
	}

	fullPath := e.resolvePath(outputPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	// The default sheet becomes the country statistics sheet
	if err := f.SetSheetName("Sheet1", sheetCountryStats); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}

	if err := e.writeCountryStatsSheet(f, results.CountryStats, headerStyle); err != nil {
		return fmt.Errorf("write country statistics sheet: %w", err)
	}
	if err := e.writeMonthlyTrendsSheet(f, results.MonthlyTrends, headerStyle); err != nil {
		return fmt.Errorf("write monthly trends sheet: %w", err)
	}
	if err := e.writeClassificationsSheet(f, results.ClassificationStats, headerStyle); err != nil {
		return fmt.Errorf("write classifications sheet: %w", err)
	}

	if err := f.SaveAs(fullPath); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func (e *ResultsExporter) writeCountryStatsSheet(f *excelize.File, stats []analytics.CountryStatistics, headerStyle int) error {
	headers := []string{
		"Country", "Sentiment Mean", "Sentiment Std", "Min", "Max", "Median",
		"Total Posts", "Avg Posts/Day", "Democracy Score", "Region",
		"Political System", "Classification",
	}

	rows := make([][]interface{}, 0, len(stats))
	for _, cs := range stats {
		rows = append(rows, []interface{}{
			cs.CountryID, cs.SentimentMean, cs.SentimentStd, cs.SentimentMin,
			cs.SentimentMax, cs.SentimentMedian, cs.TotalPosts, cs.AvgPostsPerDay,
			cs.DemocracyScore, cs.Region, cs.PoliticalSystem, string(cs.Classification),
		})
	}

	return writeSheet(f, sheetCountryStats, headers, rows, headerStyle)
}

func (e *ResultsExporter) writeMonthlyTrendsSheet(f *excelize.File, trends []analytics.MonthlyAggregate, headerStyle int) error {
	if _, err := f.NewSheet(sheetMonthlyTrends); err != nil {
		return err
	}

	headers := []string{"Country", "Month", "Sentiment Mean", "Sentiment Std", "Total Posts"}

	rows := make([][]interface{}, 0, len(trends))
	for _, agg := range trends {
		rows = append(rows, []interface{}{
			agg.CountryID, agg.Month, agg.SentimentMean, agg.SentimentStd, agg.TotalPosts,
		})
	}

	return writeSheet(f, sheetMonthlyTrends, headers, rows, headerStyle)
}

func (e *ResultsExporter) writeClassificationsSheet(f *excelize.File, stats []analytics.ClassificationStatistics, headerStyle int) error {
	if _, err := f.NewSheet(sheetClassifications); err != nil {
		return err
	}

	headers := []string{
		"Classification", "Countries", "Sentiment Mean", "Sentiment Std",
		"Mean Volatility", "Mean Democracy Score",
	}

	rows := make([][]interface{}, 0, len(stats))
	for _, cls := range stats {
		rows = append(rows, []interface{}{
			string(cls.Classification), cls.CountryCount, cls.SentimentMean,
			cls.SentimentStd, cls.MeanVolatility, cls.MeanDemocracyScore,
		})
	}

	return writeSheet(f, sheetClassifications, headers, rows, headerStyle)
}

// writeSheet fills one sheet with a styled header row, data rows, a frozen
// top row, and uniform column widths.
func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}, headerStyle int) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}

	lastHeaderCell, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeaderCell, headerStyle); err != nil {
		return err
	}

	for rowIdx, row := range rows {
		for colIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	lastColName, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastColName, 16); err != nil {
		return err
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
