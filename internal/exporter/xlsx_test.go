package exporter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"civicpulse/internal/analytics"
)

func TestResultsExporter_ExportWorkbook(t *testing.T) {
	paths, tempDir := testPaths(t)
	exporter := NewResultsExporter(paths)

	err := exporter.ExportWorkbook(sampleResults(), "analysis_results.xlsx")
	require.NoError(t, err)

	workbookPath := filepath.Join(tempDir, "exports", "analysis_results.xlsx")
	f, err := excelize.OpenFile(workbookPath)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t,
		[]string{"Country Statistics", "Monthly Trends", "Classifications"},
		f.GetSheetList())

	// Country statistics sheet: header row plus one row per country
	rows, err := f.GetRows("Country Statistics")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Country", rows[0][0])
	assert.Equal(t, "Classification", rows[0][11])
	assert.Equal(t, "sweden", rows[1][0])
	assert.Equal(t, "0.52", rows[1][1])
	assert.Equal(t, "Full Democracy", rows[1][11])
	assert.Equal(t, "brazil", rows[2][0])
	assert.Equal(t, "787998", rows[2][6])

	// Monthly trends sheet
	rows, err = f.GetRows("Monthly Trends")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Country", "Month", "Sentiment Mean", "Sentiment Std", "Total Posts"}, rows[0])
	assert.Equal(t, "sweden", rows[1][0])
	assert.Equal(t, "2024-01", rows[1][1])

	// Classifications sheet
	rows, err = f.GetRows("Classifications")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Full Democracy", rows[1][0])
	assert.Equal(t, "1", rows[1][1])
	assert.Equal(t, "9.2", rows[1][5])
}

func TestResultsExporter_ExportWorkbook_FrozenHeader(t *testing.T) {
	paths, tempDir := testPaths(t)
	exporter := NewResultsExporter(paths)

	err := exporter.ExportWorkbook(sampleResults(), "frozen.xlsx")
	require.NoError(t, err)

	f, err := excelize.OpenFile(filepath.Join(tempDir, "exports", "frozen.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	panes, err := f.GetPanes("Country Statistics")
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)
}

func TestResultsExporter_ExportWorkbook_NoResults(t *testing.T) {
	paths, _ := testPaths(t)
	exporter := NewResultsExporter(paths)

	err := exporter.ExportWorkbook(&analytics.AnalysisResults{}, "empty.xlsx")
	assert.Error(t, err)
}
