package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicpulse/internal/config"
)

// Setup test environment
func setupTestEnv(t *testing.T) (*CSVWriter, string) {
	t.Helper()

	tempDir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "exports"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "reports"), 0755))

	writer := NewCSVWriter(&config.Paths{
		ExportsDir: filepath.Join(tempDir, "exports"),
		ReportsDir: filepath.Join(tempDir, "reports"),
	})

	return writer, tempDir
}

func TestNewCSVWriter(t *testing.T) {
	paths := &config.Paths{}
	writer := NewCSVWriter(paths)

	assert.NotNil(t, writer)
	assert.Equal(t, paths, writer.paths)
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	tests := []struct {
		name        string
		filePath    string
		options     WriteOptions
		expectError bool
		validate    func(t *testing.T, filePath string)
	}{
		{
			name:     "basic write with headers",
			filePath: "test_basic.csv",
			options: WriteOptions{
				Headers: []string{"CountryID", "Score", "Region"},
				Records: [][]string{
					{"germany", "0.3700", "Europe"},
					{"poland", "-0.1200", "Europe"},
				},
				Append:    false,
				BOMPrefix: false,
			},
			validate: func(t *testing.T, filePath string) {
				content, err := os.ReadFile(filePath)
				require.NoError(t, err)

				lines := strings.Split(strings.TrimSpace(string(content)), "\n")
				assert.Len(t, lines, 3) // header + 2 records
				assert.Equal(t, "CountryID,Score,Region", lines[0])
				assert.Equal(t, "germany,0.3700,Europe", lines[1])
				assert.Equal(t, "poland,-0.1200,Europe", lines[2])
			},
		},
		{
			name:     "write with BOM prefix",
			filePath: "test_bom.csv",
			options: WriteOptions{
				Headers: []string{"CountryID", "Score"},
				Records: [][]string{
					{"sweden", "0.5100"},
				},
				Append:    false,
				BOMPrefix: true,
			},
			validate: func(t *testing.T, filePath string) {
				content, err := os.ReadFile(filePath)
				require.NoError(t, err)

				// Check for UTF-8 BOM
				assert.True(t, bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}))

				contentWithoutBOM := content[3:]
				lines := strings.Split(strings.TrimSpace(string(contentWithoutBOM)), "\n")
				assert.Equal(t, "CountryID,Score", lines[0])
				assert.Equal(t, "sweden,0.5100", lines[1])
			},
		},
		{
			name:     "write without headers",
			filePath: "test_no_headers.csv",
			options: WriteOptions{
				Headers: nil,
				Records: [][]string{
					{"Data1", "Data2"},
					{"Data3", "Data4"},
				},
				Append:    false,
				BOMPrefix: false,
			},
			validate: func(t *testing.T, filePath string) {
				content, err := os.ReadFile(filePath)
				require.NoError(t, err)

				lines := strings.Split(strings.TrimSpace(string(content)), "\n")
				assert.Len(t, lines, 2) // only records, no headers
				assert.Equal(t, "Data1,Data2", lines[0])
				assert.Equal(t, "Data3,Data4", lines[1])
			},
		},
		{
			name:     "empty records",
			filePath: "test_empty.csv",
			options: WriteOptions{
				Headers:   []string{"Col1", "Col2"},
				Records:   [][]string{},
				Append:    false,
				BOMPrefix: false,
			},
			validate: func(t *testing.T, filePath string) {
				content, err := os.ReadFile(filePath)
				require.NoError(t, err)

				lines := strings.Split(strings.TrimSpace(string(content)), "\n")
				assert.Len(t, lines, 1) // only headers
				assert.Equal(t, "Col1,Col2", lines[0])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fullPath := filepath.Join(tempDir, "exports", tt.filePath)

			err := writer.WriteCSV(tt.filePath, tt.options)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				tt.validate(t, fullPath)
			}
		})
	}
}

func TestCSVWriter_WriteSimpleCSV(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	headers := []string{"CountryID", "Classification", "DemocracyScore"}
	records := [][]string{
		{"germany", "Full Democracy", "8.70"},
		{"brazil", "Flawed Democracy", "6.90"},
	}

	err := writer.WriteSimpleCSV("simple_test.csv", headers, records)
	assert.NoError(t, err)

	filePath := filepath.Join(tempDir, "exports", "simple_test.csv")
	content, err := os.ReadFile(filePath)
	require.NoError(t, err)

	// WriteSimpleCSV adds the BOM
	assert.True(t, bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}))

	contentWithoutBOM := content[3:]
	lines := strings.Split(strings.TrimSpace(string(contentWithoutBOM)), "\n")
	assert.Len(t, lines, 3) // header + 2 records
	assert.Equal(t, "CountryID,Classification,DemocracyScore", lines[0])
	assert.Equal(t, "germany,Full Democracy,8.70", lines[1])
	assert.Equal(t, "brazil,Flawed Democracy,6.90", lines[2])
}

func TestCSVWriter_AppendToCSV(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	filePath := "append_test.csv"
	fullPath := filepath.Join(tempDir, "exports", filePath)

	initialRecords := [][]string{
		{"Initial1", "Initial2"},
		{"Data1", "Data2"},
	}
	err := writer.WriteSimpleCSV(filePath, []string{"Col1", "Col2"}, initialRecords)
	require.NoError(t, err)

	appendRecords := [][]string{
		{"Appended1", "Appended2"},
	}
	err = writer.AppendToCSV(filePath, appendRecords)
	assert.NoError(t, err)

	content, err := os.ReadFile(fullPath)
	require.NoError(t, err)

	contentWithoutBOM := content[3:]
	lines := strings.Split(strings.TrimSpace(string(contentWithoutBOM)), "\n")

	assert.Len(t, lines, 4) // header + 2 initial + 1 appended
	assert.Equal(t, "Col1,Col2", lines[0])
	assert.Equal(t, "Appended1,Appended2", lines[3])
}

func TestCSVWriter_ResolvePath(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	tests := []struct {
		name      string
		inputPath string
		expected  string
	}{
		{
			name:      "absolute path",
			inputPath: filepath.Join(tempDir, "somewhere", "file.csv"),
			expected:  filepath.Join(tempDir, "somewhere", "file.csv"),
		},
		{
			name:      "reports path",
			inputPath: "reports/summary.csv",
			expected:  filepath.Join(tempDir, "reports", "summary.csv"),
		},
		{
			name:      "default to exports",
			inputPath: "observations.csv",
			expected:  filepath.Join(tempDir, "exports", "observations.csv"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, writer.resolvePath(tt.inputPath))
		})
	}
}

func TestCSVWriter_SpecialCharacters(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	// Values that need CSV escaping must survive a write/read round trip
	headers := []string{"Name", "Description", "Notes"}
	records := [][]string{
		{"Country, Federal", "Description with \"quotes\"", "Notes with\nnewlines"},
		{"Åland", "Accents: ñáéíóú", "Tabs\there"},
	}

	err := writer.WriteSimpleCSV("special_chars.csv", headers, records)
	assert.NoError(t, err)

	filePath := filepath.Join(tempDir, "exports", "special_chars.csv")
	file, err := os.Open(filePath)
	require.NoError(t, err)
	defer file.Close()

	// Skip BOM
	bom := make([]byte, 3)
	_, err = file.Read(bom)
	require.NoError(t, err)

	reader := csv.NewReader(file)
	allRecords, err := reader.ReadAll()
	require.NoError(t, err)

	assert.Len(t, allRecords, 3) // header + 2 records
	assert.Equal(t, headers, allRecords[0])
	assert.Equal(t, "Country, Federal", allRecords[1][0])
	assert.Equal(t, "Description with \"quotes\"", allRecords[1][1])
	assert.Equal(t, "Notes with\nnewlines", allRecords[1][2])
	assert.Equal(t, "Åland", allRecords[2][0])
}

func TestStreamWriter(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	stream, err := writer.CreateStreamWriter("streamed.csv", []string{"CountryID", "Score"})
	require.NoError(t, err)

	records := [][]string{
		{"france", "0.3100"},
		{"italy", "0.2500"},
		{"uk", "0.3300"},
	}
	for _, record := range records {
		require.NoError(t, stream.WriteRecord(record))
	}
	require.NoError(t, stream.Close())

	content, err := os.ReadFile(filepath.Join(tempDir, "exports", "streamed.csv"))
	require.NoError(t, err)

	// Stream writer always adds the BOM
	assert.True(t, bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}))

	lines := strings.Split(strings.TrimSpace(string(content[3:])), "\n")
	assert.Len(t, lines, 4) // header + 3 records
	assert.Equal(t, "CountryID,Score", lines[0])
	assert.Equal(t, "uk,0.3300", lines[3])
}

func TestStreamWriter_CreatesDirectory(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	stream, err := writer.CreateStreamWriter(filepath.Join("nested", "deep", "streamed.csv"), []string{"A"})
	require.NoError(t, err)
	require.NoError(t, stream.WriteRecord([]string{"1"}))
	require.NoError(t, stream.Close())

	_, err = os.Stat(filepath.Join(tempDir, "exports", "nested", "deep", "streamed.csv"))
	assert.NoError(t, err)
}
