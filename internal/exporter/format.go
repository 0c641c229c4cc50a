package exporter

import (
	"fmt"
)

// formatScore formats a sentiment score for CSV output with 4 decimal places.
// Scores live in [-1, 1], so 2 decimals would collapse most of the spread.
func formatScore(f float64) string {
	return fmt.Sprintf("%.4f", f)
}

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}
