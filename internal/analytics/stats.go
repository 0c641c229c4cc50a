package analytics

import (
	"fmt"
	"math"
	"sort"

	"civicpulse/internal/errors"
)

// Mean returns the arithmetic mean, or 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStd returns the sample standard deviation (ddof=1), matching the
// pandas default used throughout the analysis. Slices with fewer than two
// values have no dispersion to estimate and yield 0.
func SampleStd(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	m := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// Median returns the middle value, averaging the two central values for
// even-length input. The input slice is not modified.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Pearson computes the linear correlation coefficient between two aligned
// series. It fails with an insufficient-data error when fewer than two
// points are supplied or either series has zero variance; callers must
// surface that as "undefined", never as zero.
func Pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, errors.NewAppValidationError(fmt.Sprintf("correlation series length mismatch: %d vs %d", len(x), len(y)))
	}
	if len(x) < 2 {
		return 0, errors.NewInsufficientDataError(fmt.Sprintf("correlation requires at least 2 points, got %d", len(x)))
	}

	meanX := Mean(x)
	meanY := Mean(y)

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0, errors.NewInsufficientDataError("correlation undefined for zero-variance series")
	}

	return cov / math.Sqrt(varX*varY), nil
}
