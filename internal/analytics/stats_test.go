package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicpulse/internal/errors"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{2.5}, 2.5},
		{"mixed signs", []float64{-1, 0, 1}, 0},
		{"typical", []float64{0.1, 0.2, 0.3, 0.4}, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Mean(tt.values), 1e-9)
		})
	}
}

func TestSampleStd(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single value", []float64{3.0}, 0},
		{"no dispersion", []float64{2, 2, 2, 2}, 0},
		{"known value", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 2.1380899353},
		{"pair", []float64{1, 3}, 1.4142135624},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SampleStd(tt.values), 1e-9)
		})
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{7}, 7},
		{"odd count", []float64{9, 1, 5}, 5},
		{"even count", []float64{4, 1, 3, 2}, 2.5},
		{"unsorted negatives", []float64{-0.5, 0.5, -0.1, 0.1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Median(tt.values), 1e-9)
		})
	}
}

func TestMedian_DoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Median(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestPearson(t *testing.T) {
	t.Run("perfect positive", func(t *testing.T) {
		r, err := Pearson([]float64{1, 2, 3, 4}, []float64{10, 20, 30, 40})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, r, 1e-9)
	})

	t.Run("perfect negative", func(t *testing.T) {
		r, err := Pearson([]float64{1, 2, 3}, []float64{6, 4, 2})
		require.NoError(t, err)
		assert.InDelta(t, -1.0, r, 1e-9)
	})

	t.Run("uncorrelated", func(t *testing.T) {
		r, err := Pearson([]float64{1, 2, 3, 4}, []float64{1, -1, 1, -1})
		require.NoError(t, err)
		assert.InDelta(t, -0.4472135955, r, 1e-9)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := Pearson([]float64{1, 2}, []float64{1})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
	})

	t.Run("too few points", func(t *testing.T) {
		_, err := Pearson([]float64{1}, []float64{2})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeInsufficientData))
	})

	t.Run("zero variance", func(t *testing.T) {
		_, err := Pearson([]float64{5, 5, 5}, []float64{1, 2, 3})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeInsufficientData))
	})
}
