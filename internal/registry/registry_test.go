package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClassifyScore tests the regime banding rule across band edges
func TestClassifyScore(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		expected Classification
	}{
		{"full democracy upper bound", 10.0, FullDemocracy},
		{"full democracy lower edge", 8.0, FullDemocracy},
		{"flawed democracy upper edge", 7.99, FlawedDemocracy},
		{"flawed democracy lower edge", 6.0, FlawedDemocracy},
		{"hybrid upper edge", 5.99, HybridRegime},
		{"hybrid lower edge", 4.0, HybridRegime},
		{"authoritarian upper edge", 3.99, Authoritarian},
		{"authoritarian floor", 0.0, Authoritarian},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyScore(tt.score))
		})
	}
}

// TestLoad tests the fixed dataset and its derived classification
func TestLoad(t *testing.T) {
	profiles, err := Load()
	require.NoError(t, err)

	t.Run("contains all eight countries", func(t *testing.T) {
		assert.Len(t, profiles, 8)
		for _, id := range []string{"germany", "usa", "france", "uk", "brazil", "poland", "sweden", "italy"} {
			assert.Contains(t, profiles, id)
		}
	})

	t.Run("classification agrees with banding", func(t *testing.T) {
		for id, p := range profiles {
			assert.Equal(t, ClassifyScore(p.DemocracyScore), p.Classification,
				"country %s classification must match its score band", id)
		}
	})

	t.Run("known attribute values", func(t *testing.T) {
		sweden := profiles["sweden"]
		assert.Equal(t, 9.2, sweden.DemocracyScore)
		assert.Equal(t, FullDemocracy, sweden.Classification)
		assert.Equal(t, 10.4, sweden.PopulationMillions)

		poland := profiles["poland"]
		assert.Equal(t, 6.8, poland.DemocracyScore)
		assert.Equal(t, FlawedDemocracy, poland.Classification)

		usa := profiles["usa"]
		assert.Equal(t, "North America", usa.Region)
		assert.Equal(t, 331.9, usa.PopulationMillions)
	})

	t.Run("all profiles valid", func(t *testing.T) {
		for id, p := range profiles {
			assert.True(t, p.IsValid(), "profile %s should be valid", id)
		}
	})

	t.Run("load returns independent copies", func(t *testing.T) {
		first, err := Load()
		require.NoError(t, err)
		first["sweden"] = Profile{ID: "sweden", DemocracyScore: 1.0}

		second, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 9.2, second["sweden"].DemocracyScore)
	})
}

// TestIDs tests stable ordering of registry keys
func TestIDs(t *testing.T) {
	profiles, err := Load()
	require.NoError(t, err)

	ids := IDs(profiles)
	assert.Equal(t, []string{"brazil", "france", "germany", "italy", "poland", "sweden", "uk", "usa"}, ids)
}

// TestProfileIsValid tests attribute range checks
func TestProfileIsValid(t *testing.T) {
	valid := Profile{
		ID:                  "test",
		DemocracyScore:      5.0,
		PopulationMillions:  10.0,
		InternetPenetration: 50.0,
		PressFreedomScore:   50.0,
	}

	tests := []struct {
		name   string
		mutate func(*Profile)
		valid  bool
	}{
		{"baseline valid", func(p *Profile) {}, true},
		{"empty id", func(p *Profile) { p.ID = "" }, false},
		{"score above range", func(p *Profile) { p.DemocracyScore = 10.5 }, false},
		{"negative score", func(p *Profile) { p.DemocracyScore = -0.1 }, false},
		{"zero population", func(p *Profile) { p.PopulationMillions = 0 }, false},
		{"penetration above 100", func(p *Profile) { p.InternetPenetration = 101 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			assert.Equal(t, tt.valid, p.IsValid())
		})
	}
}
