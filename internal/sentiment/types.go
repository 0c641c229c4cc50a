package sentiment

import (
	"time"

	"civicpulse/internal/registry"
)

// Observation is one synthetic sentiment reading for a (country, day) pair.
// The profile fields are denormalized read-only copies so downstream
// aggregation never has to join back to the registry.
type Observation struct {
	CountryID       string                  `json:"country_id"`
	Date            time.Time               `json:"date"`
	SentimentScore  float64                 `json:"sentiment_score"`
	PostCount       int                     `json:"post_count"`
	DemocracyScore  float64                 `json:"democracy_score"`
	Region          string                  `json:"region"`
	PoliticalSystem string                  `json:"political_system"`
	Classification  registry.Classification `json:"classification"`
}

// IsValid checks the observation's invariants
func (o Observation) IsValid() bool {
	return o.CountryID != "" && !o.Date.IsZero() &&
		o.SentimentScore >= -1 && o.SentimentScore <= 1 &&
		o.PostCount >= 1
}

// Dynamics are the stochastic parameters of a country's sentiment process
type Dynamics struct {
	Volatility float64 `json:"volatility"`
	Trend      float64 `json:"trend"`
}

// countryDynamics assigns volatility and trend by country category. The
// membership is a fixed per-country table, not derived from any profile
// field.
var countryDynamics = map[string]Dynamics{
	// High political tension
	"poland": {Volatility: 0.3, Trend: -0.1},
	"brazil": {Volatility: 0.3, Trend: -0.1},

	// Stable democracies
	"sweden":  {Volatility: 0.15, Trend: 0.05},
	"germany": {Volatility: 0.15, Trend: 0.05},
}

// defaultDynamics applies to every country without an explicit entry
var defaultDynamics = Dynamics{Volatility: 0.2, Trend: 0.0}

// DynamicsFor returns the stochastic parameters for a country ID
func DynamicsFor(countryID string) Dynamics {
	if d, ok := countryDynamics[countryID]; ok {
		return d
	}
	return defaultDynamics
}
