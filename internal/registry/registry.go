package registry

import (
	"fmt"
	"sort"
)

// Classification is the EIU-style regime band derived from the democracy score
type Classification string

const (
	FullDemocracy   Classification = "Full Democracy"
	FlawedDemocracy Classification = "Flawed Democracy"
	HybridRegime    Classification = "Hybrid Regime"
	Authoritarian   Classification = "Authoritarian Regime"
)

// ClassifyScore maps a democracy score in [0,10] to its regime band:
// Full Democracy >= 8, Flawed Democracy [6,8), Hybrid Regime [4,6),
// Authoritarian Regime < 4.
func ClassifyScore(score float64) Classification {
	switch {
	case score >= 8.0:
		return FullDemocracy
	case score >= 6.0:
		return FlawedDemocracy
	case score >= 4.0:
		return HybridRegime
	default:
		return Authoritarian
	}
}

// Profile holds the static attributes of a tracked country. Profiles are
// value types and never mutated after Load.
type Profile struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	DemocracyScore      float64        `json:"democracy_score"`
	Region              string         `json:"region"`
	PopulationMillions  float64        `json:"population_millions"`
	PoliticalSystem     string         `json:"political_system"`
	InternetPenetration float64        `json:"internet_penetration"`
	PressFreedomScore   float64        `json:"press_freedom_score"`
	Classification      Classification `json:"classification"`
}

// IsValid checks the profile's attribute ranges
func (p Profile) IsValid() bool {
	return p.ID != "" &&
		p.DemocracyScore >= 0 && p.DemocracyScore <= 10 &&
		p.PopulationMillions > 0 &&
		p.InternetPenetration >= 0 && p.InternetPenetration <= 100 &&
		p.PressFreedomScore >= 0 && p.PressFreedomScore <= 100
}

// countries is the fixed dataset. Classification is intentionally absent
// here: it is derived from the score during Load so the two can never
// disagree.
var countries = []Profile{
	{
		ID:                  "germany",
		Name:                "Germany",
		DemocracyScore:      8.7,
		Region:              "Europe",
		PopulationMillions:  83.2,
		PoliticalSystem:     "Parliamentary democracy",
		InternetPenetration: 94.0,
		PressFreedomScore:   76.4,
	},
	{
		ID:                  "usa",
		Name:                "United States",
		DemocracyScore:      7.8,
		Region:              "North America",
		PopulationMillions:  331.9,
		PoliticalSystem:     "Presidential democracy",
		InternetPenetration: 95.0,
		PressFreedomScore:   71.9,
	},
	{
		ID:                  "france",
		Name:                "France",
		DemocracyScore:      8.1,
		Region:              "Europe",
		PopulationMillions:  67.8,
		PoliticalSystem:     "Semi-presidential democracy",
		InternetPenetration: 93.0,
		PressFreedomScore:   79.1,
	},
	{
		ID:                  "uk",
		Name:                "United Kingdom",
		DemocracyScore:      8.3,
		Region:              "Europe",
		PopulationMillions:  67.3,
		PoliticalSystem:     "Parliamentary monarchy",
		InternetPenetration: 96.0,
		PressFreedomScore:   79.6,
	},
	{
		ID:                  "brazil",
		Name:                "Brazil",
		DemocracyScore:      6.9,
		Region:              "South America",
		PopulationMillions:  215.3,
		PoliticalSystem:     "Presidential federation",
		InternetPenetration: 81.0,
		PressFreedomScore:   64.9,
	},
	{
		ID:                  "poland",
		Name:                "Poland",
		DemocracyScore:      6.8,
		Region:              "Europe",
		PopulationMillions:  37.8,
		PoliticalSystem:     "Parliamentary republic",
		InternetPenetration: 87.0,
		PressFreedomScore:   59.8,
	},
	{
		ID:                  "sweden",
		Name:                "Sweden",
		DemocracyScore:      9.2,
		Region:              "Europe",
		PopulationMillions:  10.4,
		PoliticalSystem:     "Parliamentary monarchy",
		InternetPenetration: 97.0,
		PressFreedomScore:   85.1,
	},
	{
		ID:                  "italy",
		Name:                "Italy",
		DemocracyScore:      7.5,
		Region:              "Europe",
		PopulationMillions:  59.1,
		PoliticalSystem:     "Parliamentary republic",
		InternetPenetration: 89.0,
		PressFreedomScore:   69.8,
	},
}

// Load returns the country registry keyed by country ID. Each profile's
// classification is derived from its democracy score, and the dataset is
// validated so a bad edit to the table fails loudly rather than producing
// skewed statistics downstream.
func Load() (map[string]Profile, error) {
	profiles := make(map[string]Profile, len(countries))
	for _, p := range countries {
		if !p.IsValid() {
			return nil, fmt.Errorf("registry: invalid profile %q", p.ID)
		}
		if _, exists := profiles[p.ID]; exists {
			return nil, fmt.Errorf("registry: duplicate country ID %q", p.ID)
		}
		p.Classification = ClassifyScore(p.DemocracyScore)
		profiles[p.ID] = p
	}
	return profiles, nil
}

// IDs returns the country IDs of a registry in sorted order. Iteration over
// the map is randomized by the runtime; every consumer that needs stable
// output goes through this.
func IDs(profiles map[string]Profile) []string {
	ids := make([]string, 0, len(profiles))
	for id := range profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
