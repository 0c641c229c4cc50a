package sentiment

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"civicpulse/internal/errors"
	"civicpulse/internal/registry"
)

// DefaultWindowDays is the simulation window applied when a request does
// not specify one. The window is inclusive of both endpoints, so the
// default yields 366 observations per country.
const DefaultWindowDays = 365

// Generator produces deterministic synthetic sentiment observations for a
// set of country profiles. The same profiles, seed, window and reference
// date always produce byte-identical output.
type Generator struct {
	profiles   map[string]registry.Profile
	seed       int64
	windowDays int
	reference  time.Time
	logger     *slog.Logger
}

// NewGenerator creates a generator over the given profiles. The reference
// date is truncated to a UTC calendar day; hours and time zones do not
// influence the output.
func NewGenerator(profiles map[string]registry.Profile, seed int64, windowDays int, reference time.Time, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	ref := reference.UTC()
	return &Generator{
		profiles:   profiles,
		seed:       seed,
		windowDays: windowDays,
		reference:  time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC),
		logger:     logger,
	}
}

// Generate simulates one observation per country per day across the
// window. Countries run concurrently on independent random sub-streams;
// the result is ordered by country ID, then date ascending.
func (g *Generator) Generate(ctx context.Context) ([]Observation, error) {
	start := time.Now()

	if len(g.profiles) == 0 {
		return nil, errors.NewConfigurationError("no country profiles selected for simulation", nil)
	}
	if g.windowDays < 1 {
		return nil, errors.NewConfigurationError(fmt.Sprintf("window must span at least one day, got %d", g.windowDays), nil)
	}

	ids := registry.IDs(g.profiles)
	perCountry := g.windowDays + 1

	g.logger.InfoContext(ctx, "starting sentiment generation",
		"countries", len(ids),
		"seed", g.seed,
		"window_days", g.windowDays,
		"reference_date", g.reference.Format("2006-01-02"),
	)

	// Each country gets its own slot so concurrent workers never contend
	// and the concatenation order stays deterministic.
	results := make([][]Observation, len(ids))

	grp, grpCtx := errgroup.WithContext(ctx)
	for i, id := range ids {
		grp.Go(func() error {
			obs, err := g.generateCountry(grpCtx, g.profiles[id])
			if err != nil {
				return fmt.Errorf("generate %s: %w", id, err)
			}
			results[i] = obs
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		g.logger.ErrorContext(ctx, "sentiment generation failed", "error", err)
		return nil, err
	}

	observations := make([]Observation, 0, len(ids)*perCountry)
	for _, country := range results {
		observations = append(observations, country...)
	}

	g.logger.InfoContext(ctx, "sentiment generation completed",
		"observations", len(observations),
		"duration", time.Since(start),
	)

	return observations, nil
}

// generateCountry walks the window from oldest day to the reference date,
// producing one observation per day from the country's dedicated random
// stream.
func (g *Generator) generateCountry(ctx context.Context, profile registry.Profile) ([]Observation, error) {
	rng := rand.New(rand.NewSource(g.countrySeed(profile.ID)))
	dynamics := DynamicsFor(profile.ID)
	baseline := (profile.DemocracyScore - 5) / 10
	lambda := profile.PopulationMillions * 10

	observations := make([]Observation, 0, g.windowDays+1)
	for offset := g.windowDays; offset >= 0; offset-- {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("generation cancelled: %w", ctx.Err())
		default:
		}

		date := g.reference.AddDate(0, 0, -offset)
		daysSinceStart := g.windowDays - offset

		seasonal := math.Sin(2*math.Pi*float64(date.YearDay())/365) * 0.1
		weekday := weekdayEffect(date.Weekday())
		noise := rng.NormFloat64() * dynamics.Volatility
		timeFactor := dynamics.Trend * float64(daysSinceStart) / float64(g.windowDays)

		score := clamp(baseline+seasonal+weekday+noise+timeFactor, -1, 1)

		postCount := poissonSample(rng, lambda)
		if postCount < 1 {
			postCount = 1
		}

		observations = append(observations, Observation{
			CountryID:       profile.ID,
			Date:            date,
			SentimentScore:  score,
			PostCount:       postCount,
			DemocracyScore:  profile.DemocracyScore,
			Region:          profile.Region,
			PoliticalSystem: profile.PoliticalSystem,
			Classification:  profile.Classification,
		})
	}

	return observations, nil
}

// countrySeed derives an independent sub-seed for one country. Hashing the
// run seed together with the country ID keeps the per-country streams
// uncorrelated, which plain seed arithmetic would not.
func (g *Generator) countrySeed(countryID string) int64 {
	buf := make([]byte, 8, 8+len(countryID))
	binary.BigEndian.PutUint64(buf, uint64(g.seed))
	buf = append(buf, countryID...)
	sum := blake2b.Sum256(buf)
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// weekdayEffect dampens weekend sentiment and slightly lifts weekdays
func weekdayEffect(day time.Weekday) float64 {
	if day == time.Saturday || day == time.Sunday {
		return -0.05
	}
	return 0.02
}

// poissonSample draws from Poisson(lambda) by counting unit-rate
// exponential arrivals inside [0, lambda). Unlike the classic
// multiply-uniforms method this does not underflow for large lambda,
// which matters because post volumes use lambda values in the hundreds.
func poissonSample(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	count := 0
	for t := rng.ExpFloat64(); t < lambda; t += rng.ExpFloat64() {
		count++
	}
	return count
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
