// Package approx derives segments, recommendations, and aggregate views from
// an in-memory user collection, with no network dependency.
package approx

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/tribelens/tribe/internal/domain/catalog"
	"github.com/tribelens/tribe/internal/domain/model"
)

// Default approximation configuration constants.
const (
	interestWeight     = 0.45
	ageWeight          = 0.25
	engagementWeight   = 0.2
	sameCityBonus      = 0.1
	ageSpread          = 50.0
	engagementSpread   = 20.0
	sharedInterestMax  = 3
	similarAgeWindow   = 5
	defaultTopN        = 10
	topCityCount       = 8
	percentScale       = 100
	hourlyJitter       = 4.0
	weeklyJitter       = 0.05
	followerJitter     = 0.02
	followerGrowthLow  = 0.9
	followerGrowthStep = 0.02
)

// hourlyBaseline is the designed daily engagement curve: a night trough
// through 06:00, a late-morning peak at 09-11, a midday plateau at 12-14,
// and an evening peak at 18-22.
var hourlyBaseline = [24]float64{
	12, 9, 7, 6, 5, 6, 10, 22,      // 00-07
	38, 55, 62, 58, 48, 46, 47, 44, // 08-15
	50, 60, 72, 84, 90, 82, 66, 34, // 16-23
}

// Weekday labels and engagement multipliers, Monday first. Weekends trend
// higher than the working week.
var (
	weekDays          = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	weeklyMultipliers = [7]float64{0.85, 0.9, 0.95, 1.0, 1.1, 1.25, 1.2}
)

// rules is the ordered threshold table; first match wins.
var rules = catalog.Rules()

// Approximator computes aggregate views over a user collection. Aggregates
// that carry visual jitter draw from its random source; the pairwise and
// grouping functions are deterministic and exposed at package level.
type Approximator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// Option applies a configuration option to the Approximator.
type Option func(*Approximator)

// WithSeed seeds the jitter source for reproducible aggregate output.
func WithSeed(seed int64) Option {
	return func(a *Approximator) {
		a.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // non-cryptographic jitter source
	}
}

// WithRand replaces the jitter source entirely.
func WithRand(rng *rand.Rand) Option {
	return func(a *Approximator) {
		if rng != nil {
			a.rng = rng
		}
	}
}

// New creates a new approximator with configuration options.
func New(opts ...Option) *Approximator {
	a := &Approximator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // non-cryptographic jitter source
	}

	// Apply all options
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// jitter returns a uniform value in [-spread, spread).
func (a *Approximator) jitter(spread float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return (a.rng.Float64()*2 - 1) * spread
}

// AssignSegment returns the first segment whose follower and engagement
// thresholds are both met, or the catch-all segment when none match. The
// table ordering is the tie-break rule and is evaluated exactly as declared.
func AssignSegment(followers int, engagementRate float64) string {
	for _, r := range rules {
		if followers >= r.MinFollowers && engagementRate >= r.MinEngagement {
			return r.Segment
		}
	}
	return catalog.CatchAllSegment
}

// Similarity scores how alike two users are on a [0, 1] scale: a weighted
// sum of interest overlap, age closeness, and engagement closeness, with a
// flat bonus when both live in the same city. Symmetric and deterministic.
func Similarity(a, b model.User) float64 {
	score := interestWeight*jaccard(a.Interests, b.Interests) +
		ageWeight*closeness(float64(a.Age-b.Age), ageSpread) +
		engagementWeight*closeness(a.EngagementRate-b.EngagementRate, engagementSpread)
	if a.City == b.City {
		score += sameCityBonus
	}
	return clamp01(score)
}

// jaccard computes intersection over union of two tag sets. Two empty sets
// score 0, not 1.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	inA := make(map[string]struct{}, len(a))
	for _, tag := range a {
		inA[tag] = struct{}{}
	}

	shared := 0
	union := len(inA)
	seen := make(map[string]struct{}, len(b))
	for _, tag := range b {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		if _, ok := inA[tag]; ok {
			shared++
		} else {
			union++
		}
	}

	return float64(shared) / float64(union)
}

// closeness maps an absolute delta onto [0, 1], reaching 0 at spread.
func closeness(delta, spread float64) float64 {
	c := 1 - math.Abs(delta)/spread
	if c < 0 {
		return 0
	}
	return c
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
