// Package synth generates a randomized population of synthetic user records
// with a realistic statistical shape for the local fallback path.
package synth

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/tribelens/tribe/internal/domain/approx"
	"github.com/tribelens/tribe/internal/domain/catalog"
	"github.com/tribelens/tribe/internal/domain/model"
)

// Default sampling configuration constants.
const (
	minInterests  = 2
	maxInterests  = 5
	minFollowers  = 100
	followerSpan  = 50000
	minFollowing  = 50
	followingSpan = 2000
	minPosts      = 10
	postSpan      = 500
	minLikeRate   = 0.05
	likeRateSpan  = 0.10
	minInfluence  = 0.3
	influenceSpan = 0.5
	minAge        = 18
	ageSpan       = 40
)

// Synthesizer produces synthetic user populations. Safe for concurrent use;
// sampling draws are serialized through an internal mutex.
type Synthesizer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// Option applies a configuration option to the Synthesizer.
type Option func(*Synthesizer)

// WithSeed seeds the sampling source so tests can do range checks without
// flakiness. Production paths stay unseeded.
func WithSeed(seed int64) Option {
	return func(s *Synthesizer) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // non-cryptographic sampling source
	}
}

// WithRand replaces the sampling source entirely.
func WithRand(rng *rand.Rand) Option {
	return func(s *Synthesizer) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// New creates a new synthesizer with configuration options.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // non-cryptographic sampling source
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Generate returns n synthetic users with all derived fields populated and
// segments assigned through the shared rule table. It never mutates shared
// state; every call returns a fresh slice.
func (s *Synthesizer) Generate(n int) []model.User {
	if n <= 0 {
		return []model.User{}
	}

	out := make([]model.User, 0, n)
	vocabulary := catalog.Interests()
	cities := catalog.Cities()
	genders := catalog.Genders()

	for i := 0; i < n; i++ {
		followers := minFollowers + s.intn(followerSpan)
		likes := int(float64(followers) * s.uniform(minLikeRate, likeRateSpan))
		comments := int(float64(likes) * model.CommentsPerLike)
		shares := int(float64(likes) * model.SharesPerLike)
		engagement := model.DeriveEngagementRate(likes, comments, shares, followers)
		influence := model.Round3(s.uniform(minInfluence, influenceSpan))
		segment := approx.AssignSegment(followers, engagement)

		out = append(out, model.User{
			UserID:         fmt.Sprintf("user_%d", i+1),
			Username:       s.username(i + 1),
			Age:            minAge + s.intn(ageSpan),
			Gender:         genders[s.intn(len(genders))],
			City:           cities[s.intn(len(cities))],
			Interests:      s.sampleInterests(vocabulary),
			Followers:      followers,
			Following:      minFollowing + s.intn(followingSpan),
			Posts:          minPosts + s.intn(postSpan),
			Likes:          likes,
			Comments:       comments,
			Shares:         shares,
			EngagementRate: engagement,
			InfluenceScore: influence,
			Segment:        segment,
			SegmentColor:   catalog.Color(segment),
			SegmentID:      catalog.ID(segment),
			IsVerified:     influence >= model.VerifiedInfluence,
		})
	}

	return out
}

// sampleInterests draws a unique tag subset by shuffling the vocabulary and
// taking a prefix of random length.
func (s *Synthesizer) sampleInterests(vocabulary []string) []string {
	count := minInterests + s.intn(maxInterests-minInterests+1)

	s.mu.Lock()
	s.rng.Shuffle(len(vocabulary), func(i, j int) {
		vocabulary[i], vocabulary[j] = vocabulary[j], vocabulary[i]
	})
	s.mu.Unlock()

	picked := make([]string, count)
	copy(picked, vocabulary[:count])
	return picked
}

// username builds a display name from the word lists with the index as a
// stable suffix.
func (s *Synthesizer) username(i int) string {
	adjective := usernameAdjectives[s.intn(len(usernameAdjectives))]
	noun := usernameNouns[s.intn(len(usernameNouns))]
	return fmt.Sprintf("%s_%s_%d", adjective, noun, i)
}

// intn returns a uniform int in [0, n).
func (s *Synthesizer) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rng.Intn(n)
}

// uniform returns a uniform float in [low, low+span).
func (s *Synthesizer) uniform(low, span float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return low + s.rng.Float64()*span
}
