package mockbackend

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tribelens/tribe/internal/domain/catalog"
	"github.com/tribelens/tribe/pkg/logger"
)

// Constants for population sampling ranges.
const (
	followerMin       = 150
	followerSpan      = 60000
	followingMin      = 40
	followingSpan     = 2500
	postMin           = 5
	postSpan          = 600
	likeRateMin       = 0.04
	likeRateSpan      = 0.12
	commentsPerLike   = 0.08
	sharesPerLike     = 0.05
	influenceMin      = 0.2
	influenceSpan     = 0.75
	verifiedInfluence = 0.8
	ageMin            = 16
	ageSpan           = 45
	interestsMin      = 2
	interestsMax      = 5
)

// Constants for the served aggregate curves.
const (
	hourlyJitter = 5.0
	weeklyJitter = 0.06
)

// Constants for recommendation scoring.
const (
	sameCityBonus = 0.2
	maxSimilarity = 1.0
)

// hourlyBase is the engagement curve before jitter: a night trough, a
// late-morning rise and an evening peak.
var hourlyBase = [24]float64{
	14, 10, 8, 6, 5, 7, 12, 24, // 00-07
	40, 52, 60, 56, 50, 48, 45, 46, // 08-15
	52, 62, 74, 86, 88, 80, 64, 32, // 16-23
}

// Weekday labels and engagement multipliers, Monday first.
var (
	weekDays          = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	weeklyMultipliers = [7]float64{0.85, 0.9, 0.95, 1.0, 1.1, 1.25, 1.2}
)

// Word lists for display names.
var (
	nameAdjectives = []string{
		"bold", "quiet", "vivid", "rapid", "mellow", "stellar",
		"rustic", "prime", "amber", "breezy", "candid", "nimble",
	}
	nameNouns = []string{
		"otter", "harbor", "comet", "cedar", "ripple", "summit",
		"ember", "atlas", "willow", "quartz", "meadow", "sable",
	}
)

// population is the dataset every endpoint serves from. It is built once at
// startup and never mutated afterwards, so handlers read it without locking.
type population struct {
	users    []User
	byID     map[string]int
	segments []Segment
	cities   []City
	hourly   []HourlyPoint
	weekly   []WeeklyPoint
	summary  Summary
}

// generatePopulation builds the full dataset: users first, aggregate tables
// derived from them. A fixed seed reproduces the same dataset, ids included.
func generatePopulation(ctx context.Context, config *Config, stats *Stats) *population {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // non-cryptographic sampling source

	logger.Get().Info(ctx, "generating backend dataset",
		logger.Int("users", config.Users),
		logger.Float64("omitProbability", config.OmitProbability))

	p := &population{
		users: make([]User, 0, config.Users),
		byID:  make(map[string]int, config.Users),
	}

	vocabulary := catalog.Interests()
	cities := catalog.Cities()
	genders := catalog.Genders()

	for i := 0; i < config.Users; i++ {
		user := generateUser(rng, i+1, vocabulary, cities, genders, config.OmitProbability)
		p.byID[user.UserID] = len(p.users)
		p.users = append(p.users, user)
	}

	p.segments = buildSegments(p.users)
	p.cities = buildCities(p.users)
	p.hourly = buildHourly(rng)
	p.weekly = buildWeekly(rng, p.users)
	p.summary = buildSummary(p)

	stats.UsersGenerated = len(p.users)
	logger.Get().Info(ctx, "backend dataset ready",
		logger.Int("users", len(p.users)),
		logger.Int("segments", len(p.segments)),
		logger.Int("cities", len(p.cities)))

	return p
}

// generateUser samples one backend user record. The optional counters are
// dropped with the configured probability.
func generateUser(rng *rand.Rand, index int, vocabulary, cities, genders []string, omitProbability float64) User {
	followers := followerMin + rng.Intn(followerSpan)
	likes := int(float64(followers) * (likeRateMin + rng.Float64()*likeRateSpan))
	comments := int(float64(likes) * commentsPerLike)
	shares := int(float64(likes) * sharesPerLike)
	engagement := round2(float64(likes+comments+shares) / float64(followers) * 100)
	influence := round3(influenceMin + rng.Float64()*influenceSpan)

	user := User{
		UserID:         userID(rng),
		Username:       username(rng, index),
		Age:            ageMin + rng.Intn(ageSpan),
		Gender:         genders[rng.Intn(len(genders))],
		City:           cities[rng.Intn(len(cities))],
		Interests:      strings.Join(sampleInterests(rng, vocabulary), ", "),
		FollowerCount:  followers,
		FollowingCount: followingMin + rng.Intn(followingSpan),
		PostsCount:     postMin + rng.Intn(postSpan),
		LikesReceived:  likes,
		EngagementRate: engagement,
		InfluenceScore: influence,
		SegmentName:    assignSegment(followers, engagement),
		IsVerified:     influence >= verifiedInfluence,
	}

	if rng.Float64() >= omitProbability {
		user.CommentsReceived = &comments
	}
	if rng.Float64() >= omitProbability {
		user.Shares = &shares
	}

	return user
}

// userID draws a v4 uuid from the seeded source so fixed seeds reproduce the
// same ids.
func userID(rng *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// username builds a display name from the word lists with the index as a
// stable suffix.
func username(rng *rand.Rand, index int) string {
	adjective := nameAdjectives[rng.Intn(len(nameAdjectives))]
	noun := nameNouns[rng.Intn(len(nameNouns))]
	return fmt.Sprintf("%s_%s_%d", adjective, noun, index)
}

// sampleInterests draws a unique tag subset by shuffling a copy of the
// vocabulary and taking a prefix of random length.
func sampleInterests(rng *rand.Rand, vocabulary []string) []string {
	tags := make([]string, len(vocabulary))
	copy(tags, vocabulary)
	rng.Shuffle(len(tags), func(i, j int) {
		tags[i], tags[j] = tags[j], tags[i]
	})

	count := interestsMin + rng.Intn(interestsMax-interestsMin+1)
	return tags[:count]
}

// assignSegment walks the shared rule table in priority order; the first
// full match wins.
func assignSegment(followers int, engagement float64) string {
	for _, rule := range catalog.Rules() {
		if followers >= rule.MinFollowers && engagement >= rule.MinEngagement {
			return rule.Segment
		}
	}
	return catalog.CatchAllSegment
}

// buildSegments aggregates the users into the segment table, largest
// segment first.
func buildSegments(users []User) []Segment {
	type accumulator struct {
		count      int
		followers  int
		engagement float64
		influence  float64
	}

	groups := make(map[string]*accumulator)
	for i := range users {
		user := &users[i]
		group := groups[user.SegmentName]
		if group == nil {
			group = &accumulator{}
			groups[user.SegmentName] = group
		}
		group.count++
		group.followers += user.FollowerCount
		group.engagement += user.EngagementRate
		group.influence += user.InfluenceScore
	}

	segments := make([]Segment, 0, len(groups))
	for name, group := range groups {
		segments = append(segments, Segment{
			Name:          name,
			Count:         group.count,
			AvgFollowers:  round1(float64(group.followers) / float64(group.count)),
			AvgEngagement: round2(group.engagement / float64(group.count)),
			AvgInfluence:  round3(group.influence / float64(group.count)),
			Color:         catalog.Color(name),
		})
	}

	sort.Slice(segments, func(i, j int) bool {
		if segments[i].Count != segments[j].Count {
			return segments[i].Count > segments[j].Count
		}
		return segments[i].Name < segments[j].Name
	})
	return segments
}

// buildCities aggregates the city distribution with map coordinates,
// largest city first.
func buildCities(users []User) []City {
	counts := make(map[string]int)
	for i := range users {
		counts[users[i].City]++
	}

	cities := make([]City, 0, len(counts))
	for city, count := range counts {
		coord := catalog.CityCoord(city)
		cities = append(cities, City{
			City:  city,
			Count: count,
			Lat:   coord.Lat,
			Lng:   coord.Lng,
		})
	}

	sort.Slice(cities, func(i, j int) bool {
		if cities[i].Count != cities[j].Count {
			return cities[i].Count > cities[j].Count
		}
		return cities[i].City < cities[j].City
	})
	return cities
}

// buildHourly returns the 24-bucket engagement curve with per-run jitter.
func buildHourly(rng *rand.Rand) []HourlyPoint {
	points := make([]HourlyPoint, len(hourlyBase))
	for hour, base := range hourlyBase {
		points[hour] = HourlyPoint{
			Hour:       hour,
			Engagement: round1(base + rng.Float64()*hourlyJitter),
		}
	}
	return points
}

// buildWeekly anchors the Monday-first trend on the population means.
func buildWeekly(rng *rand.Rand, users []User) []WeeklyPoint {
	meanFollowers, meanEngagement := populationMeans(users)

	points := make([]WeeklyPoint, len(weekDays))
	for i, day := range weekDays {
		multiplier := weeklyMultipliers[i] + (rng.Float64()-0.5)*weeklyJitter
		points[i] = WeeklyPoint{
			Day:        day,
			Engagement: round2(meanEngagement * multiplier),
			Followers:  int(meanFollowers * multiplier),
		}
	}
	return points
}

// buildSummary rolls the dataset up for /stats/summary.
func buildSummary(p *population) Summary {
	meanFollowers, meanEngagement := populationMeans(p.users)

	topCity := ""
	if len(p.cities) > 0 {
		topCity = p.cities[0].City
	}

	return Summary{
		TotalUsers:    len(p.users),
		TotalSegments: len(p.segments),
		AvgFollowers:  round1(meanFollowers),
		AvgEngagement: round2(meanEngagement),
		TopCity:       topCity,
	}
}

// populationMeans returns the mean follower count and engagement rate.
func populationMeans(users []User) (float64, float64) {
	if len(users) == 0 {
		return 0, 0
	}

	followers := 0
	engagement := 0.0
	for i := range users {
		followers += users[i].FollowerCount
		engagement += users[i].EngagementRate
	}
	return float64(followers) / float64(len(users)), engagement / float64(len(users))
}

// recommendationsFor scores every other user against the target by interest
// overlap with a same-city bonus, best matches first. Reports false when the
// target id is unknown.
func (p *population) recommendationsFor(id string, n int) ([]Recommendation, bool) {
	index, ok := p.byID[id]
	if !ok {
		return nil, false
	}
	target := &p.users[index]
	targetTags := splitTags(target.Interests)

	recs := make([]Recommendation, 0)
	for i := range p.users {
		if i == index {
			continue
		}
		candidate := &p.users[i]
		shared := sharedTags(targetTags, splitTags(candidate.Interests))
		sameCity := candidate.City == target.City

		score := 0.0
		if len(targetTags) > 0 {
			score = float64(len(shared)) / float64(len(targetTags))
		}
		if sameCity {
			score += sameCityBonus
		}
		if score > maxSimilarity {
			score = maxSimilarity
		}
		if score == 0 {
			continue
		}

		recs = append(recs, Recommendation{
			UserID:          candidate.UserID,
			Username:        candidate.Username,
			SimilarityScore: round3(score),
			Segment:         candidate.SegmentName,
			FollowerCount:   candidate.FollowerCount,
			Interests:       candidate.Interests,
			Reason:          recommendationReason(shared, sameCity, candidate.City),
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].SimilarityScore != recs[j].SimilarityScore {
			return recs[i].SimilarityScore > recs[j].SimilarityScore
		}
		return recs[i].UserID < recs[j].UserID
	})

	if n > 0 && n < len(recs) {
		recs = recs[:n]
	}
	return recs, true
}

// recommendationReason picks the headline explanation for a match.
func recommendationReason(shared []string, sameCity bool, city string) string {
	switch {
	case len(shared) > 0:
		return "Shared interest: " + shared[0]
	case sameCity:
		return "Same city: " + city
	default:
		return "Similar engagement patterns"
	}
}

// splitTags splits a comma-joined tag string.
func splitTags(raw string) []string {
	tags := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// sharedTags returns the tags present in both collections, in b's order.
func sharedTags(a, b []string) []string {
	seen := make(map[string]struct{}, len(a))
	for _, tag := range a {
		seen[tag] = struct{}{}
	}

	shared := make([]string, 0)
	for _, tag := range b {
		if _, ok := seen[tag]; ok {
			shared = append(shared, tag)
		}
	}
	return shared
}

// Rounding helpers for served values.
func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
