package mockbackend

import (
	"fmt"
	"strings"
	"time"
)

// Config holds configuration for the mock backend
type Config struct {
	Addr            string        // Listen address
	Users           int           // Number of users to generate
	Seed            int64         // Sampling seed (0 = time-seeded)
	OmitProbability float64       // Probability of omitting optional counters per user
	Latency         time.Duration // Artificial delay added to every response
	FailProbe       bool          // Serve 500 on the root probe endpoint
	FailEndpoints   string        // Comma-separated endpoint names that always serve 500
	FailAfter       int           // Serve this many requests, then 500 everything (0 = never)
	LogFile         string        // Log file for server output
	Verbose         bool          // Enable verbose logging
}

// endpointNames is the set of names FailEndpoints accepts.
var endpointNames = map[string]struct{}{
	"probe":           {},
	"users":           {},
	"user":            {},
	"recommendations": {},
	"segments":        {},
	"cities":          {},
	"hourly":          {},
	"weekly":          {},
	"summary":         {},
}

// validate checks the configuration before anything starts.
func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.Users <= 0 {
		return fmt.Errorf("users must be positive, got %d", c.Users)
	}
	if c.OmitProbability < 0 || c.OmitProbability > 1 {
		return fmt.Errorf("omit probability must be within [0, 1], got %g", c.OmitProbability)
	}
	if c.Latency < 0 {
		return fmt.Errorf("latency must not be negative, got %s", c.Latency)
	}
	if c.FailAfter < 0 {
		return fmt.Errorf("fail-after must not be negative, got %d", c.FailAfter)
	}
	for _, name := range splitEndpointNames(c.FailEndpoints) {
		if _, ok := endpointNames[name]; !ok {
			return fmt.Errorf("unknown endpoint name %q in fail-endpoints", name)
		}
	}
	return nil
}

// splitEndpointNames parses a comma-separated FailEndpoints value.
func splitEndpointNames(raw string) []string {
	names := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// User is a backend-side user record. The two optional counters are pointers
// so the generator can leave them out and force clients onto their own
// derivation paths.
type User struct {
	UserID           string  `json:"user_id"`
	Username         string  `json:"username"`
	Age              int     `json:"age"`
	Gender           string  `json:"gender"`
	City             string  `json:"city"`
	Interests        string  `json:"interests"`
	FollowerCount    int     `json:"follower_count"`
	FollowingCount   int     `json:"following_count"`
	PostsCount       int     `json:"posts_count"`
	LikesReceived    int     `json:"likes_received"`
	CommentsReceived *int    `json:"comments_received,omitempty"`
	Shares           *int    `json:"shares,omitempty"`
	EngagementRate   float64 `json:"engagement_rate"`
	InfluenceScore   float64 `json:"influence_score"`
	SegmentName      string  `json:"segment_name"`
	IsVerified       bool    `json:"is_verified"`
}

// Recommendation is one scored match for a user.
type Recommendation struct {
	UserID          string  `json:"user_id"`
	Username        string  `json:"username"`
	SimilarityScore float64 `json:"similarity_score"`
	Segment         string  `json:"segment"`
	FollowerCount   int     `json:"follower_count"`
	Interests       string  `json:"interests"`
	Reason          string  `json:"reason"`
}

// Segment is one row of the segment aggregate table.
type Segment struct {
	Name          string  `json:"name"`
	Count         int     `json:"count"`
	AvgFollowers  float64 `json:"avg_followers"`
	AvgEngagement float64 `json:"avg_engagement"`
	AvgInfluence  float64 `json:"avg_influence"`
	Color         string  `json:"color"`
}

// City is one row of the city distribution.
type City struct {
	City  string  `json:"city"`
	Count int     `json:"count"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// HourlyPoint is one bucket of the daily engagement curve.
type HourlyPoint struct {
	Hour       int     `json:"hour"`
	Engagement float64 `json:"engagement"`
}

// WeeklyPoint is one day of the Monday-first weekly trend.
type WeeklyPoint struct {
	Day        string  `json:"day"`
	Engagement float64 `json:"engagement"`
	Followers  int     `json:"followers"`
}

// Summary is the rollup served at /stats/summary.
type Summary struct {
	TotalUsers    int     `json:"total_users"`
	TotalSegments int     `json:"total_segments"`
	AvgFollowers  float64 `json:"avg_followers"`
	AvgEngagement float64 `json:"avg_engagement"`
	TopCity       string  `json:"top_city"`
}

// Stats holds serving statistics
type Stats struct {
	UsersGenerated   int
	RequestsServed   int64
	FailuresInjected int64
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
