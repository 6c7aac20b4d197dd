// Package model contains the canonical records shared by both data paths.
package model

// User is the canonical record produced by the remote adapter and the local
// synthesizer alike. JSON tags match the shape the dashboard consumes.
type User struct {
	UserID         string   `json:"userId"`   // stable unique identifier
	Username       string   `json:"username"` // display name
	Age            int      `json:"age"`
	Gender         string   `json:"gender"`
	City           string   `json:"city"`      // capitalized regardless of source casing
	Interests      []string `json:"interests"` // deduplicated topic tags
	Followers      int      `json:"followers"`
	Following      int      `json:"following"`
	Posts          int      `json:"posts"`
	Likes          int      `json:"likes"`
	Comments       int      `json:"comments"` // derived (~15% of likes) when source omits it
	Shares         int      `json:"shares"`   // derived (~5% of likes) when source omits it
	EngagementRate float64  `json:"engagementRate"` // percentage, 2 decimals
	InfluenceScore float64  `json:"influenceScore"` // ~[0,1], 3 decimals
	Segment        string   `json:"segment"`
	SegmentColor   string   `json:"segmentColor"` // derived via the segment catalog
	SegmentID      int      `json:"segmentId"`    // derived via the segment catalog
	IsVerified     bool     `json:"isVerified"`
}

// Recommendation is a scored peer suggestion for a target user.
// Computed fresh per selection, never persisted.
type Recommendation struct {
	UserID       string   `json:"userId"`
	Username     string   `json:"username"`
	Similarity   float64  `json:"similarity"` // [0,1], 3 decimals
	Segment      string   `json:"segment"`
	SegmentColor string   `json:"segmentColor"`
	Followers    int      `json:"followers"`
	Interests    []string `json:"interests"`
	Reason       string   `json:"reason"` // human-readable match explanation
}

// SegmentStat is a per-segment aggregate over the current population.
type SegmentStat struct {
	Name          string  `json:"name"`
	Color         string  `json:"color"`
	Count         int     `json:"count"`
	Percentage    float64 `json:"percentage"`    // of total population, 1 decimal
	AvgEngagement float64 `json:"avgEngagement"` // 2 decimals
	AvgFollowers  int     `json:"avgFollowers"`
	AvgInfluence  float64 `json:"avgInfluence"` // 3 decimals
}

// CityCount is one entry of the city distribution, with map coordinates.
type CityCount struct {
	City  string  `json:"city"`
	Count int     `json:"count"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// HourlyPoint is one bucket of the 24-hour engagement curve.
type HourlyPoint struct {
	Hour       int     `json:"hour"`
	Engagement float64 `json:"engagement"`
}

// WeeklyPoint is one bucket of the Mon..Sun trend.
type WeeklyPoint struct {
	Day        string  `json:"day"`
	Engagement float64 `json:"engagement"`
	Followers  int     `json:"followers"`
}

// SharedInterests returns the tags present in both users, in a's order.
func SharedInterests(a, b User) []string {
	if len(a.Interests) == 0 || len(b.Interests) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(b.Interests))
	for _, tag := range b.Interests {
		set[tag] = struct{}{}
	}
	var shared []string
	for _, tag := range a.Interests {
		if _, ok := set[tag]; ok {
			shared = append(shared, tag)
		}
	}
	return shared
}
