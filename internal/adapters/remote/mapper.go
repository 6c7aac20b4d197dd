package remote

import (
	"strings"
	"unicode"

	"github.com/tribelens/tribe/internal/domain/approx"
	"github.com/tribelens/tribe/internal/domain/catalog"
	"github.com/tribelens/tribe/internal/domain/model"
)

// unknownValue substitutes missing optional strings so consumers never
// render an empty label.
const unknownValue = "Unknown"

// Backend wire shapes. The backend speaks snake_case; optional counters are
// pointers so an absent field is distinguishable from a zero.
type userDTO struct {
	UserID           string   `json:"user_id"`
	Username         string   `json:"username"`
	Age              int      `json:"age"`
	Gender           string   `json:"gender"`
	City             string   `json:"city"`
	Interests        string   `json:"interests"`
	FollowerCount    int      `json:"follower_count"`
	FollowingCount   int      `json:"following_count"`
	PostsCount       int      `json:"posts_count"`
	LikesReceived    *int     `json:"likes_received"`
	CommentsReceived *int     `json:"comments_received"`
	Shares           *int     `json:"shares"`
	EngagementRate   *float64 `json:"engagement_rate"`
	InfluenceScore   float64  `json:"influence_score"`
	SegmentName      string   `json:"segment_name"`
	IsVerified       *bool    `json:"is_verified"`
}

type recommendationDTO struct {
	UserID          string  `json:"user_id"`
	Username        string  `json:"username"`
	SimilarityScore float64 `json:"similarity_score"`
	Segment         string  `json:"segment"`
	FollowerCount   int     `json:"follower_count"`
	Interests       string  `json:"interests"`
	Reason          string  `json:"reason"`
}

type segmentDTO struct {
	Name          string  `json:"name"`
	Count         int     `json:"count"`
	AvgFollowers  float64 `json:"avg_followers"`
	AvgEngagement float64 `json:"avg_engagement"`
	AvgInfluence  float64 `json:"avg_influence"`
	Color         string  `json:"color"`
}

type cityDTO struct {
	City  string  `json:"city"`
	Count int     `json:"count"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

type hourlyDTO struct {
	Hour       int     `json:"hour"`
	Engagement float64 `json:"engagement"`
}

type weeklyDTO struct {
	Day        string  `json:"day"`
	Engagement float64 `json:"engagement"`
	Followers  int     `json:"followers"`
}

// mapUser normalizes one backend user record into the canonical shape.
// Missing optional counters are derived with the same ratios the local
// synthesizer uses, so both data paths stay observably equivalent.
func mapUser(d *userDTO) model.User {
	likes := 0
	if d.LikesReceived != nil {
		likes = *d.LikesReceived
	} else {
		likes = int(float64(d.FollowerCount) * model.LikesPerFollower)
	}

	comments := 0
	if d.CommentsReceived != nil {
		comments = *d.CommentsReceived
	} else {
		comments = int(float64(likes) * model.CommentsPerLike)
	}

	shares := 0
	if d.Shares != nil {
		shares = *d.Shares
	} else {
		shares = int(float64(likes) * model.SharesPerLike)
	}

	engagement := 0.0
	if d.EngagementRate != nil {
		engagement = model.Round2(*d.EngagementRate)
	} else {
		engagement = model.DeriveEngagementRate(likes, comments, shares, d.FollowerCount)
	}

	influence := model.Round3(d.InfluenceScore)

	segment := d.SegmentName
	if segment == "" {
		segment = approx.AssignSegment(d.FollowerCount, engagement)
	}

	verified := influence >= model.VerifiedInfluence
	if d.IsVerified != nil {
		verified = *d.IsVerified
	}

	return model.User{
		UserID:         d.UserID,
		Username:       fallbackString(d.Username, unknownValue),
		Age:            d.Age,
		Gender:         fallbackString(d.Gender, unknownValue),
		City:           capitalizeCity(d.City),
		Interests:      splitInterests(d.Interests),
		Followers:      d.FollowerCount,
		Following:      d.FollowingCount,
		Posts:          d.PostsCount,
		Likes:          likes,
		Comments:       comments,
		Shares:         shares,
		EngagementRate: engagement,
		InfluenceScore: influence,
		Segment:        segment,
		SegmentColor:   catalog.Color(segment),
		SegmentID:      catalog.ID(segment),
		IsVerified:     verified,
	}
}

func mapUsers(dtos []userDTO) []model.User {
	users := make([]model.User, 0, len(dtos))
	for i := range dtos {
		users = append(users, mapUser(&dtos[i]))
	}
	return users
}

func mapRecommendation(d *recommendationDTO) model.Recommendation {
	segment := d.Segment
	if segment == "" {
		segment = catalog.CatchAllSegment
	}

	return model.Recommendation{
		UserID:       d.UserID,
		Username:     fallbackString(d.Username, unknownValue),
		Similarity:   model.Round3(clamp01(d.SimilarityScore)),
		Segment:      segment,
		SegmentColor: catalog.Color(segment),
		Followers:    d.FollowerCount,
		Interests:    splitInterests(d.Interests),
		Reason:       fallbackString(d.Reason, "Similar engagement patterns"),
	}
}

func mapRecommendations(dtos []recommendationDTO) []model.Recommendation {
	recs := make([]model.Recommendation, 0, len(dtos))
	for i := range dtos {
		recs = append(recs, mapRecommendation(&dtos[i]))
	}
	return recs
}

// mapSegments normalizes the segment table. The backend does not ship
// percentages, so they are recomputed from the counts.
func mapSegments(dtos []segmentDTO) []model.SegmentStat {
	total := 0
	for i := range dtos {
		total += dtos[i].Count
	}

	stats := make([]model.SegmentStat, 0, len(dtos))
	for i := range dtos {
		d := &dtos[i]
		name := fallbackString(d.Name, catalog.CatchAllSegment)

		color := d.Color
		if color == "" {
			color = catalog.Color(name)
		}

		percentage := 0.0
		if total > 0 {
			percentage = model.Round1(float64(d.Count) / float64(total) * 100)
		}

		stats = append(stats, model.SegmentStat{
			Name:          name,
			Color:         color,
			Count:         d.Count,
			Percentage:    percentage,
			AvgEngagement: model.Round2(d.AvgEngagement),
			AvgFollowers:  int(d.AvgFollowers),
			AvgInfluence:  model.Round3(d.AvgInfluence),
		})
	}
	return stats
}

// mapCities normalizes the city distribution. Zero coordinates are filled
// from the catalog when the city is known, so the map view keeps working
// with backends that omit them.
func mapCities(dtos []cityDTO) []model.CityCount {
	cities := make([]model.CityCount, 0, len(dtos))
	for i := range dtos {
		d := &dtos[i]
		city := capitalizeCity(d.City)

		lat, lng := d.Lat, d.Lng
		if lat == 0 && lng == 0 {
			coord := catalog.CityCoord(city)
			lat, lng = coord.Lat, coord.Lng
		}

		cities = append(cities, model.CityCount{
			City:  city,
			Count: d.Count,
			Lat:   lat,
			Lng:   lng,
		})
	}
	return cities
}

func mapHourly(dtos []hourlyDTO) []model.HourlyPoint {
	points := make([]model.HourlyPoint, 0, len(dtos))
	for i := range dtos {
		points = append(points, model.HourlyPoint{
			Hour:       dtos[i].Hour,
			Engagement: model.Round1(dtos[i].Engagement),
		})
	}
	return points
}

func mapWeekly(dtos []weeklyDTO) []model.WeeklyPoint {
	points := make([]model.WeeklyPoint, 0, len(dtos))
	for i := range dtos {
		points = append(points, model.WeeklyPoint{
			Day:        dtos[i].Day,
			Engagement: model.Round2(dtos[i].Engagement),
			Followers:  dtos[i].Followers,
		})
	}
	return points
}

// splitInterests turns a comma-joined tag string into a deduplicated,
// lowercased collection. First occurrence order wins.
func splitInterests(raw string) []string {
	tags := make([]string, 0)
	if raw == "" {
		return tags
	}

	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// capitalizeCity title-cases each word so "new york" and "NEW YORK" both
// normalize to "New York".
func capitalizeCity(city string) string {
	if city == "" {
		return unknownValue
	}

	words := strings.Fields(strings.ToLower(city))
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func fallbackString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
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
