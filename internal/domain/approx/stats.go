package approx

import (
	"math"
	"sort"

	"github.com/tribelens/tribe/internal/domain/catalog"
	"github.com/tribelens/tribe/internal/domain/model"
)

// SegmentStats aggregates the population per segment: counts, share of the
// total, and mean engagement, followers, and influence. Segments appear in
// first-encountered order. An empty population yields an empty table rather
// than dividing by zero.
func SegmentStats(population []model.User) []model.SegmentStat {
	out := make([]model.SegmentStat, 0)

	total := len(population)
	if total == 0 {
		return out
	}

	type bucket struct {
		count      int
		engagement float64
		followers  float64
		influence  float64
	}

	buckets := make(map[string]*bucket)
	order := make([]string, 0)
	for _, u := range population {
		b, ok := buckets[u.Segment]
		if !ok {
			b = &bucket{}
			buckets[u.Segment] = b
			order = append(order, u.Segment)
		}
		b.count++
		b.engagement += u.EngagementRate
		b.followers += float64(u.Followers)
		b.influence += u.InfluenceScore
	}

	for _, name := range order {
		b := buckets[name]
		out = append(out, model.SegmentStat{
			Name:          name,
			Color:         catalog.Color(name),
			Count:         b.count,
			Percentage:    model.Round1(float64(b.count) / float64(total) * percentScale),
			AvgEngagement: model.Round2(b.engagement / float64(b.count)),
			AvgFollowers:  int(math.Round(b.followers / float64(b.count))),
			AvgInfluence:  model.Round3(b.influence / float64(b.count)),
		})
	}

	return out
}

// CityDistribution counts users per city and returns the top cities by count
// in descending order, ties broken by first-encountered order. Coordinates
// come from the fixed city table; unknown cities sit at 0,0.
func CityDistribution(population []model.User) []model.CityCount {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, u := range population {
		if _, ok := counts[u.City]; !ok {
			order = append(order, u.City)
		}
		counts[u.City]++
	}

	out := make([]model.CityCount, 0, len(order))
	for _, city := range order {
		coord := catalog.CityCoord(city)
		out = append(out, model.CityCount{
			City:  city,
			Count: counts[city],
			Lat:   coord.Lat,
			Lng:   coord.Lng,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})

	if len(out) > topCityCount {
		out = out[:topCityCount]
	}

	return out
}

// HourlyEngagement returns the 24-bucket daily engagement curve: the designed
// baseline plus a small per-bucket jitter.
func (a *Approximator) HourlyEngagement() []model.HourlyPoint {
	out := make([]model.HourlyPoint, len(hourlyBaseline))
	for hour, base := range hourlyBaseline {
		out[hour] = model.HourlyPoint{
			Hour:       hour,
			Engagement: model.Round1(base + a.jitter(hourlyJitter)),
		}
	}
	return out
}

// WeeklyTrend returns Monday through Sunday engagement and follower levels
// anchored on the population means, shaped by the weekday multipliers with
// small randomized deltas. An empty population yields all-zero points.
func (a *Approximator) WeeklyTrend(population []model.User) []model.WeeklyPoint {
	var meanEngagement, meanFollowers float64
	if len(population) > 0 {
		for _, u := range population {
			meanEngagement += u.EngagementRate
			meanFollowers += float64(u.Followers)
		}
		meanEngagement /= float64(len(population))
		meanFollowers /= float64(len(population))
	}

	out := make([]model.WeeklyPoint, len(weekDays))
	for i, day := range weekDays {
		growth := followerGrowthLow + followerGrowthStep*float64(i)
		out[i] = model.WeeklyPoint{
			Day:        day,
			Engagement: model.Round2(meanEngagement * (weeklyMultipliers[i] + a.jitter(weeklyJitter))),
			Followers:  int(math.Round(meanFollowers * (growth + a.jitter(followerJitter)))),
		}
	}
	return out
}
