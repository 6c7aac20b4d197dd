package model

import "math"

// Derived-counter ratios applied when a source omits optional fields.
// Both data paths must use these so their output is observably equivalent.
const (
	LikesPerFollower  = 0.10
	CommentsPerLike   = 0.15
	SharesPerLike     = 0.05
	VerifiedInfluence = 0.7 // influence score at or above which a user counts as verified
	engagementPercent = 100
)

// DeriveEngagementRate computes (likes+comments+shares)/followers as a
// percentage rounded to 2 decimals. Zero or negative followers yield 0,
// never NaN.
func DeriveEngagementRate(likes, comments, shares, followers int) float64 {
	if followers <= 0 {
		return 0
	}
	rate := float64(likes+comments+shares) / float64(followers) * engagementPercent
	return Round2(rate)
}

// Round1 rounds to 1 decimal place.
func Round1(v float64) float64 { return math.Round(v*10) / 10 }

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 { return math.Round(v*100) / 100 }

// Round3 rounds to 3 decimal places.
func Round3(v float64) float64 { return math.Round(v*1000) / 1000 }
