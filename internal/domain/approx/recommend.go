package approx

import (
	"sort"
	"strings"

	"github.com/tribelens/tribe/internal/domain/catalog"
	"github.com/tribelens/tribe/internal/domain/model"
)

// Recommendations scores target against every other user in the population
// and returns the top n matches in descending similarity order. Ties keep
// population order. A non-positive n falls back to the default count. The
// target itself is never recommended.
func Recommendations(target model.User, population []model.User, n int) []model.Recommendation {
	if n <= 0 {
		n = defaultTopN
	}

	type candidate struct {
		user  model.User
		score float64
	}

	candidates := make([]candidate, 0, len(population))
	for _, u := range population {
		if u.UserID == target.UserID {
			continue
		}
		candidates = append(candidates, candidate{user: u, score: Similarity(target, u)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}

	out := make([]model.Recommendation, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, model.Recommendation{
			UserID:       c.user.UserID,
			Username:     c.user.Username,
			Similarity:   model.Round3(c.score),
			Segment:      c.user.Segment,
			SegmentColor: catalog.Color(c.user.Segment),
			Followers:    c.user.Followers,
			Interests:    c.user.Interests,
			Reason:       matchReason(target, c.user),
		})
	}

	return out
}

// matchReason explains a match in priority order: a strong interest overlap,
// then location, segment, age proximity, a single shared interest, and
// finally a generic engagement phrasing.
func matchReason(target, match model.User) string {
	shared := model.SharedInterests(target, match)

	switch {
	case len(shared) >= sharedInterestMax:
		return "Shares interests: " + strings.Join(shared[:sharedInterestMax], ", ")
	case match.City == target.City:
		return "Same city: " + match.City
	case match.Segment == target.Segment:
		return "Same segment: " + match.Segment
	case absInt(target.Age-match.Age) <= similarAgeWindow:
		return "Similar age group"
	case len(shared) > 0:
		return "Common interest: " + shared[0]
	default:
		return "Similar engagement patterns"
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
