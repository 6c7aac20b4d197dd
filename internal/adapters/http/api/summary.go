// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"math"
	"net/http"

	"github.com/tribelens/tribe/internal/domain/model"
)

// SummaryDependencies defines the interface for summary reads.
type SummaryDependencies interface {
	Snapshot(ctx context.Context) *model.Snapshot
	Source() model.Source
}

// summaryResponse carries population-wide totals for the dashboard header.
type summaryResponse struct {
	TotalUsers        int          `json:"totalUsers"`
	TotalSegments     int          `json:"totalSegments"`
	AvgFollowers      int          `json:"avgFollowers"`
	AvgEngagement     float64      `json:"avgEngagement"`
	DistinctInterests int          `json:"distinctInterests"`
	TopCity           string       `json:"topCity"`
	Source            model.Source `json:"source"`
	Version           uint64       `json:"version"`
}

// SummaryHandler computes headline totals over the current snapshot.
type SummaryHandler struct {
	deps SummaryDependencies
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(deps SummaryDependencies) *SummaryHandler {
	return &SummaryHandler{deps: deps}
}

// HandleSummary handles GET /api/summary requests.
func (h *SummaryHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snap := h.deps.Snapshot(r.Context())
	writeJSON(w, http.StatusOK, summarize(snap, h.deps.Source()))
}

func summarize(snap *model.Snapshot, source model.Source) summaryResponse {
	resp := summaryResponse{
		TotalUsers:    len(snap.Users),
		TotalSegments: len(snap.Segments),
		Source:        source,
		Version:       snap.Version,
	}
	if len(snap.Cities) > 0 {
		resp.TopCity = snap.Cities[0].City
	}
	if len(snap.Users) == 0 {
		return resp
	}

	var followers int
	var engagement float64
	interests := make(map[string]struct{})
	for i := range snap.Users {
		followers += snap.Users[i].Followers
		engagement += snap.Users[i].EngagementRate
		for _, tag := range snap.Users[i].Interests {
			interests[tag] = struct{}{}
		}
	}
	resp.AvgFollowers = followers / len(snap.Users)
	resp.AvgEngagement = math.Round(engagement/float64(len(snap.Users))*100) / 100
	resp.DistinctInterests = len(interests)
	return resp
}
