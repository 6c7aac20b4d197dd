// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/tribelens/tribe/internal/domain/model"
)

// AggregateDependencies defines the interface for aggregate reads.
type AggregateDependencies interface {
	Snapshot(ctx context.Context) *model.Snapshot
}

// AggregatesHandler serves the precomputed aggregate collections. Every
// route reads from the same immutable snapshot, so the handlers only
// differ in which slice they return.
type AggregatesHandler struct {
	deps AggregateDependencies
}

// NewAggregatesHandler creates a new aggregates handler.
func NewAggregatesHandler(deps AggregateDependencies) *AggregatesHandler {
	return &AggregatesHandler{deps: deps}
}

// HandleSegments handles GET /api/segments requests.
func (h *AggregatesHandler) HandleSegments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Snapshot(r.Context()).Segments)
}

// HandleCities handles GET /api/cities requests.
func (h *AggregatesHandler) HandleCities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Snapshot(r.Context()).Cities)
}

// HandleHourly handles GET /api/engagement/hourly requests.
func (h *AggregatesHandler) HandleHourly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Snapshot(r.Context()).Hourly)
}

// HandleWeekly handles GET /api/trends/weekly requests.
func (h *AggregatesHandler) HandleWeekly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Snapshot(r.Context()).Weekly)
}
