// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/tribelens/tribe/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the orchestrator behind it.
type Dependencies interface {
	// Snapshot returns the current published dataset. Never nil.
	Snapshot(ctx context.Context) *model.Snapshot

	// User looks up a single user in the current snapshot.
	User(ctx context.Context, id string) (model.User, bool)

	// Recommendations returns scored peers for id, capped at n.
	Recommendations(ctx context.Context, id string, n int) ([]model.Recommendation, error)

	// SelectUser enqueues a selection change for async processing.
	SelectUser(ctx context.Context, id string) error

	// Refresh enqueues a full dataset rebuild for async processing.
	Refresh(ctx context.Context) error

	// Source reports which data path produced the current snapshot.
	Source() model.Source

	// Subscribe registers ch for snapshot publications and returns an
	// unsubscribe func.
	Subscribe(ch chan<- *model.Snapshot) func()
}

// Server wires HTTP routes for the insights API.
type Server struct {
	healthHandler          *HealthHandler
	statsHandler           *StatsHandler
	overviewHandler        *OverviewHandler
	usersHandler           *UsersHandler
	userHandler            *UserHandler
	recommendationsHandler *RecommendationsHandler
	aggregatesHandler      *AggregatesHandler
	summaryHandler         *SummaryHandler
	selectionHandler       *SelectionHandler
	refreshHandler         *RefreshHandler
	wsHandler              *WSHandler
	dashboardHandler       *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxUserLimit int) *Server {
	return &Server{
		healthHandler:          NewHealthHandler(),
		statsHandler:           NewStatsHandler(statsProvider),
		overviewHandler:        NewOverviewHandler(deps),
		usersHandler:           NewUsersHandler(deps, maxUserLimit),
		userHandler:            NewUserHandler(deps),
		recommendationsHandler: NewRecommendationsHandler(deps),
		aggregatesHandler:      NewAggregatesHandler(deps),
		summaryHandler:         NewSummaryHandler(deps),
		selectionHandler:       NewSelectionHandler(deps),
		refreshHandler:         NewRefreshHandler(deps),
		wsHandler:              NewWSHandler(deps),
		dashboardHandler:       newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux and starts the snapshot
// broadcast bridge, which runs until ctx is canceled.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/overview", MetricsMiddleware(s.overviewHandler.HandleOverview, "overview"))
	mux.HandleFunc("/api/users", MetricsMiddleware(s.usersHandler.HandleGetUsers, "users"))
	mux.HandleFunc("/api/users/", MetricsMiddleware(s.userHandler.HandleGetUser, "user"))
	mux.HandleFunc("/api/recommendations/", MetricsMiddleware(s.recommendationsHandler.HandleGetRecommendations, "recommendations"))
	mux.HandleFunc("/api/segments", MetricsMiddleware(s.aggregatesHandler.HandleSegments, "segments"))
	mux.HandleFunc("/api/cities", MetricsMiddleware(s.aggregatesHandler.HandleCities, "cities"))
	mux.HandleFunc("/api/engagement/hourly", MetricsMiddleware(s.aggregatesHandler.HandleHourly, "engagement_hourly"))
	mux.HandleFunc("/api/trends/weekly", MetricsMiddleware(s.aggregatesHandler.HandleWeekly, "trends_weekly"))
	mux.HandleFunc("/api/summary", MetricsMiddleware(s.summaryHandler.HandleSummary, "summary"))
	mux.HandleFunc("/api/selection", MetricsMiddleware(s.selectionHandler.HandlePostSelection, "selection"))
	mux.HandleFunc("/api/refresh", MetricsMiddleware(s.refreshHandler.HandlePostRefresh, "refresh"))
	// The websocket route bypasses the middleware wrapper; the upgrade
	// needs the raw ResponseWriter to hijack the connection.
	mux.HandleFunc("/api/ws", s.wsHandler.HandleWS)

	go s.wsHandler.Run(ctx)
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
