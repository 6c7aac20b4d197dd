package mockbackend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/tribelens/tribe/pkg/logger"
)

// Server serves the generated dataset over the backend REST contract and
// injects the configured failures.
type Server struct {
	config        *Config
	data          *population
	failEndpoints map[string]struct{}
	served        atomic.Int64
	failures      atomic.Int64

	// Logging
	logger logger.Logger
}

// probeResponse is the root reachability payload; any 2xx counts.
type probeResponse struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	Users   int    `json:"users"`
}

// errorResponse is the failure payload.
type errorResponse struct {
	Error string `json:"error"`
}

// newServer wires the dataset and failure switches into a handler set.
func newServer(config *Config, data *population) *Server {
	failEndpoints := make(map[string]struct{})
	for _, name := range splitEndpointNames(config.FailEndpoints) {
		failEndpoints[name] = struct{}{}
	}

	return &Server{
		config:        config,
		data:          data,
		failEndpoints: failEndpoints,
		logger:        logger.Get().Named("mockbackend"),
	}
}

// routes binds every endpoint of the backend contract.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/users/", s.endpoint("user", s.handleUser))
	mux.HandleFunc("/users", s.endpoint("users", s.handleUsers))
	mux.HandleFunc("/recommendations/", s.endpoint("recommendations", s.handleRecommendations))
	mux.HandleFunc("/segments", s.endpoint("segments", s.handleSegments))
	mux.HandleFunc("/cities", s.endpoint("cities", s.handleCities))
	mux.HandleFunc("/engagement/hourly", s.endpoint("hourly", s.handleHourly))
	mux.HandleFunc("/trends/weekly", s.endpoint("weekly", s.handleWeekly))
	mux.HandleFunc("/stats/summary", s.endpoint("summary", s.handleSummary))
	mux.HandleFunc("/", s.endpoint("probe", s.handleProbe))

	return mux
}

// endpoint wraps a handler with the failure-injection switches shared by
// every route.
func (s *Server) endpoint(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.config.Latency > 0 {
			time.Sleep(s.config.Latency)
		}

		served := s.served.Add(1)

		if s.config.FailAfter > 0 && served > int64(s.config.FailAfter) {
			s.injectFailure(w, r, name, "request budget exhausted")
			return
		}
		if name == "probe" && s.config.FailProbe {
			s.injectFailure(w, r, name, "probe failure enabled")
			return
		}
		if _, ok := s.failEndpoints[name]; ok {
			s.injectFailure(w, r, name, "endpoint failure enabled")
			return
		}

		s.logger.Debug(r.Context(), "serving request",
			logger.String("endpoint", name),
			logger.String("path", r.URL.Path))
		next(w, r)
	}
}

// injectFailure serves the configured 500 and counts it.
func (s *Server) injectFailure(w http.ResponseWriter, r *http.Request, name, reason string) {
	s.failures.Add(1)
	s.logger.Debug(r.Context(), "injecting failure",
		logger.String("endpoint", name),
		logger.String("reason", reason))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: reason})
}

// handleProbe answers the root reachability check.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, probeResponse{
		Service: "analytics-backend",
		Status:  "ok",
		Users:   len(s.data.users),
	})
}

// handleUsers serves the population, truncated when a valid limit is given.
// Invalid limits are ignored rather than rejected.
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	users := s.data.users
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 && limit < len(users) {
			users = users[:limit]
		}
	}
	writeJSON(w, http.StatusOK, users)
}

// handleUser serves a single user by id.
func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/users/")
	index, ok := s.data.byID[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, s.data.users[index])
}

// handleRecommendations serves scored matches for one user. The count falls
// back to the default when absent or invalid and is clamped to the cap.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/recommendations/")

	n := DefaultRecommendationCount
	if raw := r.URL.Query().Get("n"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}
	if n > MaxRecommendationCount {
		n = MaxRecommendationCount
	}

	recs, ok := s.data.recommendationsFor(id, n)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleSegments serves the segment aggregate table.
func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.data.segments)
}

// handleCities serves the city distribution.
func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.data.cities)
}

// handleHourly serves the daily engagement curve.
func (s *Server) handleHourly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.data.hourly)
}

// handleWeekly serves the weekly trend.
func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.data.weekly)
}

// handleSummary serves the dataset rollup.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.data.summary)
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully and folds the serving counters into stats.
func serve(ctx context.Context, config *Config, data *population, stats *Stats) error {
	server := newServer(config, data)

	httpServer := &http.Server{
		Addr:              config.Addr,
		Handler:           server.routes(),
		ReadHeaderTimeout: ReadHeaderTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		server.logger.Info(ctx, "mock backend listening",
			logger.String("addr", config.Addr),
			logger.Int("users", len(data.users)))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("listen on %s failed: %w", config.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	stats.RequestsServed = server.served.Load()
	stats.FailuresInjected = server.failures.Load()
	return nil
}
