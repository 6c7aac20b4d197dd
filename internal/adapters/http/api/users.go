// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/tribelens/tribe/internal/domain/model"
)

// UsersDependencies defines the interface for population reads.
type UsersDependencies interface {
	Snapshot(ctx context.Context) *model.Snapshot
}

// UsersHandler serves the current population list.
type UsersHandler struct {
	deps     UsersDependencies
	maxLimit int
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(deps UsersDependencies, maxLimit int) *UsersHandler {
	return &UsersHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetUsers handles GET /api/users?limit=N&segment=S requests.
// Without a limit the full population is returned.
func (h *UsersHandler) HandleGetUsers(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_users"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	users := h.deps.Snapshot(r.Context()).Users

	if segment := r.URL.Query().Get("segment"); segment != "" {
		filtered := make([]model.User, 0, len(users))
		for i := range users {
			if users[i].Segment == segment {
				filtered = append(filtered, users[i])
			}
		}
		users = filtered
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		if n < len(users) {
			users = users[:n]
		}
	}
	writeJSON(w, http.StatusOK, users)
}
