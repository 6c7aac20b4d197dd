// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	service "github.com/tribelens/tribe/internal/app"
	"github.com/tribelens/tribe/internal/domain/model"
)

// UserDependencies defines the interface for single-user lookups.
type UserDependencies interface {
	User(ctx context.Context, id string) (model.User, bool)
}

// UserHandler serves individual user records.
type UserHandler struct {
	deps UserDependencies
}

// NewUserHandler creates a new user handler.
func NewUserHandler(deps UserDependencies) *UserHandler {
	return &UserHandler{deps: deps}
}

// HandleGetUser handles GET /api/users/{id} requests.
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /api/users/
	id := strings.TrimPrefix(r.URL.Path, "/api/users/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	user, ok := h.deps.User(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", service.ErrUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
