// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tribelens/tribe/internal/adapters/jobs/queue"
	service "github.com/tribelens/tribe/internal/app"
)

// SelectionDependencies defines the interface for selection changes.
type SelectionDependencies interface {
	SelectUser(ctx context.Context, id string) error
}

// selectionRequest mirrors the OpenAPI schema for POST /api/selection.
type selectionRequest struct {
	UserID string `json:"userId"`
}

func (s selectionRequest) validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return errors.New("missing userId")
	}
	return nil
}

// SelectionHandler handles selection change requests.
type SelectionHandler struct {
	deps SelectionDependencies
}

// NewSelectionHandler creates a new selection handler.
func NewSelectionHandler(deps SelectionDependencies) *SelectionHandler {
	return &SelectionHandler{deps: deps}
}

// HandlePostSelection handles POST /api/selection requests. The change is
// applied asynchronously; 202 only acknowledges the enqueue.
func (h *SelectionHandler) HandlePostSelection(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_selection"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if err := h.deps.SelectUser(r.Context(), req.UserID); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "not_found", err)
		case errors.Is(err, queue.ErrQueueFull):
			writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
