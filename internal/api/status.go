package api

import (
	"log/slog"
	"net/http"

	"github.com/dkovalev/agentgate/internal/store"
)

// statusListLimit caps how many status checks one listing returns.
const statusListLimit = 1000

// StatusCheckRequest is the request body for recording a status check.
type StatusCheckRequest struct {
	ClientName string `json:"client_name"`
}

// statusHandler holds dependencies for the root and status endpoints.
type statusHandler struct {
	status StatusStore
	logger *slog.Logger
}

// root handles GET /api/.
func (h *statusHandler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World"}, h.logger)
}

// create handles POST /api/status.
func (h *statusHandler) create(w http.ResponseWriter, r *http.Request) {
	var req StatusCheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}
	if req.ClientName == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "client_name is required", h.logger)
		return
	}

	check, err := h.status.CreateStatusCheck(r.Context(), req.ClientName)
	if err != nil {
		h.logger.Error("creating status check", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to record status check", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, check, h.logger)
}

// list handles GET /api/status.
func (h *statusHandler) list(w http.ResponseWriter, r *http.Request) {
	checks, err := h.status.ListStatusChecks(r.Context(), statusListLimit)
	if err != nil {
		h.logger.Error("listing status checks", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list status checks", h.logger)
		return
	}
	if checks == nil {
		checks = []store.StatusCheck{}
	}

	writeJSON(w, http.StatusOK, checks, h.logger)
}
