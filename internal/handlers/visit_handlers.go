package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sfhouse/intake/internal/response"
	"github.com/sfhouse/intake/internal/view"
	"github.com/sfhouse/intake/pkg/logger"
)

// ListVisits returns a client's visit history, most recent first.
func (h *Handlers) ListVisits(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	limit := parseLimit(r, h.config.App.VisitsLimit)
	visits, err := h.clientService.ListVisits(r.Context(), userID, limit)
	if err != nil {
		logger.ErrorContext(r.Context(), "Visit list failed", "error", err)
		response.InternalError(w, "Failed to load visits")
		return
	}
	if visits == nil {
		response.NotFound(w, "Client not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"visits": visits})
}

func (h *Handlers) GetVisit(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	visitID := chi.URLParam(r, "visitId")

	visit, err := h.clientService.GetVisit(r.Context(), userID, visitID)
	if err != nil {
		logger.ErrorContext(r.Context(), "Visit lookup failed", "error", err)
		response.InternalError(w, "Failed to load visit")
		return
	}
	if visit == nil {
		response.NotFound(w, "Visit not found")
		return
	}

	writeJSON(w, http.StatusOK, visit)
}

// GetVisitView renders the visit detail page. A missing visit redirects
// back to the owning client's profile; a store failure stays put.
func (h *Handlers) GetVisitView(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	visitID := chi.URLParam(r, "visitId")

	visit, err := h.clientService.GetVisit(r.Context(), userID, visitID)
	switch view.ResolvePage(visit != nil, err) {
	case view.PageFailed:
		logger.ErrorContext(r.Context(), "Visit view failed", "error", err)
		response.InternalError(w, "Failed to load visit")
	case view.PageNotFound:
		redirect(w, "/profile/"+userID)
	default:
		writeJSON(w, http.StatusOK, view.NewVisitDetail(visit))
	}
}
