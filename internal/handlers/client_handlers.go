package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sfhouse/intake/internal/domain"
	"github.com/sfhouse/intake/internal/forms"
	"github.com/sfhouse/intake/internal/response"
	"github.com/sfhouse/intake/internal/view"
	"github.com/sfhouse/intake/pkg/logger"
)

// SearchClients looks clients up by the search form fields passed as
// query parameters. Empty fields don't filter, so a bare request lists
// everyone.
func (h *Handlers) SearchClients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	form := forms.SearchForm{
		FirstName:        q.Get("first_name"),
		LastName:         q.Get("last_name"),
		Birthday:         q.Get("birthday"),
		FilterByBirthday: q.Get("filter_by_birthday") == "true",
	}

	limit := parseLimit(r, h.config.App.SearchLimit)
	clients, err := h.clientService.Search(r.Context(), form.Filter(), limit)
	if err != nil {
		logger.ErrorContext(r.Context(), "Client search failed", "error", err)
		response.InternalError(w, "Search failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"clients": clients,
		"list":    view.NewList(clients, false, ""),
	})
}

// saveClientRequest is the intake form submission: the client fields
// plus the save-time controls.
type saveClientRequest struct {
	domain.ClientRecord
	ToggleCheckIn bool   `json:"toggle_check_in,omitempty"`
	Redirect      string `json:"redirect,omitempty"`
}

type saveClientResponse struct {
	Saved    bool           `json:"saved"`
	Client   *domain.Client `json:"client,omitempty"`
	Redirect string         `json:"redirect"`
}

// CreateClient creates a new record from the intake form. Submitting
// with both names blank saves nothing but still reports where to
// navigate.
func (h *Handlers) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req saveClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	form := forms.NewClientForm("", &req.ClientRecord, req.Redirect, time.Now())
	result := form.Save()
	if req.ToggleCheckIn {
		result = form.SaveToggleCheckIn()
	}

	if !result.Write {
		writeJSON(w, http.StatusOK, saveClientResponse{
			Saved:    false,
			Redirect: result.RedirectTo(""),
		})
		return
	}

	client, err := h.clientService.Create(r.Context(), recordFromClient(result.Client))
	if err != nil {
		logger.ErrorContext(r.Context(), "Client create failed", "error", err)
		response.InternalError(w, "Failed to create client")
		return
	}

	writeJSON(w, http.StatusCreated, saveClientResponse{
		Saved:    true,
		Client:   client,
		Redirect: result.RedirectTo(client.ID),
	})
}

// UpdateClient overwrites the record from the intake form. The stored
// checked-in status survives a plain save; only the toggle action
// changes it.
func (h *Handlers) UpdateClient(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var req saveClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	existing, err := h.clientService.Get(r.Context(), userID)
	if err != nil {
		logger.ErrorContext(r.Context(), "Client lookup failed", "error", err)
		response.InternalError(w, "Failed to load client")
		return
	}
	if existing == nil {
		response.NotFound(w, "Client not found")
		return
	}

	form := forms.NewClientForm(userID, &req.ClientRecord, req.Redirect, time.Now())
	if req.IsCheckedIn == nil {
		form.Fields.IsCheckedIn = existing.IsCheckedIn
	}

	result := form.Save()
	if req.ToggleCheckIn {
		result = form.SaveToggleCheckIn()
	}

	client, err := h.clientService.Put(r.Context(), userID, result.Client)
	if err != nil {
		logger.ErrorContext(r.Context(), "Client update failed", "error", err)
		response.InternalError(w, "Failed to update client")
		return
	}
	if client == nil {
		response.NotFound(w, "Client not found")
		return
	}

	writeJSON(w, http.StatusOK, saveClientResponse{
		Saved:    true,
		Client:   client,
		Redirect: result.RedirectTo(userID),
	})
}

func (h *Handlers) GetClient(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	client, err := h.clientService.Get(r.Context(), userID)
	if err != nil {
		logger.ErrorContext(r.Context(), "Client lookup failed", "error", err)
		response.InternalError(w, "Failed to load client")
		return
	}
	if client == nil {
		response.NotFound(w, "Client not found")
		return
	}

	writeJSON(w, http.StatusOK, client)
}

// GetProfile renders the read-only profile page. A missing client
// redirects the desk back home; a store failure stays on the page as an
// error.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	client, err := h.clientService.Get(r.Context(), userID)
	switch view.ResolvePage(client != nil, err) {
	case view.PageFailed:
		logger.ErrorContext(r.Context(), "Profile load failed", "error", err)
		response.InternalError(w, "Failed to load profile")
	case view.PageNotFound:
		redirect(w, "/")
	default:
		writeJSON(w, http.StatusOK, view.NewProfile(client))
	}
}

// CheckInClient records a visit with the requested items and marks the
// client checked in.
func (h *Handlers) CheckInClient(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var rec domain.VisitRecord
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			response.BadRequest(w, "Invalid request body")
			return
		}
	}

	client, visit, err := h.clientService.CheckIn(r.Context(), userID, rec)
	if err != nil {
		logger.ErrorContext(r.Context(), "Check-in failed", "error", err)
		response.InternalError(w, "Failed to check in client")
		return
	}
	if client == nil {
		response.NotFound(w, "Client not found")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"client":   client,
		"visit":    visit,
		"redirect": forms.DefaultRedirect,
	})
}

func (h *Handlers) CheckOutClient(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	client, err := h.clientService.CheckOut(r.Context(), userID)
	if err != nil {
		logger.ErrorContext(r.Context(), "Check-out failed", "error", err)
		response.InternalError(w, "Failed to check out client")
		return
	}
	if client == nil {
		response.NotFound(w, "Client not found")
		return
	}

	writeJSON(w, http.StatusOK, client)
}

func (h *Handlers) BanClient(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, true)
}

func (h *Handlers) UnbanClient(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, false)
}

func (h *Handlers) setBanned(w http.ResponseWriter, r *http.Request, banned bool) {
	userID := chi.URLParam(r, "userId")

	client, err := h.clientService.SetBanned(r.Context(), userID, banned)
	if err != nil {
		logger.ErrorContext(r.Context(), "Ban update failed", "error", err)
		response.InternalError(w, "Failed to update ban flag")
		return
	}
	if client == nil {
		response.NotFound(w, "Client not found")
		return
	}

	writeJSON(w, http.StatusOK, client)
}

// recordFromClient turns a fully defaulted Client back into the record
// shape the data layer accepts.
func recordFromClient(c domain.Client) domain.ClientRecord {
	return domain.ClientRecord{
		FirstName:     &c.FirstName,
		LastName:      &c.LastName,
		MiddleInitial: &c.MiddleInitial,
		Birthday:      &c.Birthday,
		Gender:        &c.Gender,
		Race:          &c.Race,
		PostalCode:    &c.PostalCode,
		NumKids:       &c.NumKids,
		Notes:         &c.Notes,
		IsCheckedIn:   &c.IsCheckedIn,
		IsBanned:      &c.IsBanned,
	}
}
