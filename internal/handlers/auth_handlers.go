package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sfhouse/intake/internal/domain"
	"github.com/sfhouse/intake/internal/response"
	"github.com/sfhouse/intake/internal/service"
	"github.com/sfhouse/intake/pkg/logger"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	info, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			response.WriteError(w, http.StatusConflict, "Email already registered", response.CodeEmailExists)
			return
		}
		logger.ErrorContext(r.Context(), "Registration failed", "error", err)
		response.BadRequest(w, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"staff":   info,
		"message": "Registration successful. Check your email to verify your account.",
	})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Unauthorized(w, "Invalid email or password")
		case errors.Is(err, service.ErrNotVerified):
			response.Forbidden(w, "Email not verified")
		default:
			logger.ErrorContext(r.Context(), "Login failed", "error", err)
			response.BadRequest(w, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.BadRequest(w, "Missing verification token")
		return
	}

	if err := h.authService.VerifyEmail(r.Context(), token); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			response.WriteError(w, http.StatusBadRequest, "Invalid or expired token", response.CodeInvalidToken)
			return
		}
		logger.ErrorContext(r.Context(), "Email verification failed", "error", err)
		response.InternalError(w, "Verification failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Email verified. You can sign in now."})
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		response.BadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.authService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		response.WriteError(w, http.StatusUnauthorized, "Invalid or expired token", response.CodeInvalidToken)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Not signed in")
		return
	}

	info, err := h.authService.GetStaff(r.Context(), claims.Sub)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to load staff", "error", err)
		response.InternalError(w, "Failed to load account")
		return
	}
	if info == nil {
		response.NotFound(w, "Account not found")
		return
	}

	writeJSON(w, http.StatusOK, info)
}
