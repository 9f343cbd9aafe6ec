package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/schoolcms/schoolcms/internal/model"
	"github.com/schoolcms/schoolcms/internal/server/middleware"
	"github.com/schoolcms/schoolcms/internal/service"
)

// AuthHandler serves the admin session endpoints.
type AuthHandler struct {
	sessions *service.SessionService
	logger   *slog.Logger
}

func NewAuthHandler(sessions *service.SessionService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates an administrator and returns a bearer token.
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, err.Error())
		default:
			writeInternal(w, r, h.logger, "login failed", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Me returns the authenticated administrator's profile.
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	profile, err := h.sessions.WhoAmI(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrAdminNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeInternal(w, r, h.logger, "failed to load admin", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"admin": profile})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword replaces the authenticated administrator's password.
// PUT /api/auth/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req changePasswordRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.sessions.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidCurrentPassword):
			writeError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrAdminNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeInternal(w, r, h.logger, "failed to change password", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "password changed"})
}
