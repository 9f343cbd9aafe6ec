package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/schoolcms/schoolcms/internal/model"
	"github.com/schoolcms/schoolcms/internal/server/middleware"
	"github.com/schoolcms/schoolcms/internal/store"
)

// ActivityHandler serves the activity log endpoints.
type ActivityHandler struct {
	store  *store.Store
	logger *slog.Logger
}

func NewActivityHandler(s *store.Store, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{store: s, logger: logger}
}

// List returns one page of the activity log, newest first.
// GET /api/activities?page=&limit=
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	activities, err := h.store.ListActivities(r.Context(), page, limit)
	if err != nil {
		writeInternal(w, r, h.logger, "failed to list activities", err)
		return
	}
	total, err := h.store.CountActivities(r.Context())
	if err != nil {
		writeInternal(w, r, h.logger, "failed to count activities", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"activities": activities,
		"pagination": model.NewPagination(total, page, limit),
	})
}

type createActivityRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type createActivityResponse struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// Create appends an activity on behalf of the authenticated administrator.
// POST /api/activities
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createActivityRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Type = strings.TrimSpace(req.Type)
	if req.Type == "" || strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, "type and description are required")
		return
	}

	var actor *int64
	if id, ok := middleware.GetIdentity(r.Context()); ok {
		actor = &id.AdminID
	}

	a, err := h.store.AppendActivity(r.Context(), req.Type, req.Description, actor)
	if err != nil {
		writeInternal(w, r, h.logger, "failed to record activity", err)
		return
	}

	writeJSON(w, http.StatusCreated, createActivityResponse{
		ID:          a.ID,
		Type:        a.Type,
		Description: a.Description,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339Nano),
	})
}

// Clear deletes the whole activity log.
// DELETE /api/activities/clear
func (h *ActivityHandler) Clear(w http.ResponseWriter, r *http.Request) {
	removed, err := h.store.ClearActivities(r.Context())
	if err != nil {
		writeInternal(w, r, h.logger, "failed to clear activities", err)
		return
	}
	h.logger.Info("activity log cleared", "removed", removed, "request_id", middleware.GetRequestID(r.Context()))

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "activity log cleared"})
}
