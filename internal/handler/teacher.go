package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/schoolcms/schoolcms/internal/model"
	"github.com/schoolcms/schoolcms/internal/store"
)

type teacherRequest struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	Department   string `json:"department"`
	AvatarURL    string `json:"avatar_url"`
	Introduction string `json:"introduction"`
	OrderNum     *int   `json:"order_num"`
}

func (req teacherRequest) toModel(id int64) *model.Teacher {
	order := 1
	if req.OrderNum != nil {
		order = *req.OrderNum
	}
	return &model.Teacher{
		ID:           id,
		Name:         req.Name,
		Title:        req.Title,
		Department:   req.Department,
		AvatarURL:    req.AvatarURL,
		Introduction: req.Introduction,
		OrderNum:     order,
	}
}

// ListTeachers returns every teacher profile in display order.
// GET /api/teachers
func (h *ContentHandler) ListTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.store.ListTeachers(r.Context())
	if err != nil {
		writeInternal(w, r, h.logger, "failed to list teachers", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"teachers": teachers})
}

// GET /api/teachers/{id}
func (h *ContentHandler) GetTeacher(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := h.store.GetTeacher(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "teacher not found")
			return
		}
		writeInternal(w, r, h.logger, "failed to get teacher", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"teacher": t})
}

// POST /api/teachers
func (h *ContentHandler) CreateTeacher(w http.ResponseWriter, r *http.Request) {
	var req teacherRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "teacher name is required")
		return
	}

	t := req.toModel(0)
	if err := h.store.CreateTeacher(r.Context(), t); err != nil {
		writeInternal(w, r, h.logger, "failed to create teacher", err)
		return
	}
	if !h.record(w, r, model.ActivityTeachers, "added teacher: "+t.Name) {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "teacher created",
		"teacherId": t.ID,
	})
}

// PUT /api/teachers/{id}
func (h *ContentHandler) UpdateTeacher(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req teacherRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "teacher name is required")
		return
	}

	t := req.toModel(id)
	if err := h.store.UpdateTeacher(r.Context(), t); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "teacher not found")
			return
		}
		writeInternal(w, r, h.logger, "failed to update teacher", err)
		return
	}
	if !h.record(w, r, model.ActivityTeachers, "updated teacher: "+t.Name) {
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Success: true, Message: "teacher updated"})
}

// DELETE /api/teachers/{id}
func (h *ContentHandler) DeleteTeacher(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := h.store.GetTeacher(r.Context(), id)
	if err == nil {
		err = h.store.DeleteTeacher(r.Context(), id)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "teacher not found")
			return
		}
		writeInternal(w, r, h.logger, "failed to delete teacher", err)
		return
	}
	if !h.record(w, r, model.ActivityTeachers, "deleted teacher: "+t.Name) {
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Success: true, Message: "teacher deleted"})
}
