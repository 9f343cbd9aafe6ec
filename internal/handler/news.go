package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/schoolcms/schoolcms/internal/model"
	"github.com/schoolcms/schoolcms/internal/store"
)

type newsRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
}

// ListNews returns one page of news, newest first.
// GET /api/news?page=&limit=
func (h *ContentHandler) ListNews(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	news, err := h.store.ListNews(r.Context(), page, limit)
	if err != nil {
		writeInternal(w, r, h.logger, "failed to list news", err)
		return
	}
	total, err := h.store.CountNews(r.Context())
	if err != nil {
		writeInternal(w, r, h.logger, "failed to count news", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"news":       news,
		"pagination": model.NewPagination(total, page, limit),
	})
}

// GetNews returns a single article.
// GET /api/news/{id}
func (h *ContentHandler) GetNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := h.store.GetNews(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "news not found")
			return
		}
		writeInternal(w, r, h.logger, "failed to get news", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"news": n})
}

// CreateNews publishes an article.
// POST /api/news
func (h *ContentHandler) CreateNews(w http.ResponseWriter, r *http.Request) {
	var req newsRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "news title is required")
		return
	}

	n := &model.News{Title: req.Title, Content: req.Content, ImageURL: req.ImageURL}
	if err := h.store.CreateNews(r.Context(), n); err != nil {
		writeInternal(w, r, h.logger, "failed to create news", err)
		return
	}
	if !h.record(w, r, model.ActivityNews, "added news: "+n.Title) {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "news created",
		"newsId":  n.ID,
	})
}

// UpdateNews replaces an article's editable fields.
// PUT /api/news/{id}
func (h *ContentHandler) UpdateNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req newsRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "news title is required")
		return
	}

	n := &model.News{ID: id, Title: req.Title, Content: req.Content, ImageURL: req.ImageURL}
	if err := h.store.UpdateNews(r.Context(), n); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "news not found")
			return
		}
		writeInternal(w, r, h.logger, "failed to update news", err)
		return
	}
	if !h.record(w, r, model.ActivityNews, "updated news: "+n.Title) {
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Success: true, Message: "news updated"})
}

// DeleteNews removes an article.
// DELETE /api/news/{id}
func (h *ContentHandler) DeleteNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := h.store.GetNews(r.Context(), id)
	if err == nil {
		err = h.store.DeleteNews(r.Context(), id)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "news not found")
			return
		}
		writeInternal(w, r, h.logger, "failed to delete news", err)
		return
	}
	if !h.record(w, r, model.ActivityNews, "deleted news: "+n.Title) {
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Success: true, Message: "news deleted"})
}
