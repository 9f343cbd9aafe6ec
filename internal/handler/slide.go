package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/schoolcms/schoolcms/internal/model"
	"github.com/schoolcms/schoolcms/internal/store"
)

type slideRequest struct {
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	Link     string `json:"link"`
	OrderNum int    `json:"order_num"`
}

func (req slideRequest) toModel(id int64) *model.Slide {
	return &model.Slide{ID: id, Title: req.Title, ImageURL: req.ImageURL, Link: req.Link, OrderNum: req.OrderNum}
}

// ListSlides returns every carousel slide in display order.
// GET /api/slides
func (h *ContentHandler) ListSlides(w http.ResponseWriter, r *http.Request) {
	slides, err := h.store.ListSlides(r.Context())
	if err != nil {
		writeInternal(w, r, h.logger, "failed to list slides", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"slides": slides})
}

// GET /api/slides/{id}
func (h *ContentHandler) GetSlide(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sl, err := h.store.GetSlide(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "slide not found")
			return
		}
		writeInternal(w, r, h.logger, "failed to get slide", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"slide": sl})
}

// POST /api/slides
func (h *ContentHandler) CreateSlide(w http.ResponseWriter, r *http.Request) {
	var req slideRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		writeError(w, http.StatusBadRequest, "slide image_url is required")
		return
	}

	sl := req.toModel(0)
	if err := h.store.CreateSlide(r.Context(), sl); err != nil {
		writeInternal(w, r, h.logger, "failed to create slide", err)
		return
	}
	if !h.record(w, r, model.ActivitySlides, "added slide: "+slideLabel(sl)) {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "slide created",
		"slideId": sl.ID,
	})
}

// PUT /api/slides/{id}
func (h *ContentHandler) UpdateSlide(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req slideRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		writeError(w, http.StatusBadRequest, "slide image_url is required")
		return
	}

	sl := req.toModel(id)
	if err := h.store.UpdateSlide(r.Context(), sl); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "slide not found")
			return
		}
		writeInternal(w, r, h.logger, "failed to update slide", err)
		return
	}
	if !h.record(w, r, model.ActivitySlides, "updated slide: "+slideLabel(sl)) {
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Success: true, Message: "slide updated"})
}

// DELETE /api/slides/{id}
func (h *ContentHandler) DeleteSlide(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sl, err := h.store.GetSlide(r.Context(), id)
	if err == nil {
		err = h.store.DeleteSlide(r.Context(), id)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "slide not found")
			return
		}
		writeInternal(w, r, h.logger, "failed to delete slide", err)
		return
	}
	if !h.record(w, r, model.ActivitySlides, "deleted slide: "+slideLabel(sl)) {
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Success: true, Message: "slide deleted"})
}

// slideLabel names a slide in activity descriptions; titles are optional.
func slideLabel(sl *model.Slide) string {
	if sl.Title != "" {
		return sl.Title
	}
	return sl.ImageURL
}
