package handler

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/schoolcms/schoolcms/internal/model"
	"github.com/schoolcms/schoolcms/internal/store"
)

// ListDownloads returns published files, optionally filtered by category.
// GET /api/downloads?category=
func (h *ContentHandler) ListDownloads(w http.ResponseWriter, r *http.Request) {
	downloads, err := h.store.ListDownloads(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeInternal(w, r, h.logger, "failed to list downloads", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"downloads": downloads})
}

// GET /api/downloads/{id}
func (h *ContentHandler) GetDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := h.store.GetDownload(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		writeInternal(w, r, h.logger, "failed to get download", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"download": d})
}

// DownloadFile streams a published file as an attachment and counts the
// download.
// GET /api/downloads/{id}/file
func (h *ContentHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := h.store.GetDownload(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		writeInternal(w, r, h.logger, "failed to get download", err)
		return
	}

	f, err := h.uploads.Open(d.StoredName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		writeInternal(w, r, h.logger, "failed to open stored file", err)
		return
	}
	defer f.Close()

	if err := h.store.IncrementDownloadCount(r.Context(), id); err != nil {
		h.logger.Warn("failed to count download", "download_id", id, "error", err)
	}

	if d.FileType != "" {
		w.Header().Set("Content-Type", d.FileType)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.FileName}))
	http.ServeContent(w, r, d.FileName, d.UploadDate, f)
}

// CreateDownload publishes a new file from a multipart form with fields
// file, title, description and category.
// POST /api/downloads
func (h *ContentHandler) CreateDownload(w http.ResponseWriter, r *http.Request) {
	stored := h.parseUpload(w, r, h.documentPolicy)
	if stored == nil {
		return
	}
	defer r.MultipartForm.RemoveAll()

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = stored.OriginalName
	}
	d := &model.Download{
		Title:       title,
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		FileName:    stored.OriginalName,
		StoredName:  stored.Filename,
		FileType:    stored.MIMEType,
		FileSize:    stored.Size,
	}
	if err := h.store.CreateDownload(r.Context(), d); err != nil {
		h.uploads.Remove(stored.Filename)
		writeInternal(w, r, h.logger, "failed to create download", err)
		return
	}
	if !h.record(w, r, model.ActivityDownloads, "uploaded file: "+d.Title) {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"message":    "file published",
		"downloadId": d.ID,
	})
}

// DeleteDownload removes a published file and its stored body.
// DELETE /api/downloads/{id}
func (h *ContentHandler) DeleteDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := h.store.GetDownload(r.Context(), id)
	if err == nil {
		err = h.store.DeleteDownload(r.Context(), id)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		writeInternal(w, r, h.logger, "failed to delete download", err)
		return
	}
	if err := h.uploads.Remove(d.StoredName); err != nil {
		h.logger.Warn("failed to remove stored file", "file", d.StoredName, "error", err)
	}
	if !h.record(w, r, model.ActivityDownloads, "deleted file: "+d.Title) {
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Success: true, Message: "file deleted"})
}

// firstFile returns the first file sent under field, or nil.
func firstFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	if files := r.MultipartForm.File[field]; len(files) > 0 {
		return files[0]
	}
	return nil
}
