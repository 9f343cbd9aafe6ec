package handler

import (
	"errors"
	"net/http"

	"github.com/schoolcms/schoolcms/internal/upload"
)

// multipartOverhead is the allowance for form fields and boundaries on top
// of the file size limit.
const multipartOverhead = 1 << 20

// parseUpload reads a multipart request whose "file" field is checked against
// p and stored. It writes the error response itself and returns nil on
// failure. The caller must call r.MultipartForm.RemoveAll when stored is
// non-nil.
func (h *ContentHandler) parseUpload(w http.ResponseWriter, r *http.Request, p upload.Policy) *upload.Stored {
	r.Body = http.MaxBytesReader(w, r.Body, p.MaxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, upload.ErrTooLarge.Error())
			return nil
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return nil
	}

	stored, err := h.uploads.Save(firstFile(r, "file"), p)
	if err != nil {
		r.MultipartForm.RemoveAll()
		switch {
		case errors.Is(err, upload.ErrTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, upload.ErrNoFile), errors.Is(err, upload.ErrTypeNotAllowed):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeInternal(w, r, h.logger, "failed to store upload", err)
		}
		return nil
	}
	return stored
}

// Upload stores a single image and returns its public URL.
// POST /api/upload
func (h *ContentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	stored := h.parseUpload(w, r, h.imagePolicy)
	if stored == nil {
		return
	}
	r.MultipartForm.RemoveAll()

	h.logger.Debug("image uploaded", "file", stored.Filename, "size", stored.Size)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "file uploaded",
		"file":    stored,
	})
}
