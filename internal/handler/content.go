package handler

import (
	"log/slog"
	"net/http"

	"github.com/schoolcms/schoolcms/internal/server/middleware"
	"github.com/schoolcms/schoolcms/internal/store"
	"github.com/schoolcms/schoolcms/internal/upload"
)

// ContentHandler serves the public site content (news, slides, teachers,
// downloads, settings) and the admin operations that edit it. Every write
// is recorded in the activity log.
type ContentHandler struct {
	store          *store.Store
	uploads        *upload.Storage
	imagePolicy    upload.Policy
	documentPolicy upload.Policy
	logger         *slog.Logger
}

// UploadLimits are the per-kind size limits for uploaded files.
type UploadLimits struct {
	MaxImageSize int64
	MaxFileSize  int64
}

func NewContentHandler(s *store.Store, uploads *upload.Storage, limits UploadLimits, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		store:          s,
		uploads:        uploads,
		imagePolicy:    upload.ImagePolicy(limits.MaxImageSize),
		documentPolicy: upload.DocumentPolicy(limits.MaxFileSize),
		logger:         logger,
	}
}

// record appends an activity for the authenticated admin. When the append
// fails it answers 500 and returns false; the content write has already been
// committed at that point.
func (h *ContentHandler) record(w http.ResponseWriter, r *http.Request, typ, description string) bool {
	var actor *int64
	if id, ok := middleware.GetIdentity(r.Context()); ok {
		actor = &id.AdminID
	}
	if _, err := h.store.AppendActivity(r.Context(), typ, description, actor); err != nil {
		writeInternal(w, r, h.logger, "failed to record activity", err)
		return false
	}
	return true
}
