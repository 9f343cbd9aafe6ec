package handler

import (
	"net/http"
	"strings"

	"github.com/schoolcms/schoolcms/internal/model"
)

const maxSettingKeyLen = 50

// GetSettings returns all site settings both as a key/value map and as the
// raw records.
// GET /api/settings
func (h *ContentHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.ListSettings(r.Context())
	if err != nil {
		writeInternal(w, r, h.logger, "failed to load settings", err)
		return
	}

	values := make(map[string]string, len(settings))
	for _, s := range settings {
		values[s.Key] = s.Value
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"settings": values,
		"raw":      settings,
	})
}

// UpdateSettings upserts every key of a JSON object of string values in one
// transaction.
// PUT /api/settings
func (h *ContentHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if err := readJSON(r, &values); err != nil {
		writeError(w, http.StatusBadRequest, "settings must be a JSON object of string values")
		return
	}
	if len(values) == 0 {
		writeError(w, http.StatusBadRequest, "no settings provided")
		return
	}
	for k := range values {
		if strings.TrimSpace(k) == "" || len(k) > maxSettingKeyLen {
			writeError(w, http.StatusBadRequest, "invalid setting key: "+k)
			return
		}
	}

	if err := h.store.SaveSettings(r.Context(), values); err != nil {
		writeInternal(w, r, h.logger, "failed to save settings", err)
		return
	}
	if !h.record(w, r, model.ActivitySettings, "updated site settings") {
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Success: true, Message: "settings updated"})
}
