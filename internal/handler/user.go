package handler

import "net/http"

// CountUsers returns the number of administrator accounts.
// GET /api/users/count
func (h *ContentHandler) CountUsers(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.CountAdmins(r.Context())
	if err != nil {
		writeInternal(w, r, h.logger, "failed to count users", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}
