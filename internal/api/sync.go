package api

import (
	"net/http"

	"github.com/grantfleet/yardwatch/internal/store"
)

// handleSyncTrigger handles POST /api/v1/sync
func (s *Server) handleSyncTrigger(w http.ResponseWriter, r *http.Request) {
	result, err := s.sync.Trigger(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// syncLogsResponse represents the response for the sync logs endpoint.
type syncLogsResponse struct {
	Items []store.SyncLogEntry `json:"items"`
}

// handleSyncLogs handles GET /api/v1/sync/logs
func (s *Server) handleSyncLogs(w http.ResponseWriter, r *http.Request) {
	items, err := s.sync.Logs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", err)
		return
	}

	if items == nil {
		items = []store.SyncLogEntry{}
	}
	writeJSON(w, http.StatusOK, syncLogsResponse{Items: items})
}
