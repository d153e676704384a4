package api

import (
	"net/http"

	"github.com/grantfleet/yardwatch/internal/issues"
)

// issuesResponse represents the response for the issues endpoint.
type issuesResponse struct {
	Items []issues.Issue `json:"items"`
}

// handleIssues handles GET /api/v1/issues
func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
	items, err := s.issues.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", err)
		return
	}

	if items == nil {
		items = []issues.Issue{}
	}
	writeJSON(w, http.StatusOK, issuesResponse{Items: items})
}
