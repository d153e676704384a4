package api

import (
	"net/http"

	"github.com/grantfleet/yardwatch/internal/upstream"
)

// driversResponse represents the response for the drivers endpoint.
type driversResponse struct {
	Items []upstream.Driver `json:"items"`
}

// handleDrivers handles GET /api/v1/drivers
func (s *Server) handleDrivers(w http.ResponseWriter, r *http.Request) {
	items, err := s.drivers.List(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "upstream unavailable", err)
		return
	}

	if items == nil {
		items = []upstream.Driver{}
	}
	writeJSON(w, http.StatusOK, driversResponse{Items: items})
}
