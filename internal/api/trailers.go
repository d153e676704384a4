package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/grantfleet/yardwatch/internal/derive"
	"github.com/grantfleet/yardwatch/internal/event"
)

// trailersResponse represents the response for the trailers endpoint.
type trailersResponse struct {
	Items []derive.TrailerState `json:"items"`
}

// handleTrailers handles GET /api/v1/trailers
func (s *Server) handleTrailers(w http.ResponseWriter, r *http.Request) {
	items, err := s.trailers.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", err)
		return
	}

	// Empty array, not null, for JSON serialization
	if items == nil {
		items = []derive.TrailerState{}
	}
	writeJSON(w, http.StatusOK, trailersResponse{Items: items})
}

// historyResponse represents the response for the trailer history endpoint.
type historyResponse struct {
	Trailer string        `json:"trailer"`
	Items   []event.Event `json:"items"`
}

// handleTrailerHistory handles GET /api/v1/trailers/{trailer}/history
func (s *Server) handleTrailerHistory(w http.ResponseWriter, r *http.Request) {
	trailer := r.PathValue("trailer")
	if trailer == "" {
		writeError(w, http.StatusBadRequest, "missing trailer", nil)
		return
	}

	limit, err := parseLimit(r, 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	items, err := s.trailers.History(r.Context(), trailer, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", err)
		return
	}

	if items == nil {
		items = []event.Event{}
	}
	writeJSON(w, http.StatusOK, historyResponse{
		Trailer: event.NormalizeTrailerNumber(trailer),
		Items:   items,
	})
}

// parseLimit parses the 'limit' query parameter, returning def when absent.
func parseLimit(r *http.Request, def int) (int, error) {
	l := r.URL.Query().Get("limit")
	if l == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(l)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("invalid limit: %s", l)
	}
	return limit, nil
}
