package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/grantfleet/yardwatch/internal/event"
	"github.com/grantfleet/yardwatch/internal/notify"
)

// defaultActivityLimit caps the activity feed when no limit is given.
const defaultActivityLimit = 50

// handleActivity handles GET /api/v1/activity
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, defaultActivityLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	summary, err := s.activity.Summary(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", err)
		return
	}

	if summary.Events == nil {
		summary.Events = []event.Event{}
	}
	writeJSON(w, http.StatusOK, summary)
}

// notificationsResponse represents the response for the notifications endpoint.
type notificationsResponse struct {
	Items []event.Event `json:"items"`

	// AdvanceTo acknowledges exactly this delivery when posted back to
	// the ack endpoint.
	AdvanceTo *time.Time `json:"advance_to,omitempty"`
}

// handleNotifications handles GET /api/v1/notifications
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	items, advanceTo, err := s.activity.Pending(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", err)
		return
	}

	resp := notificationsResponse{Items: items}
	if resp.Items == nil {
		resp.Items = []event.Event{}
	}
	if !advanceTo.IsZero() {
		resp.AdvanceTo = &advanceTo
	}
	writeJSON(w, http.StatusOK, resp)
}

// ackRequest represents the acknowledge request body.
type ackRequest struct {
	// Cursor names which consumer to advance. Defaults to the owner
	// notification cursor.
	Cursor string `json:"cursor,omitempty"`

	// Timestamp is the advance_to value from a prior delivery (RFC3339).
	// Omitted means "caught up to the newest event".
	Timestamp string `json:"timestamp,omitempty"`
}

// handleNotificationsAck handles POST /api/v1/notifications/ack
func (s *Server) handleNotificationsAck(w http.ResponseWriter, r *http.Request) {
	var req ackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	cursor := req.Cursor
	if cursor == "" {
		cursor = notify.CursorOwnerNotified
	}
	switch cursor {
	case notify.CursorOwnerNotified, notify.CursorActivitySeen:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown cursor: %s", cursor), nil)
		return
	}

	var t time.Time
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid timestamp", nil)
			return
		}
		t = parsed
	}

	if err := s.activity.Acknowledge(r.Context(), cursor, t); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
