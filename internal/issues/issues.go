// Package issues detects data-quality anomalies in the event log.
package issues

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/grantfleet/yardwatch/internal/event"
)

// Type identifies an anomaly class.
type Type string

// Anomaly types.
const (
	// TypeUnknownTrailer marks an event whose trailer is absent from the
	// configured master allow-list.
	TypeUnknownTrailer Type = "UNKNOWN_TRAILER"
	// TypePickupWithoutDrop marks a PICK with no prior DROP for its trailer
	// anywhere earlier in the history.
	TypePickupWithoutDrop Type = "PICKUP_WITHOUT_DROP"
)

// Issue is one detected anomaly. Issues are recomputed on demand and never
// persisted; the ID is deterministic so consumers can key on it.
type Issue struct {
	ID            string    `json:"id"`
	Type          Type      `json:"type"`
	TrailerNumber string    `json:"trailerNumber"`
	EventID       string    `json:"eventId"`
	Timestamp     time.Time `json:"timestamp"`
	Message       string    `json:"message"`
}

// Detect scans the log in chronological order and returns all anomalies,
// sorted descending by timestamp.
//
// An empty master list means "no filtering configured": the unknown-trailer
// check is skipped entirely, not applied to everything. The per-trailer
// "ever dropped" set is monotonic and never reset, so a trailer dropped once
// and picked up twice only flags the second pickup if no drop intervened.
func Detect(events []event.Event, masterList []string) []Issue {
	sorted := make([]event.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return event.Before(sorted[i], sorted[j])
	})

	known := make(map[string]bool, len(masterList))
	for _, id := range masterList {
		known[strings.ToUpper(strings.TrimSpace(id))] = true
	}

	dropped := make(map[string]bool)
	var found []Issue

	for _, e := range sorted {
		trailer := e.TrailerNumber
		if trailer == "" {
			continue
		}

		if len(known) > 0 && !known[strings.ToUpper(trailer)] {
			found = append(found, Issue{
				ID:            fmt.Sprintf("%s:%s", e.ID, TypeUnknownTrailer),
				Type:          TypeUnknownTrailer,
				TrailerNumber: trailer,
				EventID:       e.ID,
				Timestamp:     e.SubmittedAt,
				Message:       fmt.Sprintf("Trailer %s is not on the master list (reported by %s).", trailer, e.DriverName),
			})
		}

		switch e.Kind {
		case event.KindDrop:
			dropped[trailer] = true
		case event.KindPick:
			if !dropped[trailer] {
				found = append(found, Issue{
					ID:            fmt.Sprintf("%s:%s", e.ID, TypePickupWithoutDrop),
					Type:          TypePickupWithoutDrop,
					TrailerNumber: trailer,
					EventID:       e.ID,
					Timestamp:     e.SubmittedAt,
					Message:       fmt.Sprintf("Pickup of %s by %s has no prior drop on record.", trailer, e.DriverName),
				})
			}
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Timestamp.After(found[j].Timestamp)
	})

	return found
}
