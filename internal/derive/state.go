// Package derive recomputes the open-trailer set from the event log.
//
// Derivation is a pure function over the full history, recomputed wholesale
// on every mutation. No incremental maintenance: at the data volumes in
// scope (thousands of events) the O(n log n) rescan is cheaper than the
// drift an indexed shortcut could introduce.
package derive

import (
	"sort"
	"time"

	"github.com/grantfleet/yardwatch/internal/event"
)

// StatusDropped is the only status an open trailer can have. Trailers whose
// latest event is a PICK are omitted from the derived set entirely.
const StatusDropped = "DROPPED"

// TrailerState is the derived custody record for one open trailer. All
// descriptive fields come from the most recent DROP event, not necessarily
// the most recent event overall.
type TrailerState struct {
	ID               string            `json:"id"`
	Status           string            `json:"status"`
	Location         string            `json:"location"`
	LastUpdated      time.Time         `json:"lastUpdated"`
	DroppedBy        string            `json:"droppedBy"`
	CustomerName     string            `json:"customerName,omitempty"`
	DropLocationDesc string            `json:"dropLocationDesc,omitempty"`
	GPSAddress       string            `json:"gpsAddress,omitempty"`
	DefectLevel      event.DefectLevel `json:"defectLevel,omitempty"`
	DefectNotes      string            `json:"defectNotes,omitempty"`
	AccessoryNotes   string            `json:"accessoryNotes,omitempty"`
	PhotoURLs        []string          `json:"photoUrls,omitempty"`
}

type trailerTrack struct {
	latest   event.Event
	lastDrop *event.Event
}

// OpenTrailers derives the current open set: one TrailerState per trailer
// whose chronologically-latest event is a DROP, built from its last DROP.
// Input order does not matter; ties on SubmittedAt break on Seq (insertion
// order). Result is ordered descending by LastUpdated.
func OpenTrailers(events []event.Event) []TrailerState {
	sorted := make([]event.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return event.Before(sorted[i], sorted[j])
	})

	tracks := make(map[string]*trailerTrack)
	for _, e := range sorted {
		if e.TrailerNumber == "" {
			continue
		}
		track, ok := tracks[e.TrailerNumber]
		if !ok {
			track = &trailerTrack{}
			tracks[e.TrailerNumber] = track
		}
		track.latest = e
		if e.Kind == event.KindDrop {
			drop := e
			track.lastDrop = &drop
		}
	}

	open := make([]TrailerState, 0, len(tracks))
	for trailer, track := range tracks {
		if track.latest.Kind != event.KindDrop || track.lastDrop == nil {
			continue
		}
		drop := track.lastDrop
		open = append(open, TrailerState{
			ID:               trailer,
			Status:           StatusDropped,
			Location:         drop.Location,
			LastUpdated:      drop.SubmittedAt,
			DroppedBy:        drop.DriverName,
			CustomerName:     drop.CustomerName,
			DropLocationDesc: drop.DropLocationDesc,
			GPSAddress:       drop.GPSAddress,
			DefectLevel:      drop.DefectLevel,
			DefectNotes:      drop.DefectNotes,
			AccessoryNotes:   drop.AccessoryNotes,
			PhotoURLs:        drop.PhotoURLs,
		})
	}

	sort.Slice(open, func(i, j int) bool {
		if open[i].LastUpdated.Equal(open[j].LastUpdated) {
			return open[i].ID < open[j].ID
		}
		return open[i].LastUpdated.After(open[j].LastUpdated)
	})

	return open
}
