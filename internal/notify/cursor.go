// Package notify tracks per-consumer "last seen" watermarks so UI consumers
// can pull incremental deltas without rescanning the log.
package notify

import (
	"context"
	"sort"
	"time"

	"github.com/grantfleet/yardwatch/internal/event"
)

// Consumer cursor names.
const (
	// CursorOwnerNotified marks the newest event already surfaced as an
	// owner notification.
	CursorOwnerNotified = "owner-notified"
	// CursorActivitySeen marks the newest event the activity feed has shown.
	CursorActivitySeen = "activity-seen"
)

// Store is the subset of the event store the cursor service needs.
type Store interface {
	Events(ctx context.Context) ([]event.Event, error)
	CursorTimestamp(ctx context.Context, name string) (time.Time, bool, error)
	SetCursor(ctx context.Context, name string, t time.Time) error
}

// Service computes incremental deltas per consumer cursor.
type Service struct {
	store Store
}

// NewService creates a Service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Pending returns events strictly newer than the named cursor, oldest first
// so consumers present deltas in chronological order, capped at limit
// (0 means no cap). advanceTo is the timestamp of the newest returned event;
// passing it to Advance acknowledges exactly what was delivered.
func (s *Service) Pending(ctx context.Context, cursor string, limit int) (events []event.Event, advanceTo time.Time, err error) {
	all, err := s.store.Events(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}

	seen, _, err := s.store.CursorTimestamp(ctx, cursor)
	if err != nil {
		return nil, time.Time{}, err
	}

	for _, e := range all {
		if e.SubmittedAt.After(seen) {
			events = append(events, e)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return event.Before(events[i], events[j])
	})

	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	if len(events) > 0 {
		advanceTo = events[len(events)-1].SubmittedAt
	}
	return events, advanceTo, nil
}

// Advance moves the named cursor to t. A zero t advances to the newest
// stored event's timestamp; with no events stored it is a no-op.
func (s *Service) Advance(ctx context.Context, cursor string, t time.Time) error {
	if t.IsZero() {
		all, err := s.store.Events(ctx)
		if err != nil {
			return err
		}
		for _, e := range all {
			if e.SubmittedAt.After(t) {
				t = e.SubmittedAt
			}
		}
		if t.IsZero() {
			return nil
		}
	}
	return s.store.SetCursor(ctx, cursor, t)
}

// Summary is the activity feed response: the newest events plus how many
// are newer than the activity-seen cursor.
type Summary struct {
	Events      []event.Event `json:"events"`
	UnseenCount int           `json:"unseenCount"`
	Latest      time.Time     `json:"latest,omitzero"`
}

// ActivitySummary returns the newest events (descending, capped at limit)
// and the count not yet seen by the activity feed.
func (s *Service) ActivitySummary(ctx context.Context, limit int) (Summary, error) {
	all, err := s.store.Events(ctx)
	if err != nil {
		return Summary{}, err
	}

	sort.SliceStable(all, func(i, j int) bool {
		return event.Before(all[j], all[i])
	})

	seen, _, err := s.store.CursorTimestamp(ctx, CursorActivitySeen)
	if err != nil {
		return Summary{}, err
	}

	unseen := 0
	for _, e := range all {
		if e.SubmittedAt.After(seen) {
			unseen++
		}
	}

	summary := Summary{UnseenCount: unseen}
	if len(all) > 0 {
		summary.Latest = all[0].SubmittedAt
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	summary.Events = all
	return summary, nil
}
