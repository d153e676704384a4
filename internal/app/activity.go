package app

import (
	"context"
	"time"

	"github.com/grantfleet/yardwatch/internal/event"
	"github.com/grantfleet/yardwatch/internal/notify"
)

// ActivityUsecase defines the activity feed and notification cursor use case.
type ActivityUsecase interface {
	// Summary returns the newest events plus the unseen-count badge.
	Summary(ctx context.Context, limit int) (notify.Summary, error)

	// Pending returns events not yet delivered as owner notifications.
	Pending(ctx context.Context, limit int) ([]event.Event, time.Time, error)

	// Acknowledge advances the named cursor. A zero t means "caught up to
	// the newest event".
	Acknowledge(ctx context.Context, cursor string, t time.Time) error
}

// ActivityService implements ActivityUsecase over notify.Service.
type ActivityService struct {
	Notify *notify.Service
}

// Summary returns the activity feed.
func (s *ActivityService) Summary(ctx context.Context, limit int) (notify.Summary, error) {
	return s.Notify.ActivitySummary(ctx, limit)
}

// Pending returns undelivered owner notifications.
func (s *ActivityService) Pending(ctx context.Context, limit int) ([]event.Event, time.Time, error) {
	return s.Notify.Pending(ctx, notify.CursorOwnerNotified, limit)
}

// Acknowledge advances a consumer cursor.
func (s *ActivityService) Acknowledge(ctx context.Context, cursor string, t time.Time) error {
	return s.Notify.Advance(ctx, cursor, t)
}
