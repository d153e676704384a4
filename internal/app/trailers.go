package app

import (
	"context"

	"github.com/grantfleet/yardwatch/internal/derive"
	"github.com/grantfleet/yardwatch/internal/event"
)

// TrailersUsecase defines the open-trailer query use case.
type TrailersUsecase interface {
	// List returns trailers currently considered dropped, most recently
	// updated first.
	List(ctx context.Context) ([]derive.TrailerState, error)

	// History returns the custody events for one trailer, newest first,
	// capped at limit (0 means no cap).
	History(ctx context.Context, trailer string, limit int) ([]event.Event, error)
}

// TrailerStore defines store operations needed by TrailersService.
type TrailerStore interface {
	OpenTrailers(ctx context.Context) ([]derive.TrailerState, error)
	History(ctx context.Context, trailer string, limit int) ([]event.Event, error)
}

// TrailersService implements TrailersUsecase.
type TrailersService struct {
	Store TrailerStore
}

// List returns the open-trailer board.
func (s *TrailersService) List(ctx context.Context) ([]derive.TrailerState, error) {
	return s.Store.OpenTrailers(ctx)
}

// History returns one trailer's custody history.
func (s *TrailersService) History(ctx context.Context, trailer string, limit int) ([]event.Event, error) {
	return s.Store.History(ctx, trailer, limit)
}
