package app

import (
	"context"

	"github.com/grantfleet/yardwatch/internal/event"
	"github.com/grantfleet/yardwatch/internal/issues"
)

// IssuesUsecase defines the anomaly report use case.
type IssuesUsecase interface {
	// List recomputes data issues over the full event log.
	List(ctx context.Context) ([]issues.Issue, error)
}

// IssueStore defines store operations needed by IssuesService.
type IssueStore interface {
	Events(ctx context.Context) ([]event.Event, error)
}

// IssuesService implements IssuesUsecase.
type IssuesService struct {
	Store IssueStore

	// MasterList is the fleet allow-list. Empty disables the
	// unknown-trailer check.
	MasterList []string
}

// List detects anomalies over all stored events.
func (s *IssuesService) List(ctx context.Context) ([]issues.Issue, error) {
	events, err := s.Store.Events(ctx)
	if err != nil {
		return nil, err
	}
	return issues.Detect(events, s.MasterList), nil
}
