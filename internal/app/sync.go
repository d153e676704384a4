package app

import (
	"context"

	"github.com/grantfleet/yardwatch/internal/store"
	"github.com/grantfleet/yardwatch/internal/syncer"
)

// SyncUsecase defines the sync trigger and audit use case.
type SyncUsecase interface {
	// Trigger runs one sync cycle and returns its outcome.
	Trigger(ctx context.Context) (syncer.Result, error)

	// Logs returns recent sync attempts, newest first.
	Logs(ctx context.Context) ([]store.SyncLogEntry, error)
}

// SyncRunner runs a sync cycle.
type SyncRunner interface {
	Sync(ctx context.Context) syncer.Result
}

// SyncLogStore defines store operations needed by SyncService.
type SyncLogStore interface {
	SyncLogs(ctx context.Context) ([]store.SyncLogEntry, error)
}

// SyncService implements SyncUsecase.
type SyncService struct {
	Runner SyncRunner
	Store  SyncLogStore
}

// Trigger runs one sync cycle.
func (s *SyncService) Trigger(ctx context.Context) (syncer.Result, error) {
	return s.Runner.Sync(ctx), nil
}

// Logs returns the sync audit trail.
func (s *SyncService) Logs(ctx context.Context) ([]store.SyncLogEntry, error) {
	return s.Store.SyncLogs(ctx)
}
