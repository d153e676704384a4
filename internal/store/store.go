package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/grantfleet/yardwatch/internal/derive"
	"github.com/grantfleet/yardwatch/internal/event"
)

// Storage keys. Opaque to the KV; owned by this package.
const (
	keyEvents        = "yardwatch_events"
	keyOpenTrailers  = "yardwatch_open_trailers"
	keySyncLogs      = "yardwatch_sync_logs"
	keySyncWatermark = "yardwatch_sync_watermark"
	cursorKeyPrefix  = "yardwatch_cursor_"
)

// DefaultMaxSyncLogs caps the persisted sync log length.
const DefaultMaxSyncLogs = 200

// Sync run outcomes.
const (
	SyncStatusSuccess = "SUCCESS"
	SyncStatusFailure = "FAILURE"
)

// SyncLogEntry records one sync invocation, newest first. Observability
// only; never consulted by derivation.
type SyncLogEntry struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	Status           string    `json:"status"`
	RecordsProcessed int       `json:"recordsProcessed"`
	Message          string    `json:"message,omitempty"`
}

// Store is the append-only, deduplicated event log plus its derived state.
//
// Appends hold the write lock for the whole load-merge-derive-persist cycle,
// so after AppendEvents returns the persisted open-trailer set reflects the
// new events. Reads take the read lock and never interleave with an
// in-progress append.
type Store struct {
	kv          KV
	logger      *slog.Logger
	maxSyncLogs int

	mu sync.RWMutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithMaxSyncLogs overrides the sync log cap.
func WithMaxSyncLogs(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxSyncLogs = n
		}
	}
}

// New creates a Store over the given KV.
func New(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:          kv,
		logger:      slog.Default(),
		maxSyncLogs: DefaultMaxSyncLogs,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AppendEvents merges a batch into the log, skipping events whose id is
// already stored, then recomputes and persists the derived open-trailer set.
// Re-appending a known batch is a no-op. Returns how many events were new.
func (s *Store) AppendEvents(ctx context.Context, batch []event.Event) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, err := s.loadEvents(ctx)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(log))
	var maxSeq int64
	for _, e := range log {
		seen[e.ID] = true
		if e.Seq > maxSeq {
			maxSeq = e.Seq
		}
	}

	added := 0
	for _, e := range batch {
		if e.ID == "" || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		maxSeq++
		e.Seq = maxSeq
		log = append(log, e)
		added++
	}

	if added == 0 {
		return 0, nil
	}

	if err := s.saveJSON(ctx, keyEvents, log); err != nil {
		return 0, fmt.Errorf("persist event log: %w", err)
	}
	if err := s.saveJSON(ctx, keyOpenTrailers, derive.OpenTrailers(log)); err != nil {
		return 0, fmt.Errorf("persist open trailers: %w", err)
	}

	s.logger.Debug("events appended", "added", added, "total", len(log))
	return added, nil
}

// Events returns every stored event. Consumers sort as needed.
func (s *Store) Events(ctx context.Context) ([]event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadEvents(ctx)
}

// OpenTrailers returns the persisted derived open-trailer set, recomputing
// it from the log when the cache key has never been written.
func (s *Store) OpenTrailers(ctx context.Context) ([]derive.TrailerState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok, err := s.kv.Get(ctx, keyOpenTrailers)
	if err != nil {
		return nil, err
	}
	if ok {
		var open []derive.TrailerState
		if err := json.Unmarshal([]byte(raw), &open); err != nil {
			return nil, fmt.Errorf("decode open trailers: %w", err)
		}
		return open, nil
	}

	log, err := s.loadEvents(ctx)
	if err != nil {
		return nil, err
	}
	return derive.OpenTrailers(log), nil
}

// History returns the events for one trailer, newest first, capped at limit
// (0 means no cap). The input is normalized before matching.
func (s *Store) History(ctx context.Context, trailerNumber string, limit int) ([]event.Event, error) {
	trailer := event.NormalizeTrailerNumber(trailerNumber)

	log, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}

	var history []event.Event
	for _, e := range log {
		if e.TrailerNumber == trailer {
			history = append(history, e)
		}
	}

	sort.SliceStable(history, func(i, j int) bool {
		return event.Before(history[j], history[i])
	})

	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

// SyncLogs returns the persisted sync log, newest first.
func (s *Store) SyncLogs(ctx context.Context) ([]SyncLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var logs []SyncLogEntry
	if err := s.loadJSON(ctx, keySyncLogs, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// AddSyncLog prepends one entry and trims the log to the configured cap.
func (s *Store) AddSyncLog(ctx context.Context, entry SyncLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var logs []SyncLogEntry
	if err := s.loadJSON(ctx, keySyncLogs, &logs); err != nil {
		return err
	}

	logs = append([]SyncLogEntry{entry}, logs...)
	if len(logs) > s.maxSyncLogs {
		logs = logs[:s.maxSyncLogs]
	}
	return s.saveJSON(ctx, keySyncLogs, logs)
}

// SyncWatermark returns the persisted sync watermark. ok is false when no
// watermark has been committed yet.
func (s *Store) SyncWatermark(ctx context.Context) (time.Time, bool, error) {
	return s.timestamp(ctx, keySyncWatermark)
}

// SetSyncWatermark persists the sync watermark.
func (s *Store) SetSyncWatermark(ctx context.Context, t time.Time) error {
	return s.kv.Set(ctx, keySyncWatermark, t.UTC().Format(TimeFormat))
}

// CursorTimestamp returns the per-consumer "last seen" watermark.
func (s *Store) CursorTimestamp(ctx context.Context, name string) (time.Time, bool, error) {
	return s.timestamp(ctx, cursorKeyPrefix+name)
}

// SetCursor persists the per-consumer watermark.
func (s *Store) SetCursor(ctx context.Context, name string, t time.Time) error {
	return s.kv.Set(ctx, cursorKeyPrefix+name, t.UTC().Format(TimeFormat))
}

func (s *Store) timestamp(ctx context.Context, key string) (time.Time, bool, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil || !ok {
		return time.Time{}, false, err
	}

	t, err := time.Parse(TimeFormat, raw)
	if err != nil {
		// Tolerate hand-edited values in plain RFC3339.
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("parse timestamp %q: %w", raw, err)
		}
	}
	return t, true, nil
}

func (s *Store) loadEvents(ctx context.Context) ([]event.Event, error) {
	var log []event.Event
	if err := s.loadJSON(ctx, keyEvents, &log); err != nil {
		return nil, err
	}
	return log, nil
}

func (s *Store) loadJSON(ctx context.Context, key string, v any) error {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

func (s *Store) saveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.kv.Set(ctx, key, string(data))
}
