// Package syncer orchestrates incremental synchronization with the upstream
// submission source.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/grantfleet/yardwatch/internal/event"
	"github.com/grantfleet/yardwatch/internal/geocode"
	"github.com/grantfleet/yardwatch/internal/normalize"
	"github.com/grantfleet/yardwatch/internal/store"
	"github.com/grantfleet/yardwatch/internal/upstream"
)

// Defaults for the sync state machine.
const (
	// DefaultMaxPages bounds the fetch loop against a misbehaving upstream.
	DefaultMaxPages = 10
	// DefaultOverlap is subtracted from now when advancing the watermark,
	// compensating for upstream indexing latency. Boundary events may be
	// re-fetched and are deduplicated harmlessly.
	DefaultOverlap = 5 * time.Minute
	// DefaultLookback seeds the watermark on first ever run.
	DefaultLookback = 365 * 24 * time.Hour
)

// Source is the "fetch next page" contract the controller consumes. It never
// sees the raw credential; that lives in the client or its proxy.
type Source interface {
	FetchPage(ctx context.Context, startTime time.Time, after string) (*upstream.Page, error)
}

// Result is what the public entry point reports. Sync never lets an error
// escape; failures surface here and in the sync log.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Syncer runs one sync invocation at a time. A mutex serializes concurrent
// triggers: store-and-derive is not safe under concurrent append.
type Syncer struct {
	store    *store.Store
	source   Source
	norm     *normalize.Normalizer
	fallback *Fallback
	geo      geocode.Resolver
	logger   *slog.Logger
	clock    normalize.Clock

	maxPages int
	overlap  time.Duration
	lookback time.Duration

	mu sync.Mutex
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithGeocoder enables coordinate-only location enrichment.
func WithGeocoder(geo geocode.Resolver) Option {
	return func(s *Syncer) { s.geo = geo }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Syncer) { s.logger = logger }
}

// WithClock sets the clock (for testing).
func WithClock(clock normalize.Clock) Option {
	return func(s *Syncer) { s.clock = clock }
}

// WithMaxPages overrides the fetch loop bound.
func WithMaxPages(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.maxPages = n
		}
	}
}

// WithOverlap overrides the watermark overlap window.
func WithOverlap(d time.Duration) Option {
	return func(s *Syncer) {
		if d >= 0 {
			s.overlap = d
		}
	}
}

// WithLookback overrides the first-run watermark lookback.
func WithLookback(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.lookback = d
		}
	}
}

// New creates a Syncer.
func New(st *store.Store, source Source, norm *normalize.Normalizer, fallback *Fallback, opts ...Option) *Syncer {
	s := &Syncer{
		store:    st,
		source:   source,
		norm:     norm,
		fallback: fallback,
		logger:   slog.Default(),
		clock:    normalize.DefaultClock,
		maxPages: DefaultMaxPages,
		overlap:  DefaultOverlap,
		lookback: DefaultLookback,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync runs one full sync invocation and always writes exactly one sync log
// entry. It never returns an error and never panics through: a hard failure
// anywhere in the pipeline produces a FAILURE entry and a failed Result.
// Events merged before a hard failure stay merged; the merge is incremental
// and append-only, not transactional across the run.
func (s *Syncer) Sync(ctx context.Context) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	processed, fellBack, err := s.run(ctx)

	now := s.clock.Now()
	if err != nil {
		s.logger.Error("sync failed", "error", err)
		s.writeLog(ctx, store.SyncLogEntry{
			ID:        uuid.NewString(),
			Timestamp: now,
			Status:    store.SyncStatusFailure,
			Message:   err.Error(),
		})
		return Result{Success: false, Message: "Sync failed."}
	}

	message := "Sync complete. No new records."
	if processed > 0 {
		message = fmt.Sprintf("Synced %d new submissions.", processed)
	}
	if fellBack {
		message += " (upstream unavailable, synthetic data)"
	}
	s.writeLog(ctx, store.SyncLogEntry{
		ID:               uuid.NewString(),
		Timestamp:        now,
		Status:           store.SyncStatusSuccess,
		RecordsProcessed: processed,
		Message:          message,
	})

	return Result{Success: true, Message: fmt.Sprintf("Synced %d records.", processed)}
}

// run executes the fetch-normalize-enrich-merge pipeline. processed counts
// upstream records seen, not events merged (records failing normalization
// are dropped silently). fellBack reports whether the synthetic generator
// took over; a fallback run never advances the watermark, so the next
// invocation retries the same window in full.
func (s *Syncer) run(ctx context.Context) (processed int, fellBack bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sync panic: %v", r)
		}
	}()

	watermark, ok, err := s.store.SyncWatermark(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("read watermark: %w", err)
	}
	if !ok {
		watermark = s.clock.Now().Add(-s.lookback)
	}

	var (
		batch  []event.Event
		cursor string
	)

	for page := 0; page < s.maxPages; page++ {
		var body *upstream.Page

		if !fellBack {
			body, err = s.source.FetchPage(ctx, watermark, cursor)
			if err != nil {
				s.logger.Warn("upstream fetch failed, using fallback generator", "error", err)
				fellBack = true
				err = nil
			}
		}
		if fellBack {
			open, derr := s.store.OpenTrailers(ctx)
			if derr != nil {
				return processed, fellBack, fmt.Errorf("load open trailers for fallback: %w", derr)
			}
			body = s.fallback.Page(open)
		}

		for i := range body.Data {
			processed++
			if e, accepted := s.norm.Normalize(&body.Data[i]); accepted {
				batch = append(batch, *e)
			}
		}

		if !body.Pagination.HasNextPage {
			break
		}
		if body.Pagination.EndCursor != "" {
			cursor = body.Pagination.EndCursor
		}
	}

	s.enrich(ctx, batch)

	if _, err := s.store.AppendEvents(ctx, batch); err != nil {
		return processed, fellBack, fmt.Errorf("merge events: %w", err)
	}

	if !fellBack {
		if err := s.store.SetSyncWatermark(ctx, s.clock.Now().Add(-s.overlap)); err != nil {
			return processed, fellBack, fmt.Errorf("advance watermark: %w", err)
		}
	}

	return processed, fellBack, nil
}

// enrich resolves coordinate-only locations to addresses. Failures leave
// the coordinate string as-is.
func (s *Syncer) enrich(ctx context.Context, batch []event.Event) {
	if s.geo == nil {
		return
	}

	for i := range batch {
		lat, lng, ok := geocode.ParseCoordinates(batch[i].Location)
		if !ok {
			continue
		}
		addr, err := s.geo.ResolveAddress(ctx, lat, lng)
		if err != nil {
			s.logger.Debug("geocode lookup failed", "event_id", batch[i].ID, "error", err)
			continue
		}
		if addr != "" {
			batch[i].Location = addr
			if batch[i].GPSAddress == "" {
				batch[i].GPSAddress = addr
			}
		}
	}
}

func (s *Syncer) writeLog(ctx context.Context, entry store.SyncLogEntry) {
	if err := s.store.AddSyncLog(ctx, entry); err != nil {
		s.logger.Error("failed to write sync log entry", "error", err)
	}
}
