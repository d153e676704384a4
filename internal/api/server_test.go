package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/grantfleet/yardwatch/internal/app"
	"github.com/grantfleet/yardwatch/internal/derive"
	"github.com/grantfleet/yardwatch/internal/event"
	"github.com/grantfleet/yardwatch/internal/issues"
	"github.com/grantfleet/yardwatch/internal/notify"
	"github.com/grantfleet/yardwatch/internal/store"
	"github.com/grantfleet/yardwatch/internal/syncer"
)

// stubTrailers implements app.TrailersUsecase.
type stubTrailers struct {
	states  []derive.TrailerState
	history []event.Event

	gotTrailer string
	gotLimit   int
}

func (s *stubTrailers) List(ctx context.Context) ([]derive.TrailerState, error) {
	return s.states, nil
}

func (s *stubTrailers) History(ctx context.Context, trailer string, limit int) ([]event.Event, error) {
	s.gotTrailer = trailer
	s.gotLimit = limit
	return s.history, nil
}

// stubIssues implements app.IssuesUsecase.
type stubIssues struct {
	items []issues.Issue
}

func (s *stubIssues) List(ctx context.Context) ([]issues.Issue, error) {
	return s.items, nil
}

// stubSync implements app.SyncUsecase.
type stubSync struct {
	result   syncer.Result
	logs     []store.SyncLogEntry
	triggers int
}

func (s *stubSync) Trigger(ctx context.Context) (syncer.Result, error) {
	s.triggers++
	return s.result, nil
}

func (s *stubSync) Logs(ctx context.Context) ([]store.SyncLogEntry, error) {
	return s.logs, nil
}

// stubActivity implements app.ActivityUsecase.
type stubActivity struct {
	summary   notify.Summary
	pending   []event.Event
	advanceTo time.Time

	ackCursor string
	ackTime   time.Time
}

func (s *stubActivity) Summary(ctx context.Context, limit int) (notify.Summary, error) {
	return s.summary, nil
}

func (s *stubActivity) Pending(ctx context.Context, limit int) ([]event.Event, time.Time, error) {
	return s.pending, s.advanceTo, nil
}

func (s *stubActivity) Acknowledge(ctx context.Context, cursor string, t time.Time) error {
	s.ackCursor = cursor
	s.ackTime = t
	return nil
}

func newTestServer(opts ...ServerOption) *Server {
	return NewServer(":8080", app.HealthService{Version: "test-version"}, opts...)
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	server.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	contentType := rec.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}

	var resp app.HealthResult
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Version != "test-version" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHealthEndpointMethodNotAllowed(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	server.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestTrailersEndpoint(t *testing.T) {
	trailers := &stubTrailers{states: []derive.TrailerState{
		{ID: "TRL-501", Status: derive.StatusDropped},
	}}
	server := newTestServer(WithTrailersUsecase(trailers))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trailers", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp trailersResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != "TRL-501" {
		t.Errorf("unexpected items: %+v", resp.Items)
	}
}

func TestTrailersEndpoint_EmptyArrayNotNull(t *testing.T) {
	server := newTestServer(WithTrailersUsecase(&stubTrailers{}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trailers", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), `"items":[]`) {
		t.Errorf("expected empty array in body, got %s", rec.Body.String())
	}
}

func TestTrailerHistoryEndpoint(t *testing.T) {
	trailers := &stubTrailers{history: []event.Event{{ID: "e1", TrailerNumber: "TRL-7"}}}
	server := newTestServer(WithTrailersUsecase(trailers))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trailers/trl%207/history?limit=5", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if trailers.gotLimit != 5 {
		t.Errorf("limit = %d, want 5", trailers.gotLimit)
	}

	var resp historyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	// Path value is normalized for display
	if resp.Trailer != "TRL-7" {
		t.Errorf("trailer = %q, want TRL-7", resp.Trailer)
	}
}

func TestTrailerHistoryEndpoint_InvalidLimit(t *testing.T) {
	server := newTestServer(WithTrailersUsecase(&stubTrailers{}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trailers/TRL-1/history?limit=zero", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestIssuesEndpoint(t *testing.T) {
	stub := &stubIssues{items: []issues.Issue{
		{ID: "e1:UNKNOWN_TRAILER", Type: issues.TypeUnknownTrailer, TrailerNumber: "TRL-999"},
	}}
	server := newTestServer(WithIssuesUsecase(stub))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/issues", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp issuesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Type != issues.TypeUnknownTrailer {
		t.Errorf("unexpected items: %+v", resp.Items)
	}
}

func TestSyncTriggerEndpoint(t *testing.T) {
	stub := &stubSync{result: syncer.Result{Success: true, Message: "Synced 2 new submissions."}}
	server := newTestServer(WithSyncUsecase(stub))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.triggers != 1 {
		t.Errorf("triggers = %d, want 1", stub.triggers)
	}

	var resp syncer.Result
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Errorf("unexpected result: %+v", resp)
	}
}

func TestSyncTriggerRateLimited(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	stub := &stubSync{result: syncer.Result{Success: true}}
	server := newTestServer(WithSyncUsecase(stub), WithSyncRateLimiter(rl))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		server.mux.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("request %d: expected %d, got %d", i, want, rec.Code)
		}
	}
}

func TestSyncLogsEndpoint(t *testing.T) {
	stub := &stubSync{logs: []store.SyncLogEntry{
		{ID: "s1", Status: store.SyncStatusSuccess, Message: "Sync complete. No new records."},
	}}
	server := newTestServer(WithSyncUsecase(stub))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/logs", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp syncLogsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Status != store.SyncStatusSuccess {
		t.Errorf("unexpected items: %+v", resp.Items)
	}
}

func TestNotificationsEndpoint(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	stub := &stubActivity{
		pending:   []event.Event{{ID: "e1", SubmittedAt: ts}},
		advanceTo: ts,
	}
	server := newTestServer(WithActivityUsecase(stub))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp notificationsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 1 || resp.AdvanceTo == nil || !resp.AdvanceTo.Equal(ts) {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestNotificationsAck(t *testing.T) {
	stub := &stubActivity{}
	server := newTestServer(WithActivityUsecase(stub))

	body := strings.NewReader(`{"timestamp":"2024-05-01T12:00:00Z"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/ack", body)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.ackCursor != notify.CursorOwnerNotified {
		t.Errorf("cursor = %q, want default owner cursor", stub.ackCursor)
	}
	want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if !stub.ackTime.Equal(want) {
		t.Errorf("ack time = %v, want %v", stub.ackTime, want)
	}
}

func TestNotificationsAck_UnknownCursor(t *testing.T) {
	server := newTestServer(WithActivityUsecase(&stubActivity{}))

	body := strings.NewReader(`{"cursor":"bogus"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/ack", body)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestBasicAuthProtectsEndpoints(t *testing.T) {
	server := newTestServer(
		WithTrailersUsecase(&stubTrailers{}),
		WithBasicAuth("admin", "secret"),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trailers", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without credentials, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/trailers", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with credentials, got %d", rec.Code)
	}

	// Health stays open
	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec = httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for health without credentials, got %d", rec.Code)
	}
}
