//go:build integration

// Package integration provides end-to-end integration tests for the YardWatch API.
package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/grantfleet/yardwatch/internal/api"
	"github.com/grantfleet/yardwatch/internal/app"
	"github.com/grantfleet/yardwatch/internal/extract"
	"github.com/grantfleet/yardwatch/internal/normalize"
	"github.com/grantfleet/yardwatch/internal/notify"
	"github.com/grantfleet/yardwatch/internal/store"
	"github.com/grantfleet/yardwatch/internal/syncer"
	"github.com/grantfleet/yardwatch/internal/upstream"
)

const (
	testDropTemplate = "template-drop"
	testPickTemplate = "template-pick"
)

// TestApp holds all dependencies for integration tests.
type TestApp struct {
	Server   *httptest.Server
	Upstream *httptest.Server
	Store    *store.Store
	Syncer   *syncer.Syncer

	cleanup func()
}

type testAppConfig struct {
	authEnabled bool
	username    string
	password    string
	masterList  []string
	pages       []upstream.Page
}

// TestAppOption configures the test application.
type TestAppOption func(*testAppConfig)

// WithAuth enables Basic Auth on the test server.
func WithAuth(username, password string) TestAppOption {
	return func(c *testAppConfig) {
		c.authEnabled = true
		c.username = username
		c.password = password
	}
}

// WithMasterList sets the fleet allow-list.
func WithMasterList(list []string) TestAppOption {
	return func(c *testAppConfig) { c.masterList = list }
}

// WithUpstreamPages sets the submissions the fake upstream serves, one
// page per request in order.
func WithUpstreamPages(pages []upstream.Page) TestAppOption {
	return func(c *testAppConfig) { c.pages = pages }
}

// NewTestApp creates a new test application with all dependencies wired up.
func NewTestApp(t *testing.T, opts ...TestAppOption) *TestApp {
	t.Helper()

	cfg := &testAppConfig{
		username:   "admin",
		password:   "password",
		masterList: []string{"TRL-501", "TRL-502", "TRL-503"},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	// Temporary directory for the test database
	tmpDir, err := os.MkdirTemp("", "yardwatch-integration-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.sqlite")
	kv, err := store.Open(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to open store: %v", err)
	}
	st := store.New(kv)

	// Fake upstream serving the configured pages in order
	pageIdx := 0
	fakeUpstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var page upstream.Page
		if pageIdx < len(cfg.pages) {
			page = cfg.pages[pageIdx]
			pageIdx++
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	}))

	client := upstream.NewClient(fakeUpstream.URL, testDropTemplate, testPickTemplate,
		upstream.WithToken("test-token"))
	norm := normalize.New(testDropTemplate, testPickTemplate)
	fallback := syncer.NewFallback(testDropTemplate, testPickTemplate)
	sync := syncer.New(st, client, norm, fallback)

	healthService := app.HealthService{Version: "integration"}
	serverOpts := []api.ServerOption{
		api.WithTrailersUsecase(&app.TrailersService{Store: st}),
		api.WithIssuesUsecase(&app.IssuesService{Store: st, MasterList: cfg.masterList}),
		api.WithSyncUsecase(&app.SyncService{Runner: sync, Store: st}),
		api.WithActivityUsecase(&app.ActivityService{Notify: notify.NewService(st)}),
	}
	if cfg.authEnabled {
		serverOpts = append(serverOpts, api.WithBasicAuth(cfg.username, cfg.password))
	}

	apiServer := api.NewServer("127.0.0.1:0", healthService, serverOpts...)
	ts := httptest.NewServer(apiServer.Handler())

	return &TestApp{
		Server:   ts,
		Upstream: fakeUpstream,
		Store:    st,
		Syncer:   sync,
		cleanup: func() {
			ts.Close()
			fakeUpstream.Close()
			kv.Close()
			os.RemoveAll(tmpDir)
		},
	}
}

// URL returns the base URL of the test API server.
func (a *TestApp) URL() string {
	return a.Server.URL
}

// Close releases all test resources.
func (a *TestApp) Close() {
	a.cleanup()
}

// dropSubmission builds a raw DROP submission in the flat input shape.
func dropSubmission(id, trailer, driver, location string) extract.RawSubmission {
	return extract.RawSubmission{
		ID:         id,
		TemplateID: testDropTemplate,
		Inputs: []extract.RawInput{
			{Label: "Trailer Number", Value: trailer},
			{Label: "Driver Name", Value: driver},
			{Label: "Drop Location", Value: location},
		},
		SubmittedAt: "2024-03-01T08:00:00Z",
	}
}

// pickSubmission builds a raw PICK submission in the flat input shape.
func pickSubmission(id, trailer, driver string) extract.RawSubmission {
	return extract.RawSubmission{
		ID:         id,
		TemplateID: testPickTemplate,
		Inputs: []extract.RawInput{
			{Label: "Trailer Number", Value: trailer},
			{Label: "Driver Name", Value: driver},
		},
		SubmittedAt: "2024-03-01T10:00:00Z",
	}
}
