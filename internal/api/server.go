// Package api provides HTTP API server functionality.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/grantfleet/yardwatch/internal/app"
)

// Server represents the HTTP API server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux

	// Use case dependencies
	health   app.HealthUsecase
	trailers app.TrailersUsecase
	issues   app.IssuesUsecase
	sync     app.SyncUsecase
	activity app.ActivityUsecase
	drivers  app.DriversUsecase

	// Rate limiting for the sync trigger
	syncLimiter *RateLimiter

	// Auth configuration
	authEnabled  bool
	authUsername string
	authPassword string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithTrailersUsecase sets the open-trailer use case.
func WithTrailersUsecase(trailers app.TrailersUsecase) ServerOption {
	return func(s *Server) { s.trailers = trailers }
}

// WithIssuesUsecase sets the anomaly report use case.
func WithIssuesUsecase(issues app.IssuesUsecase) ServerOption {
	return func(s *Server) { s.issues = issues }
}

// WithSyncUsecase sets the sync use case.
func WithSyncUsecase(sync app.SyncUsecase) ServerOption {
	return func(s *Server) { s.sync = sync }
}

// WithActivityUsecase sets the activity feed use case.
func WithActivityUsecase(activity app.ActivityUsecase) ServerOption {
	return func(s *Server) { s.activity = activity }
}

// WithDriversUsecase sets the driver directory use case.
func WithDriversUsecase(drivers app.DriversUsecase) ServerOption {
	return func(s *Server) { s.drivers = drivers }
}

// WithSyncRateLimiter rate-limits manual sync triggers.
func WithSyncRateLimiter(rl *RateLimiter) ServerOption {
	return func(s *Server) { s.syncLimiter = rl }
}

// WithBasicAuth enables HTTP Basic Auth.
func WithBasicAuth(username, password string) ServerOption {
	return func(s *Server) {
		if username != "" && password != "" {
			s.authEnabled = true
			s.authUsername = username
			s.authPassword = password
		}
	}
}

// NewServer creates a new API server with the given dependencies.
func NewServer(addr string, health app.HealthUsecase, opts ...ServerOption) *Server {
	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      securityHeadersMiddleware(mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		mux:    mux,
		health: health,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

// wrapAuth wraps a handler with auth middleware if auth is enabled.
func (s *Server) wrapAuth(h http.Handler) http.Handler {
	if !s.authEnabled {
		return h
	}
	return basicAuthMiddleware(s.authUsername, s.authPassword)(h)
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	// Health endpoint (no auth required)
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)

	if s.trailers != nil {
		s.mux.Handle("GET /api/v1/trailers", s.wrapAuth(http.HandlerFunc(s.handleTrailers)))
		s.mux.Handle("GET /api/v1/trailers/{trailer}/history", s.wrapAuth(http.HandlerFunc(s.handleTrailerHistory)))
	}

	if s.issues != nil {
		s.mux.Handle("GET /api/v1/issues", s.wrapAuth(http.HandlerFunc(s.handleIssues)))
	}

	if s.sync != nil {
		trigger := http.Handler(http.HandlerFunc(s.handleSyncTrigger))
		if s.syncLimiter != nil {
			trigger = s.syncLimiter.Middleware(trigger)
		}
		s.mux.Handle("POST /api/v1/sync", s.wrapAuth(trigger))
		s.mux.Handle("GET /api/v1/sync/logs", s.wrapAuth(http.HandlerFunc(s.handleSyncLogs)))
	}

	if s.activity != nil {
		s.mux.Handle("GET /api/v1/activity", s.wrapAuth(http.HandlerFunc(s.handleActivity)))
		s.mux.Handle("GET /api/v1/notifications", s.wrapAuth(http.HandlerFunc(s.handleNotifications)))
		s.mux.Handle("POST /api/v1/notifications/ack", s.wrapAuth(http.HandlerFunc(s.handleNotificationsAck)))
	}

	if s.drivers != nil {
		s.mux.Handle("GET /api/v1/drivers", s.wrapAuth(http.HandlerFunc(s.handleDrivers)))
	}
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	result, err := s.health.Handle(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the full middleware chain, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
