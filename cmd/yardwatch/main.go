// Package main provides the entry point for YardWatch.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/grantfleet/yardwatch/internal/api"
	"github.com/grantfleet/yardwatch/internal/app"
	"github.com/grantfleet/yardwatch/internal/appinfo"
	"github.com/grantfleet/yardwatch/internal/config"
	"github.com/grantfleet/yardwatch/internal/geocode"
	"github.com/grantfleet/yardwatch/internal/normalize"
	"github.com/grantfleet/yardwatch/internal/notify"
	"github.com/grantfleet/yardwatch/internal/store"
	"github.com/grantfleet/yardwatch/internal/syncer"
	"github.com/grantfleet/yardwatch/internal/upstream"
	"github.com/grantfleet/yardwatch/internal/version"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// 1. Load configuration (corrupt config falls back to defaults with warning)
	cfg, _ := config.LoadConfig()
	cfg = config.ApplyEnvOverrides(cfg)
	secrets, secretsStatus, err := config.LoadSecrets()
	if err != nil {
		log.Printf("Warning: %v", err)
	}

	// 2. Ensure LAN auth credentials if LAN mode is enabled
	updated, generatedPw, err := config.EnsureLanAuth(&secrets, cfg.LanEnabled)
	if err != nil {
		log.Fatalf("Failed to ensure LAN auth: %v", err)
	}

	// Only save if loaded successfully or file was missing (prevent overwrite on fallback)
	if updated && secretsStatus != config.SecretsFallback {
		if err := config.SaveSecrets(secrets); err != nil {
			log.Fatalf("Failed to save secrets: %v", err)
		}
		if generatedPw != "" {
			// Write password to file instead of logging
			pwPath, err := config.WritePasswordFile(secrets.BasicAuthUsername, generatedPw)
			if err != nil {
				log.Printf("Warning: failed to write password file: %v", err)
				log.Println("=== GENERATED BASIC AUTH CREDENTIALS ===")
				log.Printf("Username: %s", secrets.BasicAuthUsername)
				log.Printf("Password: %s", generatedPw)
				log.Println("=========================================")
			} else {
				log.Println("=== BASIC AUTH CREDENTIALS GENERATED ===")
				log.Printf("Credentials saved to: %s", pwPath)
				log.Println("Delete this file after saving the credentials!")
				log.Println("=========================================")
			}
		}
	} else if updated && secretsStatus == config.SecretsFallback {
		log.Println("WARNING: Secrets file has errors; new credentials not saved to avoid data loss")
		log.Println("Please fix or delete secrets.json and restart")
	}

	// 3. Parse flags (port can override config)
	port := flag.Int("port", cfg.Port, "HTTP server port")
	flag.Parse()

	// 4. Open SQLite-backed store
	dataDir, err := config.EnsureDataDir()
	if err != nil {
		log.Fatalf("Failed to ensure data directory: %v", err)
	}
	dbPath := filepath.Join(dataDir, appinfo.DatabaseFileName)
	kv, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer kv.Close()

	st := store.New(kv, store.WithLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. Build the sync pipeline
	norm := normalize.New(cfg.DropTemplateID, cfg.PickTemplateID,
		normalize.WithLogger(logger))

	clientOpts := []upstream.ClientOption{upstream.WithClientLogger(logger)}
	if !secrets.UpstreamAPIToken.IsEmpty() {
		clientOpts = append(clientOpts, upstream.WithToken(secrets.UpstreamAPIToken.Value()))
	} else {
		log.Println("Upstream API token not configured, sync will use generated activity")
	}
	client := upstream.NewClient(cfg.UpstreamBaseURL, cfg.DropTemplateID, cfg.PickTemplateID, clientOpts...)

	fallback := syncer.NewFallback(cfg.DropTemplateID, cfg.PickTemplateID)

	sync := syncer.New(st, client, norm, fallback,
		syncer.WithGeocoder(geocode.NewClient(cfg.GeocodeBaseURL)),
		syncer.WithLogger(logger),
		syncer.WithMaxPages(cfg.SyncMaxPages),
		syncer.WithOverlap(time.Duration(cfg.SyncOverlapSec)*time.Second),
		syncer.WithLookback(time.Duration(cfg.SyncLookbackDays)*24*time.Hour),
	)

	// 6. Periodic background sync
	if cfg.SyncIntervalSec > 0 {
		interval := time.Duration(cfg.SyncIntervalSec) * time.Second
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			// Initial sync on startup
			sync.Sync(ctx)

			for {
				select {
				case <-ticker.C:
					sync.Sync(ctx)
				case <-ctx.Done():
					return
				}
			}
		}()
		log.Printf("Background sync every %s", interval)
	}

	// 7. Determine bind address
	host := "127.0.0.1"
	if cfg.LanEnabled {
		host = "0.0.0.0"
	}
	addr := fmt.Sprintf("%s:%d", host, *port)

	// Build dependencies
	health := app.HealthService{Version: version.String()}
	trailersService := &app.TrailersService{Store: st}
	issuesService := &app.IssuesService{Store: st, MasterList: cfg.TrailerList}
	syncService := &app.SyncService{Runner: sync, Store: st}
	activityService := &app.ActivityService{Notify: notify.NewService(st)}
	driversService := &app.DriversService{Client: client}

	syncLimiter := api.NewRateLimiter(api.DefaultSyncRateLimiterConfig())
	defer syncLimiter.Stop()

	serverOpts := []api.ServerOption{
		api.WithTrailersUsecase(trailersService),
		api.WithIssuesUsecase(issuesService),
		api.WithSyncUsecase(syncService),
		api.WithActivityUsecase(activityService),
		api.WithDriversUsecase(driversService),
		api.WithSyncRateLimiter(syncLimiter),
	}

	// Enable Basic Auth for LAN mode (credentials are guaranteed by EnsureLanAuth)
	if cfg.LanEnabled {
		serverOpts = append(serverOpts, api.WithBasicAuth(secrets.BasicAuthUsername, secrets.BasicAuthPassword.Value()))
		log.Println("Basic Auth enabled for LAN mode")
	}

	server := api.NewServer(addr, health, serverOpts...)

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)

	go func() {
		log.Printf("Starting %s v%s on %s", appinfo.AppName, version.String(), addr)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-done:
		log.Println("Shutting down...")
	case err := <-errCh:
		log.Printf("Server error: %v", err)
		os.Exit(1)
	}

	// Stop the background sync loop first
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
