package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadConfigFrom_NotExist(t *testing.T) {
	// Load from non-existent file should return defaults
	cfg, err := LoadConfigFrom("/nonexistent/path/config.json")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	defaults := DefaultConfig()
	if cfg.Port != defaults.Port {
		t.Errorf("expected port %d, got %d", defaults.Port, cfg.Port)
	}
	if cfg.DropTemplateID != DefaultDropTemplateID {
		t.Errorf("expected default drop template, got %s", cfg.DropTemplateID)
	}
}

func TestLoadConfigFrom_Corrupt(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(path, []byte("not valid json{{{"), 0600); err != nil {
		t.Fatal(err)
	}

	// Load should return defaults (with warning logged)
	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	defaults := DefaultConfig()
	if cfg.Port != defaults.Port {
		t.Errorf("expected default port %d, got %d", defaults.Port, cfg.Port)
	}
}

func TestLoadConfigFrom_InvalidVersion(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.json")

	content := `{"schema_version": 999, "port": 9999}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	// Load should return defaults due to version mismatch
	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	defaults := DefaultConfig()
	if cfg.Port != defaults.Port {
		t.Errorf("expected default port %d, got %d", defaults.Port, cfg.Port)
	}
}

func TestSaveLoadConfig_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.json")

	original := Config{
		SchemaVersion:    CurrentSchemaVersion,
		Port:             9000,
		LanEnabled:       true,
		UpstreamBaseURL:  "https://staging.example.com/v1",
		GeocodeBaseURL:   "https://geo.example.com",
		DropTemplateID:   "drop-template",
		PickTemplateID:   "pick-template",
		TrailerList:      []string{"TRL-1", "TRL-2"},
		SyncIntervalSec:  60,
		SyncOverlapSec:   120,
		SyncMaxPages:     5,
		SyncLookbackDays: 30,
	}

	if err := SaveConfigTo(original, path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !reflect.DeepEqual(loaded, original) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, original)
	}
}

func TestLoadConfigFrom_NormalizesInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.json")

	content := `{"schema_version": 1, "port": -1, "sync_max_pages": 0, "drop_template_id": ""}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	defaults := DefaultConfig()
	if cfg.Port != defaults.Port {
		t.Errorf("expected normalized port %d, got %d", defaults.Port, cfg.Port)
	}
	if cfg.SyncMaxPages != defaults.SyncMaxPages {
		t.Errorf("expected normalized max pages %d, got %d", defaults.SyncMaxPages, cfg.SyncMaxPages)
	}
	if cfg.DropTemplateID != DefaultDropTemplateID {
		t.Errorf("expected default drop template, got %q", cfg.DropTemplateID)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "9999")
	t.Setenv(EnvLanEnabled, "yes")
	t.Setenv(EnvTrailerList, "TRL-10, TRL-11 ,,TRL-12")
	t.Setenv(EnvSyncIntervalSec, "60")

	cfg := ApplyEnvOverrides(DefaultConfig())

	if cfg.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Port)
	}
	if !cfg.LanEnabled {
		t.Error("lan_enabled not overridden")
	}
	want := []string{"TRL-10", "TRL-11", "TRL-12"}
	if !reflect.DeepEqual(cfg.TrailerList, want) {
		t.Errorf("trailer list = %v, want %v", cfg.TrailerList, want)
	}
	if cfg.SyncIntervalSec != 60 {
		t.Errorf("sync interval = %d, want 60", cfg.SyncIntervalSec)
	}
}

func TestApplyEnvOverrides_IgnoresInvalid(t *testing.T) {
	t.Setenv(EnvPort, "not-a-port")
	t.Setenv(EnvSyncMaxPages, "-3")

	cfg := ApplyEnvOverrides(DefaultConfig())
	defaults := DefaultConfig()

	if cfg.Port != defaults.Port {
		t.Errorf("invalid port override applied: %d", cfg.Port)
	}
	if cfg.SyncMaxPages != defaults.SyncMaxPages {
		t.Errorf("invalid max pages override applied: %d", cfg.SyncMaxPages)
	}
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("super-secret-token")

	if s.String() != "[REDACTED]" {
		t.Errorf("String() leaked value: %s", s.String())
	}
	if s.Value() != "super-secret-token" {
		t.Errorf("Value() = %s", s.Value())
	}
	if s.IsEmpty() {
		t.Error("non-empty secret reported empty")
	}
}

func TestEnsureLanAuth(t *testing.T) {
	sec := DefaultSecrets()

	updated, pw, err := EnsureLanAuth(&sec, true)
	if err != nil {
		t.Fatal(err)
	}
	if !updated {
		t.Error("expected credentials to be generated")
	}
	if sec.BasicAuthUsername != defaultUsername {
		t.Errorf("username = %s", sec.BasicAuthUsername)
	}
	if len(pw) != passwordLength || sec.BasicAuthPassword.Value() != pw {
		t.Errorf("generated password mismatch")
	}

	// Second call is a no-op
	updated, _, err = EnsureLanAuth(&sec, true)
	if err != nil {
		t.Fatal(err)
	}
	if updated {
		t.Error("expected no update when credentials exist")
	}
}

func TestEnsureLanAuth_DisabledLan(t *testing.T) {
	sec := DefaultSecrets()

	updated, pw, err := EnsureLanAuth(&sec, false)
	if err != nil {
		t.Fatal(err)
	}
	if updated || pw != "" {
		t.Error("expected no-op when LAN disabled")
	}
}

func TestSaveLoadSecrets_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "secrets.json")

	original := Secrets{
		SchemaVersion:     CurrentSchemaVersion,
		UpstreamAPIToken:  "token-123",
		BasicAuthUsername: "admin",
		BasicAuthPassword: "hunter2",
	}

	if err := SaveSecretsTo(original, path); err != nil {
		t.Fatalf("failed to save secrets: %v", err)
	}

	loaded, status, err := LoadSecretsFrom(path)
	if err != nil {
		t.Fatalf("failed to load secrets: %v", err)
	}
	if status != SecretsLoaded {
		t.Errorf("status = %v, want SecretsLoaded", status)
	}
	if loaded.UpstreamAPIToken.Value() != "token-123" {
		t.Errorf("token mismatch: %s", loaded.UpstreamAPIToken.Value())
	}
}
