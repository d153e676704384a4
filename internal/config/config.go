package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
)

// CurrentSchemaVersion is the current config schema version.
const CurrentSchemaVersion = 1

// Environment variable names for config overrides.
// Priority: Environment > Config File > Default
const (
	EnvPort             = "YARDWATCH_PORT"
	EnvLanEnabled       = "YARDWATCH_LAN_ENABLED"
	EnvUpstreamBaseURL  = "YARDWATCH_UPSTREAM_BASE_URL"
	EnvGeocodeBaseURL   = "YARDWATCH_GEOCODE_BASE_URL"
	EnvDropTemplateID   = "YARDWATCH_DROP_TEMPLATE_ID"
	EnvPickTemplateID   = "YARDWATCH_PICK_TEMPLATE_ID"
	EnvTrailerList      = "YARDWATCH_TRAILER_LIST"
	EnvSyncIntervalSec  = "YARDWATCH_SYNC_INTERVAL_SEC"
	EnvSyncOverlapSec   = "YARDWATCH_SYNC_OVERLAP_SEC"
	EnvSyncMaxPages     = "YARDWATCH_SYNC_MAX_PAGES"
	EnvSyncLookbackDays = "YARDWATCH_SYNC_LOOKBACK_DAYS"
)

// Template IDs the upstream forms platform assigned to the two custody
// form types. Overridable for staging environments.
const (
	DefaultDropTemplateID = "7848226a-9b29-4a31-ac34-a473ab2fb638"
	DefaultPickTemplateID = "64be8840-2975-4805-b88e-1a69833b9eaa"
)

// Config holds non-sensitive application configuration.
type Config struct {
	SchemaVersion    int      `json:"schema_version"`
	Port             int      `json:"port"`
	LanEnabled       bool     `json:"lan_enabled"`
	UpstreamBaseURL  string   `json:"upstream_base_url"`
	GeocodeBaseURL   string   `json:"geocode_base_url"`
	DropTemplateID   string   `json:"drop_template_id"`
	PickTemplateID   string   `json:"pick_template_id"`
	TrailerList      []string `json:"trailer_list"`
	SyncIntervalSec  int      `json:"sync_interval_sec"`
	SyncOverlapSec   int      `json:"sync_overlap_sec"`
	SyncMaxPages     int      `json:"sync_max_pages"`
	SyncLookbackDays int      `json:"sync_lookback_days"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SchemaVersion:   CurrentSchemaVersion,
		Port:            8080,
		LanEnabled:      false,
		UpstreamBaseURL: "https://api.prod.whiparound.com/public-api/v1",
		GeocodeBaseURL:  "https://nominatim.openstreetmap.org",
		DropTemplateID:  DefaultDropTemplateID,
		PickTemplateID:  DefaultPickTemplateID,
		TrailerList: []string{
			"TRL-501", "TRL-502", "TRL-503", "TRL-504", "TRL-505",
		},
		SyncIntervalSec:  300,
		SyncOverlapSec:   300,
		SyncMaxPages:     10,
		SyncLookbackDays: 365,
	}
}

// LoadConfig reads config from disk. If the file doesn't exist or is corrupt,
// it returns DefaultConfig with a warning logged (non-fatal).
func LoadConfig() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}

	return LoadConfigFrom(path)
}

// LoadConfigFrom reads config from the specified path.
func LoadConfigFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// File doesn't exist, use defaults (not an error)
			return cfg, nil
		}
		log.Printf("Warning: failed to read config file: %v, using defaults", err)
		return cfg, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&cfg); err != nil {
		log.Printf("Warning: config file is corrupt: %v, using defaults", err)
		return DefaultConfig(), nil
	}

	if cfg.SchemaVersion != CurrentSchemaVersion {
		log.Printf("Warning: config schema version mismatch (got %d, expected %d), using defaults",
			cfg.SchemaVersion, CurrentSchemaVersion)
		return DefaultConfig(), nil
	}

	return normalizeConfig(cfg), nil
}

// normalizeConfig validates and normalizes config values.
func normalizeConfig(cfg Config) Config {
	defaults := DefaultConfig()

	cfg.SchemaVersion = CurrentSchemaVersion

	if cfg.Port <= 0 || cfg.Port > 65535 {
		cfg.Port = defaults.Port
	}
	if cfg.UpstreamBaseURL == "" {
		cfg.UpstreamBaseURL = defaults.UpstreamBaseURL
	}
	if cfg.GeocodeBaseURL == "" {
		cfg.GeocodeBaseURL = defaults.GeocodeBaseURL
	}
	if cfg.DropTemplateID == "" {
		cfg.DropTemplateID = defaults.DropTemplateID
	}
	if cfg.PickTemplateID == "" {
		cfg.PickTemplateID = defaults.PickTemplateID
	}
	if cfg.SyncIntervalSec < 0 {
		cfg.SyncIntervalSec = defaults.SyncIntervalSec
	}
	if cfg.SyncOverlapSec < 0 {
		cfg.SyncOverlapSec = defaults.SyncOverlapSec
	}
	if cfg.SyncMaxPages <= 0 {
		cfg.SyncMaxPages = defaults.SyncMaxPages
	}
	if cfg.SyncLookbackDays <= 0 {
		cfg.SyncLookbackDays = defaults.SyncLookbackDays
	}

	return cfg
}

// SaveConfig writes config to disk atomically.
func SaveConfig(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	return SaveConfigTo(cfg, path)
}

// SaveConfigTo writes config to the specified path atomically.
func SaveConfigTo(cfg Config, path string) error {
	cfg.SchemaVersion = CurrentSchemaVersion

	return writeJSONAtomic(path, cfg)
}

// ApplyEnvOverrides applies environment variable overrides to the config.
// Environment variables take highest priority over config file values.
func ApplyEnvOverrides(cfg Config) Config {
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 && port <= 65535 {
			cfg.Port = port
		}
	}

	if v := os.Getenv(EnvLanEnabled); v != "" {
		cfg.LanEnabled = parseBool(v)
	}

	if v := os.Getenv(EnvUpstreamBaseURL); v != "" {
		cfg.UpstreamBaseURL = v
	}

	if v := os.Getenv(EnvGeocodeBaseURL); v != "" {
		cfg.GeocodeBaseURL = v
	}

	if v := os.Getenv(EnvDropTemplateID); v != "" {
		cfg.DropTemplateID = v
	}

	if v := os.Getenv(EnvPickTemplateID); v != "" {
		cfg.PickTemplateID = v
	}

	// Comma-separated fleet list
	if v := os.Getenv(EnvTrailerList); v != "" {
		var list []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				list = append(list, t)
			}
		}
		cfg.TrailerList = list
	}

	if v := os.Getenv(EnvSyncIntervalSec); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec >= 0 {
			cfg.SyncIntervalSec = sec
		}
	}

	if v := os.Getenv(EnvSyncOverlapSec); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec >= 0 {
			cfg.SyncOverlapSec = sec
		}
	}

	if v := os.Getenv(EnvSyncMaxPages); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SyncMaxPages = n
		}
	}

	if v := os.Getenv(EnvSyncLookbackDays); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SyncLookbackDays = n
		}
	}

	return cfg
}

// parseBool parses a boolean from various string representations.
// Accepts: "true", "1", "yes", "on" (case-insensitive) as true.
// All other values are treated as false.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
