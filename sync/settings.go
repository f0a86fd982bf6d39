// ABOUTME: Persisted sync settings with environment variable overrides
// ABOUTME: Stored as a single JSON blob replaced whole on every save
package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/dealstash/kvstore"
)

const (
	settingsKey = "sync_settings"
	lastSyncKey = "last_sync"
)

// Settings holds the persisted sync configuration. Mutations go through
// SaveSettings, which replaces and persists the whole structure.
// Environment variables override file values:
// - DEALSTASH_GITHUB_TOKEN
// - DEALSTASH_AUTO_SYNC.
type Settings struct {
	AutoSync            bool                 `json:"autoSync"`
	SyncIntervalMinutes int                  `json:"syncInterval"`
	EnabledProviders    []string             `json:"enabledProviders"`
	ConflictResolution  Strategy             `json:"conflictResolution"`
	LastDeviceSync      map[string]time.Time `json:"lastDeviceSync,omitempty"`
	GistToken           string               `json:"gistToken,omitempty"`
}

// DefaultSettings returns the out-of-the-box configuration.
func DefaultSettings() *Settings {
	return &Settings{
		AutoSync:            false,
		SyncIntervalMinutes: 30,
		EnabledProviders:    []string{"local"},
		ConflictResolution:  StrategyMerge,
		LastDeviceSync:      map[string]time.Time{},
	}
}

// LoadSettings reads the settings blob, falling back to defaults when
// nothing has been persisted yet, then applies environment overrides.
func LoadSettings(store kvstore.Store) (*Settings, error) {
	cfg := DefaultSettings()

	raw, err := store.Get(settingsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync settings: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode sync settings: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.LastDeviceSync == nil {
		cfg.LastDeviceSync = map[string]time.Time{}
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Settings) {
	if token := os.Getenv("DEALSTASH_GITHUB_TOKEN"); token != "" {
		cfg.GistToken = token
	}
	if auto := os.Getenv("DEALSTASH_AUTO_SYNC"); auto != "" {
		cfg.AutoSync = auto == "true" || auto == "1"
	}
}

// SaveSettings persists the whole settings structure, clamping the sync
// interval to at least one minute.
func SaveSettings(store kvstore.Store, cfg *Settings) error {
	if cfg.SyncIntervalMinutes < 1 {
		cfg.SyncIntervalMinutes = 1
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sync settings: %w", err)
	}
	if err := store.Set(settingsKey, data); err != nil {
		return fmt.Errorf("failed to persist sync settings: %w", err)
	}
	return nil
}

// Enabled reports whether the provider id is in the enabled set.
func (s *Settings) Enabled(id string) bool {
	for _, p := range s.EnabledProviders {
		if p == id {
			return true
		}
	}
	return false
}
