// ABOUTME: Tests for cloud sync CLI commands
// ABOUTME: Round-trips push, pull, and full sync through the local provider
package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/dealstash/models"
	"github.com/harperreed/dealstash/sync"
)

func TestSyncPushAndPullCommands(t *testing.T) {
	kv, codes := setupTestCLI(t)

	c := models.NewDiscountCode("SAVE20", "Acme", "20%", models.CategoryFashion)
	require.NoError(t, codes.Put(c))

	require.NoError(t, SyncPushCommand(kv, codes, []string{}))

	// Wipe the local table and pull the snapshot back.
	require.NoError(t, codes.ReplaceAll(nil))
	empty, err := codes.List()
	require.NoError(t, err)
	require.Empty(t, empty)

	require.NoError(t, SyncPullCommand(kv, codes, []string{}))

	restored, err := codes.List()
	require.NoError(t, err)
	require.Len(t, restored, 1)
	assert.Equal(t, "SAVE20", restored[0].Code)
}

func TestSyncPullCommandNoData(t *testing.T) {
	kv, codes := setupTestCLI(t)

	// Nothing uploaded yet; pull reports no data without failing.
	assert.NoError(t, SyncPullCommand(kv, codes, []string{}))
}

func TestSyncNowCommand(t *testing.T) {
	kv, codes := setupTestCLI(t)

	c := models.NewDiscountCode("SAVE", "Acme", "€10", models.CategoryOther)
	require.NoError(t, codes.Put(c))

	require.NoError(t, SyncNowCommand(kv, codes, []string{}))

	cfg, err := sync.LoadSettings(kv)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.LastDeviceSync, "full sync records the device timestamp")
}

func TestSyncSettingsCommand(t *testing.T) {
	kv, _ := setupTestCLI(t)

	require.NoError(t, SyncSettingsCommand(kv, []string{
		"-providers", "local,gist", "-strategy", "remote",
		"-auto", "true", "-interval", "10",
	}))

	cfg, err := sync.LoadSettings(kv)
	require.NoError(t, err)
	assert.Equal(t, []string{"local", "gist"}, cfg.EnabledProviders)
	assert.Equal(t, sync.StrategyRemote, cfg.ConflictResolution)
	assert.True(t, cfg.AutoSync)
	assert.Equal(t, 10, cfg.SyncIntervalMinutes)
}

func TestSyncSettingsCommandRejectsUnknown(t *testing.T) {
	kv, _ := setupTestCLI(t)

	err := SyncSettingsCommand(kv, []string{"-providers", "dropbox"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")

	err = SyncSettingsCommand(kv, []string{"-strategy", "theirs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}

func TestSyncStatusCommand(t *testing.T) {
	kv, _ := setupTestCLI(t)

	assert.NoError(t, SyncStatusCommand(kv, []string{}))
}

func TestSyncWipeCommand(t *testing.T) {
	kv, codes := setupTestCLI(t)

	c := models.NewDiscountCode("SAVE", "Acme", "€10", models.CategoryOther)
	require.NoError(t, codes.Put(c))
	require.NoError(t, SyncPushCommand(kv, codes, []string{}))

	require.NoError(t, SyncWipeCommand(kv, []string{"-force"}))

	// Remote snapshot is gone.
	assert.NoError(t, SyncPullCommand(kv, codes, []string{}))
}
