// ABOUTME: Sync orchestration: provider fan-out, reconcile cycle, auto-sync timer
// ABOUTME: Guards every attempt with an online check and an atomic single-flight flag
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/harperreed/dealstash/kvstore"
	"github.com/harperreed/dealstash/models"
)

const backupKey = "sync_backup"

// Engine coordinates provider selection, upload, download, conflict
// handling, auto-sync scheduling, and status/event reporting. It owns the
// ephemeral status and event feed; the authoritative code collection stays
// with the caller, which passes snapshots in and applies results back.
//
// Two sync attempts never run concurrently: the in-flight guard is an
// atomic compare-and-swap checked before any asynchronous work begins and
// cleared when the attempt fully settles.
type Engine struct {
	store     kvstore.Store
	providers []Provider
	logger    *log.Logger

	syncing atomic.Bool
	online  atomic.Bool

	mu       stdsync.Mutex // guards settings, status, events, auto-sync fields
	settings *Settings
	status   Status
	events   []Event
	autoStop chan struct{}
	autoFire func()
}

// NewEngine creates an engine over the given storage port and providers.
// A nil logger falls back to a stderr logger. The engine starts online;
// the persisted last-sync instant is restored if present.
func NewEngine(store kvstore.Store, settings *Settings, providers []Provider, logger *log.Logger) *Engine {
	if logger == nil {
		logger = defaultLogger()
	}
	if settings == nil {
		settings = DefaultSettings()
	}
	if settings.LastDeviceSync == nil {
		settings.LastDeviceSync = map[string]time.Time{}
	}

	e := &Engine{
		store:     store,
		providers: providers,
		settings:  settings,
		logger:    logger,
	}
	e.online.Store(true)
	e.status.IsOnline = true

	if raw, err := store.Get(lastSyncKey); err == nil && len(raw) > 0 {
		if t, err := time.Parse(time.RFC3339Nano, string(raw)); err == nil {
			e.status.LastSync = &t
		}
	}
	return e
}

// Status returns a snapshot of the current sync status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Events returns a copy of the recent event feed, oldest first.
func (e *Engine) Events() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Event, len(e.events))
	copy(out, e.events)
	return out
}

// Settings returns a copy of the current settings.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.settings
}

// UpdateSettings persists new settings and re-arms the auto-sync timer so
// no stale timer survives a configuration change.
func (e *Engine) UpdateSettings(cfg *Settings) error {
	if cfg.LastDeviceSync == nil {
		cfg.LastDeviceSync = map[string]time.Time{}
	}
	if err := SaveSettings(e.store, cfg); err != nil {
		return err
	}

	e.mu.Lock()
	e.settings = cfg
	fire := e.autoFire
	e.mu.Unlock()

	e.StopAutoSync()
	if fire != nil {
		e.StartAutoSync(fire)
	}
	return nil
}

// SetOnline records a connectivity transition. Going offline updates
// status, emits an offline event, and tears down the auto-sync timer.
// Coming back online emits an informational event and re-arms the timer,
// but does not itself trigger a sync.
func (e *Engine) SetOnline(online bool) {
	if e.online.Swap(online) == online {
		return
	}

	e.mu.Lock()
	e.status.IsOnline = online
	fire := e.autoFire
	e.mu.Unlock()

	if !online {
		e.StopAutoSync()
		e.emit(EventOffline, "connection lost", nil)
		return
	}

	e.emit(EventSyncStart, "connection restored", nil)
	if fire != nil {
		e.StartAutoSync(fire)
	}
}

// StartAutoSync arms the interval timer. fire runs on each tick while the
// engine is online and idle; it typically wraps PerformFullSync. Arming
// always tears down any previous timer first.
func (e *Engine) StartAutoSync(fire func()) {
	e.StopAutoSync()

	e.mu.Lock()
	e.autoFire = fire
	if !e.settings.AutoSync {
		e.mu.Unlock()
		return
	}
	interval := time.Duration(e.settings.SyncIntervalMinutes) * time.Minute
	if interval < time.Minute {
		interval = time.Minute
	}
	stop := make(chan struct{})
	e.autoStop = stop
	e.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if e.online.Load() && !e.syncing.Load() {
					fire()
				}
			}
		}
	}()
}

// StopAutoSync tears down the timer, if armed.
func (e *Engine) StopAutoSync() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.autoStop != nil {
		close(e.autoStop)
		e.autoStop = nil
	}
}

// SyncToCloud uploads a snapshot to every enabled and available provider.
// Returns false without side effects when offline or already syncing.
// Partial success still counts as success: lastSync advances as long as at
// least one durable copy exists, with the failing providers recorded in
// the status error message.
func (e *Engine) SyncToCloud(ctx context.Context, codes []models.DiscountCode) bool {
	if !e.online.Load() {
		return false
	}
	if !e.syncing.CompareAndSwap(false, true) {
		return false
	}
	defer e.syncing.Store(false)

	e.beginAttempt("uploading to cloud")
	return e.uploadAll(ctx, codes)
}

// SyncFromCloud downloads from every enabled and available provider and
// returns the checksum-valid payload with the latest lastModified, or nil
// when no provider yields valid data. Per-provider failures are logged as
// events and skipped.
func (e *Engine) SyncFromCloud(ctx context.Context) *SyncPayload {
	if !e.online.Load() {
		return nil
	}
	if !e.syncing.CompareAndSwap(false, true) {
		return nil
	}
	defer e.syncing.Store(false)

	e.beginAttempt("downloading from cloud")
	payload := e.downloadLatest(ctx)

	e.mu.Lock()
	e.status.IsSyncing = false
	e.mu.Unlock()
	return payload
}

// PerformFullSync runs the full reconcile cycle: download, detect, resolve
// or fast-path merge, apply via the caller's callback, then upload the
// reconciled set. With no remote data it simply uploads local as-is.
func (e *Engine) PerformFullSync(ctx context.Context, codes []models.DiscountCode, apply func([]models.DiscountCode) error) bool {
	if !e.online.Load() {
		return false
	}
	if !e.syncing.CompareAndSwap(false, true) {
		return false
	}
	defer e.syncing.Store(false)

	e.beginAttempt("full sync")

	remote := e.downloadLatest(ctx)
	if remote == nil {
		return e.uploadAll(ctx, codes)
	}

	var next []models.DiscountCode
	conflicts := DetectConflicts(codes, remote.Codes)
	if len(conflicts) > 0 {
		e.mu.Lock()
		e.status.ConflictCount = len(conflicts)
		strategy := e.settings.ConflictResolution
		e.mu.Unlock()

		e.emit(EventConflictDetected, fmt.Sprintf("%d conflicts detected", len(conflicts)), conflicts)
		next = ResolveConflicts(conflicts, strategy, codes, remote.Codes)
	} else {
		next = MergeCodes(codes, remote.Codes)
	}

	if apply != nil {
		if err := apply(next); err != nil {
			e.failAttempt(fmt.Sprintf("failed to apply reconciled codes: %v", err))
			return false
		}
	}

	ok := e.uploadAll(ctx, next)
	if ok {
		e.mu.Lock()
		e.status.ConflictCount = 0
		e.mu.Unlock()
	}
	return ok
}

// enabledProviders resolves the enabled-and-available provider set.
func (e *Engine) enabledProviders() []Provider {
	e.mu.Lock()
	settings := e.settings
	e.mu.Unlock()

	var out []Provider
	for _, p := range e.providers {
		if settings.Enabled(p.ID()) && p.Available() {
			out = append(out, p)
		}
	}
	return out
}

// uploadAll packages one payload and attempts every enabled provider
// independently. Caller must hold the in-flight flag.
func (e *Engine) uploadAll(ctx context.Context, codes []models.DiscountCode) bool {
	providers := e.enabledProviders()
	if len(providers) == 0 {
		e.failAttempt("no sync providers are enabled and available")
		return false
	}

	deviceID, err := DeviceID(e.store)
	if err != nil {
		e.failAttempt(fmt.Sprintf("failed to resolve device identity: %v", err))
		return false
	}

	payload := CreateSyncData(codes, deviceID)

	// Local backup before any network call, so a catastrophic failure
	// mid-sync leaves a recoverable snapshot.
	e.writeBackup(payload)

	var failed []string
	succeeded := 0
	for _, p := range providers {
		if err := p.Upload(ctx, payload); err != nil {
			e.logger.Printf("upload to %s failed: %v", p.ID(), err)
			failed = append(failed, p.Name())
			continue
		}
		succeeded++
	}

	if succeeded == 0 {
		e.failAttempt(fmt.Sprintf("all providers failed: %s", strings.Join(failed, ", ")))
		return false
	}

	now := time.Now().UTC()
	if err := e.store.Set(lastSyncKey, []byte(now.Format(time.RFC3339Nano))); err != nil {
		e.logger.Printf("failed to persist last sync time: %v", err)
	}

	e.mu.Lock()
	e.settings.LastDeviceSync[deviceID] = now
	if err := SaveSettings(e.store, e.settings); err != nil {
		e.logger.Printf("failed to persist device sync times: %v", err)
	}
	e.status.IsSyncing = false
	e.status.LastSync = &now
	e.status.Error = ""
	if len(failed) > 0 {
		e.status.Error = fmt.Sprintf("partial sync: failed providers: %s", strings.Join(failed, ", "))
	}
	e.mu.Unlock()

	e.emit(EventSyncSuccess, fmt.Sprintf("synced %d codes to %d of %d providers", len(codes), succeeded, len(providers)), nil)
	return true
}

// downloadLatest fans out to every enabled provider and keeps the valid
// payload with the latest lastModified. Caller must hold the in-flight flag.
func (e *Engine) downloadLatest(ctx context.Context) *SyncPayload {
	var best *SyncPayload
	for _, p := range e.enabledProviders() {
		payload, err := p.Download(ctx)
		if err != nil {
			e.logger.Printf("download from %s failed: %v", p.ID(), err)
			e.emit(EventSyncError, fmt.Sprintf("download from %s failed", p.Name()), nil)
			continue
		}
		if payload == nil || !ValidateSyncData(payload) {
			continue
		}
		if best == nil || payload.LastModified.After(best.LastModified) {
			best = payload
		}
	}
	return best
}

// writeBackup stores the outgoing payload under the backup key.
func (e *Engine) writeBackup(payload *SyncPayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		e.logger.Printf("failed to marshal backup payload: %v", err)
		return
	}
	if err := e.store.Set(backupKey, data); err != nil {
		e.logger.Printf("failed to write sync backup: %v", err)
	}
}

// Backup returns the last locally backed-up payload, or nil if none.
func (e *Engine) Backup() *SyncPayload {
	data, err := e.store.Get(backupKey)
	if err != nil || len(data) == 0 {
		return nil
	}
	return decodePayload(data, e.logger, "backup")
}

// WipeRemote deletes the payload from every enabled and available provider
// and clears the local backup. Missing remotes are not errors.
func (e *Engine) WipeRemote(ctx context.Context) error {
	var errs []string
	for _, p := range e.enabledProviders() {
		if err := p.Delete(ctx); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := e.store.Delete(backupKey); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("wipe incomplete: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (e *Engine) beginAttempt(what string) {
	e.mu.Lock()
	e.status.IsSyncing = true
	e.status.Error = ""
	e.mu.Unlock()
	e.emit(EventSyncStart, what, nil)
}

func (e *Engine) failAttempt(msg string) {
	e.mu.Lock()
	e.status.IsSyncing = false
	e.status.Error = msg
	e.mu.Unlock()
	e.emit(EventSyncError, msg, nil)
}

func (e *Engine) emit(t EventType, msg string, data any) {
	event := Event{Type: t, Message: msg, Timestamp: time.Now().UTC(), Data: data}
	e.logger.Printf("%s: %s", t, msg)

	e.mu.Lock()
	e.events = append(e.events, event)
	if len(e.events) > maxEvents {
		e.events = e.events[len(e.events)-maxEvents:]
	}
	e.mu.Unlock()
}
