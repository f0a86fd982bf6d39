// ABOUTME: Sync status snapshot and typed event feed for observers
// ABOUTME: Events live in a bounded in-memory ring; status is never persisted
package sync

import "time"

// EventType classifies sync events.
type EventType string

const (
	EventSyncStart        EventType = "sync_start"
	EventSyncSuccess      EventType = "sync_success"
	EventSyncError        EventType = "sync_error"
	EventConflictDetected EventType = "conflict_detected"
	EventOffline          EventType = "offline"
)

// Event is one observable step of a sync cycle. Data carries optional
// structured context, such as the detected conflict set.
type Event struct {
	Type      EventType `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Status is the ephemeral sync state observed by the caller. It is
// recomputed fresh each session; only LastSync is persisted separately.
type Status struct {
	IsOnline      bool       `json:"isOnline"`
	IsSyncing     bool       `json:"isSyncing"`
	LastSync      *time.Time `json:"lastSync,omitempty"`
	Error         string     `json:"error,omitempty"`
	ConflictCount int        `json:"conflictCount"`
}

// maxEvents bounds the in-memory event feed.
const maxEvents = 100
