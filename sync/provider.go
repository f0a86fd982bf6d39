// ABOUTME: Cloud provider contract for moving sync payloads
// ABOUTME: Defines the upload/download/delete/availability interface and provider errors
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
)

// Provider moves one sync payload to and from a storage backend.
//
// Available must be a pure capability check that never panics. Download
// returns (nil, nil) when no payload exists yet, including when the stored
// payload is malformed or fails its checksum, which is logged and treated
// as absence of data. Delete treats a missing remote as a no-op.
type Provider interface {
	// ID is the stable identifier used in settings.
	ID() string

	// Name is the human-readable display name.
	Name() string

	// Available reports whether this backend can be used right now.
	Available() bool

	// Upload sends the payload to the backend.
	Upload(ctx context.Context, payload *SyncPayload) error

	// Download retrieves the latest stored payload, or nil if none exists.
	Download(ctx context.Context) (*SyncPayload, error)

	// Delete removes the backend-stored payload.
	Delete(ctx context.Context) error
}

// ProviderError wraps a transport, auth, or quota failure from one backend.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func defaultLogger() *log.Logger {
	return log.New(os.Stderr, "[sync] ", log.LstdFlags)
}

// decodePayload parses and validates a downloaded payload. Malformed or
// checksum-failing data is absence of data, never an error.
func decodePayload(data []byte, logger *log.Logger, provider string) *SyncPayload {
	var p SyncPayload
	if err := json.Unmarshal(data, &p); err != nil {
		logger.Printf("%s: discarding malformed payload: %v", provider, err)
		return nil
	}
	if !ValidateSyncData(&p) {
		logger.Printf("%s: discarding payload with checksum mismatch", provider)
		return nil
	}
	return &p
}
