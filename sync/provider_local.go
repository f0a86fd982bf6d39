// ABOUTME: Local stand-in provider backed by the app's key-value store
// ABOUTME: Simulates network latency so callers keep their async assumptions honest
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/harperreed/dealstash/kvstore"
)

const localPayloadKey = "sync_payload_local"

// LocalProvider stores the payload in the same persistent key-value store
// as the rest of the app's settings. Always available. Every operation
// sleeps briefly to mimic a network round-trip.
type LocalProvider struct {
	store   kvstore.Store
	latency time.Duration
	logger  *log.Logger
}

// NewLocalProvider creates a local provider over the given store.
func NewLocalProvider(store kvstore.Store, logger *log.Logger) *LocalProvider {
	if logger == nil {
		logger = defaultLogger()
	}
	return &LocalProvider{
		store:   store,
		latency: 500 * time.Millisecond,
		logger:  logger,
	}
}

func (p *LocalProvider) ID() string   { return "local" }
func (p *LocalProvider) Name() string { return "Local Storage" }

// Available always reports true; the backing store is the app's own.
func (p *LocalProvider) Available() bool { return true }

func (p *LocalProvider) delay(ctx context.Context) error {
	select {
	case <-time.After(p.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Upload stores the payload under the local payload key.
func (p *LocalProvider) Upload(ctx context.Context, payload *SyncPayload) error {
	if err := p.delay(ctx); err != nil {
		return &ProviderError{Provider: p.ID(), Op: "upload", Err: err}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return &ProviderError{Provider: p.ID(), Op: "upload", Err: fmt.Errorf("failed to marshal payload: %w", err)}
	}
	if err := p.store.Set(localPayloadKey, data); err != nil {
		return &ProviderError{Provider: p.ID(), Op: "upload", Err: err}
	}
	return nil
}

// Download retrieves the stored payload, or nil if none has been uploaded.
func (p *LocalProvider) Download(ctx context.Context) (*SyncPayload, error) {
	if err := p.delay(ctx); err != nil {
		return nil, &ProviderError{Provider: p.ID(), Op: "download", Err: err}
	}

	data, err := p.store.Get(localPayloadKey)
	if err != nil {
		return nil, &ProviderError{Provider: p.ID(), Op: "download", Err: err}
	}
	if len(data) == 0 {
		return nil, nil
	}
	return decodePayload(data, p.logger, p.ID()), nil
}

// Delete removes the stored payload. Missing data is not an error.
func (p *LocalProvider) Delete(ctx context.Context) error {
	if err := p.delay(ctx); err != nil {
		return &ProviderError{Provider: p.ID(), Op: "delete", Err: err}
	}

	if err := p.store.Delete(localPayloadKey); err != nil {
		return &ProviderError{Provider: p.ID(), Op: "delete", Err: err}
	}
	return nil
}
