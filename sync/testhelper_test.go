// ABOUTME: Test doubles shared by the sync package tests
// ABOUTME: In-memory storage port and a scriptable fake provider
package sync

import (
	"context"
	"errors"
	"sort"
	stdsync "sync"
)

// memStore is an in-memory kvstore.Store for tests.
type memStore struct {
	mu   stdsync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *memStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

func (m *memStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStore) Keys(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memStore) Close() error { return nil }

// fakeProvider is a scriptable Provider for engine tests.
type fakeProvider struct {
	id        string
	available bool

	uploadErr   error
	downloadErr error
	payload     *SyncPayload

	uploads   int
	downloads int
	deletes   int
	lastUp    *SyncPayload
}

func (f *fakeProvider) ID() string      { return f.id }
func (f *fakeProvider) Name() string    { return "Fake " + f.id }
func (f *fakeProvider) Available() bool { return f.available }

func (f *fakeProvider) Upload(ctx context.Context, payload *SyncPayload) error {
	f.uploads++
	f.lastUp = payload
	if f.uploadErr != nil {
		return &ProviderError{Provider: f.id, Op: "upload", Err: f.uploadErr}
	}
	f.payload = payload
	return nil
}

func (f *fakeProvider) Download(ctx context.Context) (*SyncPayload, error) {
	f.downloads++
	if f.downloadErr != nil {
		return nil, &ProviderError{Provider: f.id, Op: "download", Err: f.downloadErr}
	}
	return f.payload, nil
}

func (f *fakeProvider) Delete(ctx context.Context) error {
	f.deletes++
	f.payload = nil
	return nil
}

var errFakeTransport = errors.New("transport down")
