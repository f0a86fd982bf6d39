// ABOUTME: Tests for the BadgerDB-backed key-value store
// ABOUTME: Uses in-memory databases for isolation
package kvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Badger {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err, "OpenInMemory should succeed")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetAbsentKey(t *testing.T) {
	s := newTestStore(t)

	value, err := s.Get("missing")
	require.NoError(t, err, "absent key should not be an error")
	assert.Nil(t, value)
}

func TestSetGetDelete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("greeting", []byte("hello")))

	value, err := s.Get("greeting")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), value)

	require.NoError(t, s.Delete("greeting"))

	value, err = s.Get("greeting")
	require.NoError(t, err)
	assert.Nil(t, value, "deleted key should read as absent")

	// Deleting again is idempotent
	require.NoError(t, s.Delete("greeting"))
}

func TestOverwrite(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("k", []byte("one")))
	require.NoError(t, s.Set("k", []byte("two")))

	value, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), value)
}

func TestKeysWithPrefix(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("code:a", []byte("1")))
	require.NoError(t, s.Set("code:b", []byte("2")))
	require.NoError(t, s.Set("settings", []byte("3")))

	keys, err := s.Keys("code:")
	require.NoError(t, err)
	assert.Equal(t, []string{"code:a", "code:b"}, keys)

	all, err := s.Keys("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := s.Keys("nope:")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOpenAtPath(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set("persisted", []byte("yes")))
	require.NoError(t, s.Close())

	// Reopen and verify the value survived
	s, err = Open(dir)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	value, err := s.Get("persisted")
	require.NoError(t, err)
	assert.Equal(t, []byte("yes"), value)
}
