// ABOUTME: Flat-namespace persistent key-value store backed by BadgerDB
// ABOUTME: Serves as the storage port for settings, payloads, device identity, and code records
package kvstore

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/dgraph-io/badger/v3"
)

// AppName is the application name used for data directories.
const AppName = "dealstash"

// Store is the storage port the rest of the app depends on. Get returns
// (nil, nil) for an absent key; callers treat empty as "not set".
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Keys(prefix string) ([]string, error)
	Close() error
}

// Badger implements Store on a BadgerDB database.
type Badger struct {
	db *badger.DB
}

// DefaultPath returns the XDG-compliant location of the database.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, AppName, "kv")
}

// Open opens (creating if necessary) the database at path.
func Open(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open kv store: %w", err)
	}
	return &Badger{db: db}, nil
}

// OpenInMemory opens an ephemeral database, used by tests.
func OpenInMemory() (*Badger, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory kv store: %w", err)
	}
	return &Badger{db: db}, nil
}

// Get retrieves a value, or (nil, nil) if the key is absent.
func (b *Badger) Get(key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return value, nil
}

// Set stores a value.
func (b *Badger) Set(key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (b *Badger) Delete(key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Keys returns all keys starting with prefix, in lexicographic order.
func (b *Badger) Keys(prefix string) ([]string, error) {
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list keys with prefix %q: %w", prefix, err)
	}
	return keys, nil
}

// Close closes the underlying database.
func (b *Badger) Close() error {
	return b.db.Close()
}
