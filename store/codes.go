// ABOUTME: Local discount code collection persisted in the key-value store
// ABOUTME: Sole writer of the authoritative code records under the "code:" prefix
package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/harperreed/dealstash/kvstore"
	"github.com/harperreed/dealstash/models"
)

const codePrefix = "code:"

// CodeStore owns the authoritative local code collection. The sync engine
// only ever receives snapshots from List and hands reconciled snapshots
// back through ReplaceAll.
type CodeStore struct {
	kv kvstore.Store
}

// New creates a code store over the given key-value store.
func New(kv kvstore.Store) *CodeStore {
	return &CodeStore{kv: kv}
}

func codeKey(id string) string {
	return codePrefix + id
}

// List returns all codes, ordered by dateAdded then id for stability.
func (s *CodeStore) List() ([]models.DiscountCode, error) {
	keys, err := s.kv.Keys(codePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list codes: %w", err)
	}

	codes := make([]models.DiscountCode, 0, len(keys))
	for _, key := range keys {
		data, err := s.kv.Get(key)
		if err != nil {
			return nil, fmt.Errorf("failed to read code %q: %w", key, err)
		}
		if len(data) == 0 {
			continue
		}
		var c models.DiscountCode
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to decode code %q: %w", key, err)
		}
		codes = append(codes, c)
	}

	sort.SliceStable(codes, func(i, j int) bool {
		if !codes[i].DateAdded.Equal(codes[j].DateAdded) {
			return codes[i].DateAdded.Before(codes[j].DateAdded)
		}
		return codes[i].ID < codes[j].ID
	})
	return codes, nil
}

// Get returns one code, or nil if absent.
func (s *CodeStore) Get(id string) (*models.DiscountCode, error) {
	data, err := s.kv.Get(codeKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read code %s: %w", id, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var c models.DiscountCode
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode code %s: %w", id, err)
	}
	return &c, nil
}

// Put creates or replaces a code record.
func (s *CodeStore) Put(c *models.DiscountCode) error {
	if c.ID == "" {
		return fmt.Errorf("code has no id")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode code %s: %w", c.ID, err)
	}
	if err := s.kv.Set(codeKey(c.ID), data); err != nil {
		return fmt.Errorf("failed to store code %s: %w", c.ID, err)
	}
	return nil
}

// Delete removes a code record. Deleting an absent code is not an error.
func (s *CodeStore) Delete(id string) error {
	if err := s.kv.Delete(codeKey(id)); err != nil {
		return fmt.Errorf("failed to delete code %s: %w", id, err)
	}
	return nil
}

// ToggleFavorite flips the favorite flag and returns the updated code.
func (s *CodeStore) ToggleFavorite(id string) (*models.DiscountCode, error) {
	c, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("code not found: %s", id)
	}
	c.IsFavorite = !c.IsFavorite
	if err := s.Put(c); err != nil {
		return nil, err
	}
	return c, nil
}

// ToggleArchive flips the archived flag and returns the updated code.
func (s *CodeStore) ToggleArchive(id string) (*models.DiscountCode, error) {
	c, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("code not found: %s", id)
	}
	c.IsArchived = !c.IsArchived
	if err := s.Put(c); err != nil {
		return nil, err
	}
	return c, nil
}

// RecordUsage bumps the usage counter and appends a usage history entry
// with the estimated saving for this redemption.
func (s *CodeStore) RecordUsage(id string, now time.Time) (*models.DiscountCode, error) {
	c, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("code not found: %s", id)
	}

	c.TimesUsed++
	entry := models.UsageEntry{Date: now.UTC()}
	if saving := c.EstimatedSaving(); saving > 0 {
		entry.EstimatedSavings = &saving
	}
	c.UsageHistory = append(c.UsageHistory, entry)

	if err := s.Put(c); err != nil {
		return nil, err
	}
	return c, nil
}

// ReplaceAll swaps the whole collection for the given snapshot. Used by
// full sync to apply a reconciled set.
func (s *CodeStore) ReplaceAll(codes []models.DiscountCode) error {
	keys, err := s.kv.Keys(codePrefix)
	if err != nil {
		return fmt.Errorf("failed to list codes: %w", err)
	}
	for _, key := range keys {
		if err := s.kv.Delete(key); err != nil {
			return fmt.Errorf("failed to clear code %q: %w", key, err)
		}
	}
	for i := range codes {
		if err := s.Put(&codes[i]); err != nil {
			return err
		}
	}
	return nil
}
