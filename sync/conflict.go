// ABOUTME: Conflict detection and resolution between local and remote code sets
// ABOUTME: Implements prefer-local, prefer-remote, and field-level merge strategies
package sync

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/harperreed/dealstash/models"
)

// Strategy selects how detected conflicts are resolved.
type Strategy string

const (
	StrategyLocal  Strategy = "local"
	StrategyRemote Strategy = "remote"
	StrategyMerge  Strategy = "merge"
)

// SyncConflict is a same-id code whose local and remote snapshots differ.
// Conflicts live for one sync cycle; they are never persisted.
type SyncConflict struct {
	ID        string              `json:"id"`
	Local     models.DiscountCode `json:"localData"`
	Remote    models.DiscountCode `json:"remoteData"`
	Timestamp time.Time           `json:"timestamp"`
	Resolved  bool                `json:"resolved"`
}

// DetectConflicts diffs two code collections by id. A conflict is any
// shared-id pair that differs in any field. One-sided codes are additions,
// handled by merge, not conflicts. Output order follows local's order.
func DetectConflicts(local, remote []models.DiscountCode) []SyncConflict {
	remoteByID := make(map[string]models.DiscountCode, len(remote))
	for _, r := range remote {
		remoteByID[r.ID] = r
	}

	now := time.Now().UTC()
	var conflicts []SyncConflict
	for _, l := range local {
		r, ok := remoteByID[l.ID]
		if !ok {
			continue
		}
		if !codesEqual(l, r) {
			conflicts = append(conflicts, SyncConflict{
				ID:        l.ID,
				Local:     l,
				Remote:    r,
				Timestamp: now,
			})
		}
	}
	return conflicts
}

// codesEqual structurally compares two codes after normalizing instants to
// UTC, so the same moment serialized in different zones does not read as drift.
func codesEqual(a, b models.DiscountCode) bool {
	aj, err := json.Marshal(normalizeCode(a))
	if err != nil {
		return false
	}
	bj, err := json.Marshal(normalizeCode(b))
	if err != nil {
		return false
	}
	return bytes.Equal(aj, bj)
}

func normalizeCode(c models.DiscountCode) models.DiscountCode {
	c.DateAdded = c.DateAdded.UTC()
	if c.ExpiryDate != nil {
		t := c.ExpiryDate.UTC()
		c.ExpiryDate = &t
	}
	if len(c.UsageHistory) > 0 {
		history := make([]models.UsageEntry, len(c.UsageHistory))
		for i, u := range c.UsageHistory {
			u.Date = u.Date.UTC()
			history[i] = u
		}
		c.UsageHistory = history
	}
	return c
}

// ResolveConflicts collapses conflicts per strategy and reconciles
// non-conflicting additions. The result is seeded with every local code,
// followed by remote-only additions in remote's order; each conflict then
// overwrites its entry in place.
//
// The merge strategy here is remote-biased: remote supplies the record and
// only the usage/favorite signal (and the later dateAdded) is pulled from
// local. This is intentionally different from the recency-biased MergeCodes
// fast path.
func ResolveConflicts(conflicts []SyncConflict, strategy Strategy, local, remote []models.DiscountCode) []models.DiscountCode {
	resolved := make([]models.DiscountCode, 0, len(local)+len(remote))
	index := make(map[string]int, len(local)+len(remote))

	for _, l := range local {
		index[l.ID] = len(resolved)
		resolved = append(resolved, l)
	}
	for _, r := range remote {
		if _, ok := index[r.ID]; !ok {
			index[r.ID] = len(resolved)
			resolved = append(resolved, r)
		}
	}

	for _, c := range conflicts {
		i, ok := index[c.ID]
		if !ok {
			continue
		}
		switch strategy {
		case StrategyLocal:
			resolved[i] = c.Local
		case StrategyRemote:
			resolved[i] = c.Remote
		case StrategyMerge:
			resolved[i] = mergeConflict(c.Local, c.Remote)
		}
	}
	return resolved
}

// mergeConflict: remote wins on content, but no side loses usage or
// favorite signal, and dateAdded never moves backwards.
func mergeConflict(local, remote models.DiscountCode) models.DiscountCode {
	merged := remote
	if local.TimesUsed > merged.TimesUsed {
		merged.TimesUsed = local.TimesUsed
	}
	merged.IsFavorite = local.IsFavorite || remote.IsFavorite
	if local.DateAdded.After(remote.DateAdded) {
		merged.DateAdded = local.DateAdded
	}
	return merged
}

// MergeCodes is the no-conflict fast path: union by id. When both sides
// hold an entry, the side with the later dateAdded wins as the base, but
// timesUsed takes the max and isFavorite the OR of both sides regardless.
//
// Unlike ResolveConflicts' merge strategy, the base here is chosen by
// recency rather than always remote; the two call sites are deliberately
// kept distinct.
func MergeCodes(local, remote []models.DiscountCode) []models.DiscountCode {
	merged := make([]models.DiscountCode, 0, len(local)+len(remote))
	index := make(map[string]int, len(local)+len(remote))

	for _, l := range local {
		index[l.ID] = len(merged)
		merged = append(merged, l)
	}

	for _, r := range remote {
		i, ok := index[r.ID]
		if !ok {
			index[r.ID] = len(merged)
			merged = append(merged, r)
			continue
		}

		l := merged[i]
		keep := l
		if r.DateAdded.After(l.DateAdded) {
			keep = r
		}
		if l.TimesUsed > keep.TimesUsed {
			keep.TimesUsed = l.TimesUsed
		}
		if r.TimesUsed > keep.TimesUsed {
			keep.TimesUsed = r.TimesUsed
		}
		keep.IsFavorite = l.IsFavorite || r.IsFavorite
		merged[i] = keep
	}
	return merged
}
