// ABOUTME: Pure aggregation over discount code collections
// ABOUTME: Stateless arithmetic with no IO and no stored state
package analytics

import (
	"sort"
	"time"

	"github.com/harperreed/dealstash/models"
)

// TotalSavings sums the estimated savings across all recorded usage.
// Codes without usage history fall back to timesUsed times the per-use
// estimate.
func TotalSavings(codes []models.DiscountCode) float64 {
	var total float64
	for i := range codes {
		c := &codes[i]
		if len(c.UsageHistory) > 0 {
			for _, u := range c.UsageHistory {
				if u.EstimatedSavings != nil {
					total += *u.EstimatedSavings
				}
			}
			continue
		}
		total += float64(c.TimesUsed) * c.EstimatedSaving()
	}
	return total
}

// TotalUses sums timesUsed across all codes.
func TotalUses(codes []models.DiscountCode) int {
	var total int
	for i := range codes {
		total += codes[i].TimesUsed
	}
	return total
}

// ActiveCount counts codes that are neither archived nor expired.
func ActiveCount(codes []models.DiscountCode, now time.Time) int {
	var n int
	for i := range codes {
		if !codes[i].IsArchived && !codes[i].IsExpired(now) {
			n++
		}
	}
	return n
}

// CountByCategory tallies codes per category.
func CountByCategory(codes []models.DiscountCode) map[string]int {
	counts := make(map[string]int)
	for i := range codes {
		counts[codes[i].Category]++
	}
	return counts
}

// CountByStore tallies codes per store.
func CountByStore(codes []models.DiscountCode) map[string]int {
	counts := make(map[string]int)
	for i := range codes {
		counts[codes[i].Store]++
	}
	return counts
}

// MostUsed returns up to n codes ordered by usage, most used first.
// Input order breaks ties.
func MostUsed(codes []models.DiscountCode, n int) []models.DiscountCode {
	out := make([]models.DiscountCode, len(codes))
	copy(out, codes)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimesUsed > out[j].TimesUsed
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// ExpiringWithin returns unarchived codes whose expiry falls inside the
// window starting at now, soonest first.
func ExpiringWithin(codes []models.DiscountCode, now time.Time, window time.Duration) []models.DiscountCode {
	cutoff := now.Add(window)
	var out []models.DiscountCode
	for i := range codes {
		c := codes[i]
		if c.IsArchived || c.ExpiryDate == nil {
			continue
		}
		if c.ExpiryDate.Before(now) || c.ExpiryDate.After(cutoff) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExpiryDate.Before(*out[j].ExpiryDate)
	})
	return out
}
