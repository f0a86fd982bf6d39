// ABOUTME: Data models for discount code entities
// ABOUTME: Defines DiscountCode, UsageEntry, and category constants
package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UsageEntry records one redemption of a code.
type UsageEntry struct {
	Date             time.Time `json:"date"`
	EstimatedSavings *float64  `json:"estimatedSavings,omitempty"`
}

// DiscountCode is a tracked coupon code. JSON field names match the sync
// wire format, so snapshots round-trip between devices unchanged.
type DiscountCode struct {
	ID            string       `json:"id"`
	Code          string       `json:"code"`
	Store         string       `json:"store"`
	Discount      string       `json:"discount"` // "20%" or a currency amount like "€10"
	OriginalPrice *float64     `json:"originalPrice,omitempty"`
	ExpiryDate    *time.Time   `json:"expiryDate,omitempty"`
	Category      string       `json:"category"`
	Description   string       `json:"description,omitempty"`
	IsFavorite    bool         `json:"isFavorite"`
	IsArchived    bool         `json:"isArchived"`
	DateAdded     time.Time    `json:"dateAdded"`
	TimesUsed     int          `json:"timesUsed"`
	UsageHistory  []UsageEntry `json:"usageHistory,omitempty"`
}

// Category constants.
const (
	CategoryFashion       = "fashion"
	CategoryElectronics   = "electronics"
	CategoryFood          = "food"
	CategoryTravel        = "travel"
	CategoryEntertainment = "entertainment"
	CategoryOther         = "other"
)

// NewDiscountCode creates a code with a fresh ID and the current timestamp.
func NewDiscountCode(code, store, discount, category string) *DiscountCode {
	if category == "" {
		category = CategoryOther
	}
	return &DiscountCode{
		ID:        uuid.NewString(),
		Code:      code,
		Store:     store,
		Discount:  discount,
		Category:  category,
		DateAdded: time.Now().UTC(),
	}
}

// IsExpired reports whether the code's expiry date has passed.
// Codes without an expiry date never expire.
func (c *DiscountCode) IsExpired(now time.Time) bool {
	if c.ExpiryDate == nil {
		return false
	}
	return c.ExpiryDate.Before(now)
}

// EstimatedSaving estimates the money saved by one use of this code.
// Percentage discounts require OriginalPrice to produce a value; currency
// amounts are parsed directly with any non-numeric symbols stripped.
func (c *DiscountCode) EstimatedSaving() float64 {
	d := strings.TrimSpace(c.Discount)
	if d == "" {
		return 0
	}

	if strings.HasSuffix(d, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(d, "%")), 64)
		if err != nil || c.OriginalPrice == nil {
			return 0
		}
		return *c.OriginalPrice * pct / 100
	}

	// Currency amount: keep digits, separators, and sign.
	var b strings.Builder
	for _, r := range d {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(b.String(), ",", "."), 64)
	if err != nil {
		return 0
	}
	return amount
}
