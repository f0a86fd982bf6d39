// ABOUTME: Tests for checksum determinism and device identity persistence
// ABOUTME: Exercises the rolling hash and the mint-once ULID behavior
package sync

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/dealstash/models"
)

func testCodes() []models.DiscountCode {
	return []models.DiscountCode{
		{
			ID:        "1",
			Code:      "SAVE20",
			Store:     "Amazon",
			Discount:  "20%",
			Category:  models.CategoryElectronics,
			DateAdded: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
			TimesUsed: 2,
		},
		{
			ID:         "2",
			Code:       "TENOFF",
			Store:      "Zalando",
			Discount:   "€10",
			Category:   models.CategoryFashion,
			IsFavorite: true,
			DateAdded:  time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC),
		},
	}
}

func TestChecksumDeterminism(t *testing.T) {
	env := checksumEnvelope{Codes: testCodes(), DeviceID: "device-a"}

	first := Checksum(env)
	second := Checksum(env)

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second, "identical input must yield identical checksums")
}

func TestChecksumChangesWithAnyField(t *testing.T) {
	base := Checksum(checksumEnvelope{Codes: testCodes(), DeviceID: "device-a"})

	mutated := testCodes()
	mutated[0].TimesUsed++
	assert.NotEqual(t, base, Checksum(checksumEnvelope{Codes: mutated, DeviceID: "device-a"}),
		"changing a code field must change the checksum")

	mutated = testCodes()
	mutated[1].IsFavorite = false
	assert.NotEqual(t, base, Checksum(checksumEnvelope{Codes: mutated, DeviceID: "device-a"}))

	assert.NotEqual(t, base, Checksum(checksumEnvelope{Codes: testCodes(), DeviceID: "device-b"}),
		"changing the device id must change the checksum")
}

func TestChecksumIsBase36(t *testing.T) {
	sum := Checksum(checksumEnvelope{Codes: testCodes(), DeviceID: "device-a"})
	for _, c := range sum {
		valid := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z')
		assert.True(t, valid, "checksum should be lowercase base-36, got %q", sum)
	}
}

func TestDeviceIDStable(t *testing.T) {
	store := newMemStore()

	first, err := DeviceID(store)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	_, err = ulid.Parse(first)
	require.NoError(t, err, "device id should be a valid ULID")

	second, err := DeviceID(store)
	require.NoError(t, err)
	assert.Equal(t, first, second, "device id must be stable across calls")
}

func TestDeviceIDDistinctPerStore(t *testing.T) {
	a, err := DeviceID(newMemStore())
	require.NoError(t, err)
	b, err := DeviceID(newMemStore())
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "separate installations should mint distinct ids")
}

func TestDeviceIDEnvOverride(t *testing.T) {
	t.Setenv("DEALSTASH_DEVICE_ID", "forced-device")

	store := newMemStore()
	id, err := DeviceID(store)
	require.NoError(t, err)
	assert.Equal(t, "forced-device", id)

	// The override never touches the persisted identity.
	raw, err := store.Get("device_id")
	require.NoError(t, err)
	assert.Empty(t, raw)
}
