// ABOUTME: Deterministic drift-detection checksum and stable device identity
// ABOUTME: Rolling 31x hash over serialized JSON plus a ULID device ID persisted once
package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/oklog/ulid/v2"

	"github.com/harperreed/dealstash/kvstore"
)

const deviceIDKey = "device_id"

// Checksum serializes v to JSON and folds the result character by character
// into a 32-bit signed integer (h = h*31 + c, wrapping), returning the
// absolute value in base 36. Deterministic for identical serializations.
// This is a drift-detection checksum, not a cryptographic hash.
func Checksum(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Only unserializable values land here; none of the sync types are.
		return "0"
	}

	var h int32
	for _, c := range string(data) {
		h = h*31 + int32(c)
	}

	n := int64(h)
	if n < 0 {
		n = -n
	}
	return strconv.FormatInt(n, 36)
}

// DeviceID returns the stable identifier for this installation. The first
// call mints a ULID (millisecond timestamp plus random suffix) and persists
// it; every later call returns the same value. DEALSTASH_DEVICE_ID
// overrides the persisted identity without touching it.
func DeviceID(store kvstore.Store) (string, error) {
	if id := os.Getenv("DEALSTASH_DEVICE_ID"); id != "" {
		return id, nil
	}

	raw, err := store.Get(deviceIDKey)
	if err != nil {
		return "", fmt.Errorf("failed to read device id: %w", err)
	}
	if len(raw) > 0 {
		return string(raw), nil
	}

	id := ulid.Make().String()
	if err := store.Set(deviceIDKey, []byte(id)); err != nil {
		return "", fmt.Errorf("failed to persist device id: %w", err)
	}
	return id, nil
}
