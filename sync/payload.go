// ABOUTME: Sync payload packaging and integrity validation
// ABOUTME: Wraps code snapshots with version, timestamp, device ID, and checksum
package sync

import (
	"time"

	"github.com/harperreed/dealstash/models"
)

// PayloadVersion is the current sync payload format version.
const PayloadVersion = "1.0"

// SyncPayload is the versioned, checksummed bundle of codes exchanged with
// a cloud provider. Instants serialize as RFC 3339 strings on the wire.
type SyncPayload struct {
	Version      string                `json:"version"`
	LastModified time.Time             `json:"lastModified"`
	DeviceID     string                `json:"deviceId"`
	Codes        []models.DiscountCode `json:"codes"`
	Checksum     string                `json:"checksum"`
}

// checksumEnvelope fixes the serialized shape of the checksum domain.
// Version and lastModified are deliberately excluded: re-stamping a payload
// must not change its checksum.
type checksumEnvelope struct {
	Codes    []models.DiscountCode `json:"codes"`
	DeviceID string                `json:"deviceId"`
}

// CreateSyncData builds a payload for the given snapshot. The checksum is
// computed last, after codes and deviceID are final.
func CreateSyncData(codes []models.DiscountCode, deviceID string) *SyncPayload {
	if codes == nil {
		codes = []models.DiscountCode{}
	}
	p := &SyncPayload{
		Version:      PayloadVersion,
		LastModified: time.Now().UTC(),
		DeviceID:     deviceID,
		Codes:        codes,
	}
	p.Checksum = Checksum(checksumEnvelope{Codes: p.Codes, DeviceID: p.DeviceID})
	return p
}

// ValidateSyncData reports whether a payload is structurally complete and
// its checksum matches a fresh recomputation. A payload failing this check
// is discarded, never partially trusted.
func ValidateSyncData(p *SyncPayload) bool {
	if p == nil || p.Codes == nil || p.Checksum == "" {
		return false
	}
	return p.Checksum == Checksum(checksumEnvelope{Codes: p.Codes, DeviceID: p.DeviceID})
}
