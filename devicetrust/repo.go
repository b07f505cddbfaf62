package devicetrust

import (
	"context"
	"time"
)

// TrustedDevice is one member of an account's trusted-device set. The
// DeviceID is a one-way hash; the raw platform identifier is never
// persisted.
type TrustedDevice struct {
	DeviceID   string    `json:"device_id" db:"device_id"`
	DeviceInfo string    `json:"device_info" db:"device_info"`
	TrustedAt  time.Time `json:"trusted_at" db:"trusted_at"`
	LastUsed   time.Time `json:"last_used" db:"last_used"`
}

// Repo is the account-document surface the trust manager needs.
type Repo interface {
	// TrustedDevices lists the account's trusted devices.
	TrustedDevices(ctx context.Context, username string) ([]TrustedDevice, error)

	// AddTrustedDevice inserts a device into the account's trusted
	// set. Re-adding an existing device is a no-op success.
	AddTrustedDevice(ctx context.Context, username string, device TrustedDevice) error

	// RemoveTrustedDevice removes a device. Removing an absent device
	// is a no-op success.
	RemoveTrustedDevice(ctx context.Context, username, deviceID string) error

	// TouchTrustedDevice updates the device's last-used timestamp.
	TouchTrustedDevice(ctx context.Context, username, deviceID string, usedAt time.Time) error
}
