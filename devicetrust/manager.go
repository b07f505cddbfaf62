// Package devicetrust decides whether the current device is already
// trusted for an account. Devices are identified by a one-way hash of
// the platform identifier and kept as a per-account set.
package devicetrust

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode"

	"github.com/chrissyx/zay-linkauth/internal/securerand"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Manager computes the device identity and manages the trusted set.
type Manager struct {
	platformID  string
	deviceModel string
	repo        Repo
	nowTime     func() time.Time
	log         zerolog.Logger
}

// Option modifies a Manager instance.
type Option func(*Manager)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// New creates a Manager. platformID is the stable platform device
// identifier (e.g. the Android ID); deviceModel is the human-readable
// model string of the host device.
func New(platformID, deviceModel string, repo Repo, log zerolog.Logger, options ...Option) (*Manager, error) {
	if repo == nil {
		return nil, errors.New("[devicetrust.New] repo is required")
	}
	if platformID == "" {
		platformID = "unknown_device"
	}

	m := &Manager{
		platformID:  platformID,
		deviceModel: deviceModel,
		repo:        repo,
		nowTime:     time.Now,
		log:         log,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// DeviceID returns the hex SHA-256 hash of the platform identifier.
// Deterministic for a given device, and the only form that is ever
// persisted or compared.
func (m *Manager) DeviceID() string {
	sum := sha256.Sum256([]byte(m.platformID))
	return hex.EncodeToString(sum[:])
}

// CheckTrusted reports whether this device is in the account's trusted
// set, surfacing storage errors to the caller.
func (m *Manager) CheckTrusted(ctx context.Context, username string) (bool, error) {
	devices, err := m.repo.TrustedDevices(ctx, username)
	if err != nil {
		return false, errors.Wrap(err, "[Manager.CheckTrusted] repo.TrustedDevices")
	}

	deviceID := m.DeviceID()
	for _, d := range devices {
		if d.DeviceID == deviceID {
			if err := m.repo.TouchTrustedDevice(ctx, username, deviceID, m.nowTime()); err != nil {
				m.log.Warn().Err(err).Msg("failed to update device last-used")
			}
			return true, nil
		}
	}
	return false, nil
}

// IsTrusted is the fail-closed form of CheckTrusted: storage or network
// problems read as "not trusted" so an outage can never skip a login
// challenge. The underlying error is logged for observability.
func (m *Manager) IsTrusted(ctx context.Context, username string) bool {
	trusted, err := m.CheckTrusted(ctx, username)
	if err != nil {
		m.log.Warn().Err(err).Str("username", username).Msg("trust check failed, treating device as untrusted")
		return false
	}
	return trusted
}

// TrustCurrentDevice adds this device to the account's trusted set.
// Re-trusting an already-trusted device is a no-op success. An empty
// label defaults to the real device model.
func (m *Manager) TrustCurrentDevice(ctx context.Context, username, label string) error {
	if label == "" {
		label = m.RealDeviceLabel()
	}
	now := m.nowTime()
	err := m.repo.AddTrustedDevice(ctx, username, TrustedDevice{
		DeviceID:   m.DeviceID(),
		DeviceInfo: label,
		TrustedAt:  now,
		LastUsed:   now,
	})
	return errors.Wrap(err, "[Manager.TrustCurrentDevice] repo.AddTrustedDevice")
}

// Untrust removes a device from the account's trusted set. Removing an
// unknown device is a no-op success.
func (m *Manager) Untrust(ctx context.Context, username, deviceID string) error {
	return errors.Wrap(m.repo.RemoveTrustedDevice(ctx, username, deviceID),
		"[Manager.Untrust] repo.RemoveTrustedDevice")
}

// TrustedDevices lists the account's trusted devices for the manage
// devices screen.
func (m *Manager) TrustedDevices(ctx context.Context, username string) ([]TrustedDevice, error) {
	devices, err := m.repo.TrustedDevices(ctx, username)
	return devices, errors.Wrap(err, "[Manager.TrustedDevices] repo.TrustedDevices")
}

// MessagingLabel returns the device name attached to an outgoing
// anonymous message. Pro users show their real device; everyone else
// gets a random pick from a fixed catalog so the real model never
// leaks. The pick is independent of DeviceID.
func (m *Manager) MessagingLabel(isPro bool) string {
	if isPro {
		return m.RealDeviceLabel()
	}
	return securerand.Pick(messagingCatalog)
}

// RealDeviceLabel returns a cleaned-up, title-cased device model.
func (m *Manager) RealDeviceLabel() string {
	model := strings.TrimSpace(m.deviceModel)
	if model == "" {
		return "Unknown Device"
	}

	words := strings.Fields(model)
	for i, w := range words {
		r := []rune(w)
		if unicode.IsLower(r[0]) {
			r[0] = unicode.ToUpper(r[0])
			words[i] = string(r)
		}
	}
	return strings.Join(words, " ")
}
