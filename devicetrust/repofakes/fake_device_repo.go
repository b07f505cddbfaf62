package repofakes

import (
	"context"
	"sync"
	"time"

	"github.com/chrissyx/zay-linkauth/devicetrust"
)

var _ devicetrust.Repo = (*FakeDeviceRepo)(nil)

// FakeDeviceRepo is an in-memory devicetrust.Repo for tests.
type FakeDeviceRepo struct {
	accounts map[string]map[string]devicetrust.TrustedDevice
	lock     sync.RWMutex

	// FailWith, when set, is returned by every operation.
	FailWith error
}

func NewFakeDeviceRepo() *FakeDeviceRepo {
	return &FakeDeviceRepo{accounts: make(map[string]map[string]devicetrust.TrustedDevice)}
}

func (r *FakeDeviceRepo) TrustedDevices(_ context.Context, username string) ([]devicetrust.TrustedDevice, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.FailWith != nil {
		return nil, r.FailWith
	}
	devices := make([]devicetrust.TrustedDevice, 0, len(r.accounts[username]))
	for _, d := range r.accounts[username] {
		devices = append(devices, d)
	}
	return devices, nil
}

func (r *FakeDeviceRepo) AddTrustedDevice(_ context.Context, username string, device devicetrust.TrustedDevice) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.FailWith != nil {
		return r.FailWith
	}
	if r.accounts[username] == nil {
		r.accounts[username] = make(map[string]devicetrust.TrustedDevice)
	}
	if _, ok := r.accounts[username][device.DeviceID]; ok {
		return nil // already trusted, keep the original record
	}
	r.accounts[username][device.DeviceID] = device
	return nil
}

func (r *FakeDeviceRepo) RemoveTrustedDevice(_ context.Context, username, deviceID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.FailWith != nil {
		return r.FailWith
	}
	delete(r.accounts[username], deviceID)
	return nil
}

func (r *FakeDeviceRepo) TouchTrustedDevice(_ context.Context, username, deviceID string, usedAt time.Time) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.FailWith != nil {
		return r.FailWith
	}
	if device, ok := r.accounts[username][deviceID]; ok {
		device.LastUsed = usedAt
		r.accounts[username][deviceID] = device
	}
	return nil
}
