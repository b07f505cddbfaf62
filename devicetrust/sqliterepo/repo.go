// Package sqliterepo backs devicetrust.Repo with an embedded SQLite
// database, one row per (account, device) pair.
package sqliterepo

import (
	"context"
	"time"

	"github.com/chrissyx/zay-linkauth/devicetrust"
	"github.com/pkg/errors"
	"github.com/vinovest/sqlx"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS trusted_devices (
	username    TEXT NOT NULL,
	device_id   TEXT NOT NULL,
	device_info TEXT NOT NULL,
	trusted_at  TIMESTAMP NOT NULL,
	last_used   TIMESTAMP NOT NULL,
	PRIMARY KEY (username, device_id)
);`

var _ devicetrust.Repo = (*Repo)(nil)

// Repo is the SQLite-backed trusted-device store.
type Repo struct {
	db *sqlx.DB
}

// New creates the repo and ensures the schema exists.
func New(db *sqlx.DB) (*Repo, error) {
	if db == nil {
		return nil, errors.New("[sqliterepo.New] db is required")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "[sqliterepo.New] create schema")
	}
	return &Repo{db: db}, nil
}

func (r *Repo) TrustedDevices(ctx context.Context, username string) ([]devicetrust.TrustedDevice, error) {
	devices := []devicetrust.TrustedDevice{}
	err := r.db.SelectContext(ctx, &devices,
		`SELECT device_id, device_info, trusted_at, last_used
		 FROM trusted_devices WHERE username = ? ORDER BY trusted_at`, username)
	if err != nil {
		return nil, errors.Wrap(err, "[Repo.TrustedDevices] select")
	}
	return devices, nil
}

func (r *Repo) AddTrustedDevice(ctx context.Context, username string, device devicetrust.TrustedDevice) error {
	// ON CONFLICT DO NOTHING keeps the original trusted_at when a
	// device is re-trusted.
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO trusted_devices (username, device_id, device_info, trusted_at, last_used)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (username, device_id) DO NOTHING`,
		username, device.DeviceID, device.DeviceInfo, device.TrustedAt, device.LastUsed)
	return errors.Wrap(err, "[Repo.AddTrustedDevice] insert")
}

func (r *Repo) RemoveTrustedDevice(ctx context.Context, username, deviceID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM trusted_devices WHERE username = ? AND device_id = ?`, username, deviceID)
	return errors.Wrap(err, "[Repo.RemoveTrustedDevice] delete")
}

func (r *Repo) TouchTrustedDevice(ctx context.Context, username, deviceID string, usedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE trusted_devices SET last_used = ? WHERE username = ? AND device_id = ?`,
		usedAt, username, deviceID)
	return errors.Wrap(err, "[Repo.TouchTrustedDevice] update")
}
