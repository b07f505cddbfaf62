// Package sqliterepo backs loginlink.Repo with an embedded SQLite
// database. The at-most-once consumption guarantee rides on a
// conditional UPDATE keyed on is_used = 0.
package sqliterepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/chrissyx/zay-linkauth/loginlink"
	"github.com/pkg/errors"
	"github.com/vinovest/sqlx"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS login_links (
	link_key        TEXT PRIMARY KEY,
	id              TEXT NOT NULL,
	ticket_id       TEXT NOT NULL,
	target_username TEXT NOT NULL,
	issuer_admin    TEXT NOT NULL,
	created_at      TIMESTAMP NOT NULL,
	expires_at      TIMESTAMP NOT NULL,
	is_used         INTEGER NOT NULL DEFAULT 0,
	used_at         TIMESTAMP NOT NULL DEFAULT '0001-01-01T00:00:00Z'
);`

var _ loginlink.Repo = (*Repo)(nil)

// Repo is the SQLite-backed login-link store.
type Repo struct {
	db *sqlx.DB
}

// Open connects to the SQLite database at dsn.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "[sqliterepo.Open] connect")
	}
	return db, nil
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

func (r *Repo) Create(ctx context.Context, link *loginlink.LoginLink) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_links
			(link_key, id, ticket_id, target_username, issuer_admin, created_at, expires_at, is_used, used_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		link.LinkKey, link.ID, link.TicketID, link.TargetUsername, link.IssuerAdmin,
		link.CreatedAt, link.ExpiresAt, link.IsUsed, link.UsedAt)
	return errors.Wrap(err, "[Repo.Create] insert")
}

func (r *Repo) Get(ctx context.Context, linkKey string) (*loginlink.LoginLink, error) {
	var link loginlink.LoginLink
	err := r.db.GetContext(ctx, &link,
		`SELECT link_key, id, ticket_id, target_username, issuer_admin, created_at, expires_at, is_used, used_at
		 FROM login_links WHERE link_key = ?`, linkKey)
	if err == sql.ErrNoRows {
		return nil, loginlink.ErrLinkNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Repo.Get] select")
	}
	return &link, nil
}

func (r *Repo) MarkUsed(ctx context.Context, linkKey string, usedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE login_links SET is_used = 1, used_at = ? WHERE link_key = ? AND is_used = 0`,
		usedAt, linkKey)
	if err != nil {
		return errors.Wrap(err, "[Repo.MarkUsed] update")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[Repo.MarkUsed] rows affected")
	}
	if affected == 1 {
		return nil
	}

	// No row transitioned: either the link is gone or someone else won.
	var used bool
	err = r.db.GetContext(ctx, &used,
		`SELECT is_used FROM login_links WHERE link_key = ?`, linkKey)
	if err == sql.ErrNoRows {
		return loginlink.ErrLinkNotFound
	}
	if err != nil {
		return errors.Wrap(err, "[Repo.MarkUsed] recheck")
	}
	return loginlink.ErrLinkAlreadyUsed
}

func (r *Repo) Delete(ctx context.Context, linkKey string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM login_links WHERE link_key = ?`, linkKey)
	return errors.Wrap(err, "[Repo.Delete] delete")
}
