// Package vault issues and consumes the one-time profile-access tokens
// embedded in zay://profile/<user>?token=... links. Tokens live in an
// encrypted on-device store and are valid for a single use within 24h.
package vault

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chrissyx/zay-linkauth/internal/securerand"
	"github.com/chrissyx/zay-linkauth/securestore"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	tokenLength = 32
	tokenTTL    = 24 * time.Hour
)

// Vault manages local one-time profile tokens.
type Vault struct {
	store   securestore.SecureKeyValueStore
	nowTime func() time.Time
	log     zerolog.Logger

	// Serializes validate-and-consume so the check and the consumed
	// write are a single read-modify-write per store.
	mu sync.Mutex
}

// Option modifies a Vault instance.
type Option func(*Vault)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(v *Vault) {
		v.nowTime = nowFunc
	}
}

// New creates a Vault over the given store.
func New(store securestore.SecureKeyValueStore, log zerolog.Logger, options ...Option) (*Vault, error) {
	if store == nil {
		return nil, errors.New("[vault.New] store is required")
	}

	v := &Vault{
		store:   store,
		nowTime: time.Now,
		log:     log,
	}
	for _, opt := range options {
		opt(v)
	}
	return v, nil
}

// Issue generates a new single-use token for owner and persists it.
func (v *Vault) Issue(ownerUsername string) (*AccessToken, error) {
	now := v.nowTime()
	token := &AccessToken{
		Token:         securerand.Token(tokenLength, securerand.Alphanumeric),
		OwnerUsername: ownerUsername,
		IssuedAt:      now,
		ExpiresAt:     now.Add(tokenTTL),
		Consumed:      false,
	}

	record, err := json.Marshal(token)
	if err != nil {
		return nil, errors.Wrap(err, "[Vault.Issue] marshal")
	}
	if err := v.store.Set(token.Token, record); err != nil {
		return nil, errors.Wrap(err, "[Vault.Issue] store.Set")
	}
	return token, nil
}

// IssueURL issues a token for owner and returns the full profile deep
// link embedding it.
func (v *Vault) IssueURL(ownerUsername string) (string, error) {
	token, err := v.Issue(ownerUsername)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("zay://profile/%s?token=%s", ownerUsername, token.Token), nil
}

// ValidateAndConsume resolves a token to its owner, marking it consumed.
// At most one call per token value ever succeeds. Expired tokens are
// deleted as a side effect.
func (v *Vault) ValidateAndConsume(token string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	record, err := v.store.Get(token)
	if errors.Cause(err) == securestore.ErrKeyNotFound {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "[Vault.ValidateAndConsume] store.Get")
	}

	var at AccessToken
	if err := json.Unmarshal(record, &at); err != nil {
		return "", errors.Wrap(err, "[Vault.ValidateAndConsume] corrupt record")
	}

	if v.nowTime().After(at.ExpiresAt) {
		if err := v.store.Delete(token); err != nil {
			v.log.Warn().Err(err).Msg("failed to delete expired token")
		}
		return "", ErrTokenExpired
	}

	if at.Consumed {
		return "", ErrTokenAlreadyUsed
	}

	at.Consumed = true
	updated, err := json.Marshal(&at)
	if err != nil {
		return "", errors.Wrap(err, "[Vault.ValidateAndConsume] marshal")
	}
	if err := v.store.Set(token, updated); err != nil {
		return "", errors.Wrap(err, "[Vault.ValidateAndConsume] store.Set")
	}

	return at.OwnerUsername, nil
}

// SweepExpired deletes all tokens past their expiry. Called at process
// start and safe to call at any time.
func (v *Vault) SweepExpired() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	keys, err := v.store.Keys()
	if err != nil {
		return errors.Wrap(err, "[Vault.SweepExpired] store.Keys")
	}

	now := v.nowTime()
	swept := 0
	for _, key := range keys {
		record, err := v.store.Get(key)
		if err != nil {
			continue
		}
		var at AccessToken
		if err := json.Unmarshal(record, &at); err != nil {
			// Unreadable records are dead weight, remove them too.
			_ = v.store.Delete(key)
			swept++
			continue
		}
		if at.ExpiresAt.Before(now) {
			if err := v.store.Delete(key); err != nil {
				v.log.Warn().Err(err).Str("token", key).Msg("sweep delete failed")
				continue
			}
			swept++
		}
	}

	if swept > 0 {
		v.log.Info().Int("swept", swept).Msg("expired profile tokens removed")
	}
	return nil
}
