// Package securestore provides an at-rest-encrypted key/value store for
// on-device credentials. The interface is deliberately narrow so the
// backing store can be swapped without touching the credential logic.
package securestore

import "errors"

var (
	ErrKeyNotFound      = errors.New("key not found")
	ErrStoreUnavailable = errors.New("secure store unavailable")
)

// SecureKeyValueStore stores small byte values under string keys.
// Implementations must encrypt values at rest.
type SecureKeyValueStore interface {
	// Get retrieves the value for key, or ErrKeyNotFound.
	Get(key string) ([]byte, error)

	// Set creates or replaces the value for key.
	Set(key string, value []byte) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(key string) error

	// Keys lists all stored keys.
	Keys() ([]string, error)
}
