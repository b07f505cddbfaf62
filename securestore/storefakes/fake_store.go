package storefakes

import (
	"sync"

	"github.com/chrissyx/zay-linkauth/securestore"
)

var _ securestore.SecureKeyValueStore = (*FakeStore)(nil)

// FakeStore is an in-memory SecureKeyValueStore for tests.
type FakeStore struct {
	entries map[string][]byte
	lock    sync.RWMutex

	// FailWith, when set, is returned by every operation. Used to
	// exercise storage-unavailable paths.
	FailWith error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{entries: make(map[string][]byte)}
}

func (s *FakeStore) Get(key string) ([]byte, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.FailWith != nil {
		return nil, s.FailWith
	}
	value, ok := s.entries[key]
	if !ok {
		return nil, securestore.ErrKeyNotFound
	}
	return value, nil
}

func (s *FakeStore) Set(key string, value []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}
	s.entries[key] = value
	return nil
}

func (s *FakeStore) Delete(key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}
	delete(s.entries, key)
	return nil
}

func (s *FakeStore) Keys() ([]string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.FailWith != nil {
		return nil, s.FailWith
	}
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

// Len reports the number of stored entries.
func (s *FakeStore) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.entries)
}
