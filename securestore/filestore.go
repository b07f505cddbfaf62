package securestore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

const storeKeyInfo = "zay-securestore-v1"

var _ SecureKeyValueStore = (*FileStore)(nil)

// FileStore keeps all entries in a single AES-256-GCM encrypted file.
// The whole map is rewritten on every mutation, which is fine for the
// handful of short-lived tokens it holds.
type FileStore struct {
	path string
	key  []byte

	mu      sync.Mutex
	entries map[string][]byte
}

// OpenFileStore opens (or creates) the encrypted store at path. The
// encryption key is derived from masterKey with HKDF-SHA256, so the raw
// master key never touches the cipher directly.
func OpenFileStore(path string, masterKey []byte) (*FileStore, error) {
	if len(masterKey) == 0 {
		return nil, errors.Wrap(ErrStoreUnavailable, "[OpenFileStore] empty master key")
	}

	key := make([]byte, 32)
	h := hkdf.New(sha256.New, masterKey, nil, []byte(storeKeyInfo))
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, errors.Wrap(ErrStoreUnavailable, "[OpenFileStore] key derivation failed")
	}

	fs := &FileStore{
		path:    path,
		key:     key,
		entries: make(map[string][]byte),
	}

	blob, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Fresh store, nothing to load.
	case err != nil:
		return nil, errors.Wrapf(ErrStoreUnavailable, "[OpenFileStore] read %s: %v", path, err)
	default:
		plaintext, err := decryptAESGCM(key, blob)
		if err != nil {
			return nil, errors.Wrapf(ErrStoreUnavailable, "[OpenFileStore] decrypt %s: %v", path, err)
		}
		if err := json.Unmarshal(plaintext, &fs.entries); err != nil {
			return nil, errors.Wrapf(ErrStoreUnavailable, "[OpenFileStore] corrupt store %s: %v", path, err)
		}
	}

	return fs, nil
}

func (fs *FileStore) Get(key string) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	value, ok := fs.entries[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (fs *FileStore) Set(key string, value []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	fs.entries[key] = stored
	return fs.persist()
}

func (fs *FileStore) Delete(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.entries[key]; !ok {
		return nil
	}
	delete(fs.entries, key)
	return fs.persist()
}

func (fs *FileStore) Keys() ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	keys := make([]string, 0, len(fs.entries))
	for k := range fs.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

// persist writes the encrypted map to a temp file and renames it into
// place so a crash mid-write never leaves a truncated store.
func (fs *FileStore) persist() error {
	plaintext, err := json.Marshal(fs.entries)
	if err != nil {
		return errors.Wrap(err, "[FileStore.persist] marshal")
	}
	blob, err := encryptAESGCM(fs.key, plaintext)
	if err != nil {
		return errors.Wrap(err, "[FileStore.persist] encrypt")
	}

	tmp := fs.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return errors.Wrap(err, "[FileStore.persist] mkdir")
	}
	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return errors.Wrap(err, "[FileStore.persist] write")
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return errors.Wrap(err, "[FileStore.persist] rename")
	}
	return nil
}

func encryptAESGCM(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	ct := gcm.Seal(nil, nonce, plaintext, nil)
	return append(nonce, ct...), nil
}

func decryptAESGCM(key, blob []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	ns := gcm.NonceSize()
	if len(blob) < ns {
		return nil, errors.New("ciphertext too short")
	}
	return gcm.Open(nil, blob[:ns], blob[ns:], nil)
}
