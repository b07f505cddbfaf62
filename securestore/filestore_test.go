package securestore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chrissyx/zay-linkauth/securestore"
	"github.com/stretchr/testify/require"
)

func tempStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "store.bin")
}

func TestFileStore_RoundTrip(t *testing.T) {
	masterKey := []byte("0123456789abcdef0123456789abcdef")

	store, err := securestore.OpenFileStore(tempStorePath(t), masterKey)
	require.NoError(t, err)

	require.NoError(t, store.Set("alpha", []byte("one")))
	require.NoError(t, store.Set("beta", []byte("two")))

	value, err := store.Get("alpha")
	require.NoError(t, err)
	require.Equal(t, []byte("one"), value)

	keys, err := store.Keys()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"alpha", "beta"}, keys)
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	masterKey := []byte("0123456789abcdef0123456789abcdef")
	path := tempStorePath(t)

	store, err := securestore.OpenFileStore(path, masterKey)
	require.NoError(t, err)
	require.NoError(t, store.Set("token", []byte("payload")))

	reopened, err := securestore.OpenFileStore(path, masterKey)
	require.NoError(t, err)

	value, err := reopened.Get("token")
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), value)
}

func TestFileStore_WrongKeyIsUnavailable(t *testing.T) {
	path := tempStorePath(t)

	store, err := securestore.OpenFileStore(path, []byte("correct-master-key-0123456789abc"))
	require.NoError(t, err)
	require.NoError(t, store.Set("token", []byte("payload")))

	_, err = securestore.OpenFileStore(path, []byte("a-completely-different-master-ky"))
	require.ErrorIs(t, err, securestore.ErrStoreUnavailable)
}

func TestFileStore_EmptyMasterKey(t *testing.T) {
	_, err := securestore.OpenFileStore(tempStorePath(t), nil)
	require.ErrorIs(t, err, securestore.ErrStoreUnavailable)
}

func TestFileStore_Delete(t *testing.T) {
	store, err := securestore.OpenFileStore(tempStorePath(t), []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	require.NoError(t, store.Set("gone", []byte("x")))
	require.NoError(t, store.Delete("gone"))
	require.NoError(t, store.Delete("gone")) // absent key is not an error

	_, err = store.Get("gone")
	require.ErrorIs(t, err, securestore.ErrKeyNotFound)
}

func TestFileStore_FileIsNotPlaintext(t *testing.T) {
	path := tempStorePath(t)

	store, err := securestore.OpenFileStore(path, []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	require.NoError(t, store.Set("secret-key-name", []byte("secret-value")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "secret-value")
	require.NotContains(t, string(raw), "secret-key-name")
}
