package credential

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/cristianoliveira/hostel-intray/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useArrayKeyring(t *testing.T, items ...keyring.Item) *keyring.ArrayKeyring {
	t.Helper()

	tmpDir := t.TempDir()
	t.Setenv("HOSTEL_INTRAY_CONFIG_DIR", filepath.Join(tmpDir, "config"))
	t.Setenv("HOSTEL_INTRAY_STATE_DIR", filepath.Join(tmpDir, "state"))
	config.Load()

	ring := keyring.NewArrayKeyring(items)
	open = func() (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { open = openKeyring })
	return ring
}

func TestSetGetDelete(t *testing.T) {
	useArrayKeyring(t)

	require.NoError(t, Set("custom", "value"))
	got, err := Get("custom")
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	require.NoError(t, Delete("custom"))
	_, err = Get("custom")
	assert.ErrorIs(t, err, keyring.ErrKeyNotFound)
	assert.Contains(t, err.Error(), `"custom"`)
}

func TestTokenPrefersConfig(t *testing.T) {
	useArrayKeyring(t, keyring.Item{Key: TokenKey, Data: []byte("from-keyring")})

	token, err := Token()
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", token)

	t.Setenv("HOSTEL_INTRAY_AUTH_TOKEN", "from-env")
	config.Load()
	token, err = Token()
	require.NoError(t, err)
	assert.Equal(t, "from-env", token)
}

func TestTokenMissingIsEmpty(t *testing.T) {
	useArrayKeyring(t)

	token, err := Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestTokenSkipsDisabledKeyring(t *testing.T) {
	useArrayKeyring(t, keyring.Item{Key: TokenKey, Data: []byte("stored")})
	t.Setenv("HOSTEL_INTRAY_KEYRING_ENABLED", "false")
	config.Load()

	token, err := Token()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Error(t, SaveToken("abc"))
}

func TestSaveAndDeleteToken(t *testing.T) {
	ring := useArrayKeyring(t)

	require.Error(t, SaveToken(""))
	require.NoError(t, SaveToken("abc"))
	item, err := ring.Get(TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(item.Data))

	require.NoError(t, DeleteToken())
	require.NoError(t, DeleteToken(), "deleting twice is fine")
	_, err = ring.Get(TokenKey)
	assert.ErrorIs(t, err, keyring.ErrKeyNotFound)
}

func TestOpenFailureIsReported(t *testing.T) {
	useArrayKeyring(t)
	open = func() (keyring.Keyring, error) { return nil, errors.New("no backend") }

	_, err := Token()
	assert.EqualError(t, err, "no backend")
}
