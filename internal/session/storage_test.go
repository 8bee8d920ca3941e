package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.toml")

	s, err := OpenFileStorage(path)
	require.NoError(t, err)
	_, ok := s.Get(KeyToken)
	assert.False(t, ok)

	require.NoError(t, s.Set(KeyToken, "tok"))
	require.NoError(t, s.Set(KeyEmail, "ada@example.com"))
	require.NoError(t, s.Set(KeyTheme, "dark"))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	reopened, err := OpenFileStorage(path)
	require.NoError(t, err)
	v, ok := reopened.Get(KeyEmail)
	assert.True(t, ok)
	assert.Equal(t, "ada@example.com", v)

	require.NoError(t, reopened.Delete(KeyToken, KeyEmail))
	again, err := OpenFileStorage(path)
	require.NoError(t, err)
	_, ok = again.Get(KeyToken)
	assert.False(t, ok)
	v, _ = again.Get(KeyTheme)
	assert.Equal(t, "dark", v)
}

func TestFileStorage_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.toml")
	require.NoError(t, os.WriteFile(path, []byte("token = "), 0o600))
	_, err := OpenFileStorage(path)
	assert.Error(t, err)
}
