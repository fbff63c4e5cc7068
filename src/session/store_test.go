package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	return store
}

func TestStoreSetGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set(KeyToken, "abc123"))
	v, ok := store.Get(KeyToken)
	assert.True(t, ok)
	assert.Equal(t, "abc123", v)

	_, ok = store.Get(KeyCompanyID)
	assert.False(t, ok)
}

func TestStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyToken, "tok"))
	require.NoError(t, store.Set(KeyUserRole, "ADMIN"))

	reopened, err := NewStore(path)
	require.NoError(t, err)
	assert.Equal(t, "tok", reopened.Token())
	role, ok := reopened.Role()
	assert.True(t, ok)
	assert.Equal(t, "ADMIN", role)
}

func TestStoreClear(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set(KeyToken, "tok"))
	require.NoError(t, store.Set(KeyCompanyID, "c1"))

	require.NoError(t, store.Clear())

	assert.Empty(t, store.Token())
	assert.Empty(t, store.CompanyID())
}

func TestStoreExpirationTime(t *testing.T) {
	store := newTestStore(t)

	_, ok := store.ExpirationTime()
	assert.False(t, ok, "missing key should not parse")

	require.NoError(t, store.SetExpirationTime(1700000000000))
	ms, ok := store.ExpirationTime()
	assert.True(t, ok)
	assert.Equal(t, int64(1700000000000), ms)

	require.NoError(t, store.Set(KeyExpirationTime, "not-a-number"))
	_, ok = store.ExpirationTime()
	assert.False(t, ok)
}

func TestStoreFlushLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "session.json"))
	require.NoError(t, err)

	// Writes go through a temp file and a rename; after each one the
	// directory must hold only the session file itself.
	require.NoError(t, store.Set(KeyToken, "tok"))
	require.NoError(t, store.Set(KeyCompanyID, "c1"))
	require.NoError(t, store.Clear())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "session.json", entries[0].Name())

	info, err := os.Stat(filepath.Join(dir, "session.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStoreFlushReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyToken, "first"))
	require.NoError(t, store.Set(KeyToken, "second"))

	reopened, err := NewStore(path)
	require.NoError(t, err)
	assert.Equal(t, "second", reopened.Token())
}

func TestStoreCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "session.json")
	store, err := NewStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyDarkMode, "true"))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
