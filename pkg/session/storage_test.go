package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DhruvilJayani/coursecompass/pkg/logger"
)

func TestFileStorageRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	store := NewFileStorage(filepath.Join(dir, "state.json"))

	_, ok, err := store.Get(KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(KeyToken, json.RawMessage(`"tok"`)))
	require.NoError(t, store.Set(KeyTheme, json.RawMessage(`"dark"`)))
	v, ok, err := store.Get(KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `"tok"`, string(v))

	require.NoError(t, store.Remove(KeyToken, "absent"))
	_, ok, err = store.Get(KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStorageQuarantinesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	store := NewFileStorage(path, WithStorageLogger(logger.Discard()))

	_, ok, err := store.Get(KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	moved, err := os.ReadFile(path + ".corrupt")
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(moved))

	require.NoError(t, store.Set(KeyTheme, json.RawMessage(`"dark"`)))
	v, ok, err := store.Get(KeyTheme)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `"dark"`, string(v))
}

func TestMemoryStorageCopies(t *testing.T) {
	store := NewMemoryStorage()
	raw := json.RawMessage(`"tok"`)
	require.NoError(t, store.Set(KeyToken, raw))
	raw[1] = 'X'

	v, ok, err := store.Get(KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `"tok"`, string(v))
}
