package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStorage(dir)
	require.NoError(t, err)

	_, ok, err := st.Get("absent")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Set("cart_abc", `[{"productId":"P001"}]`))

	got, ok, err := st.Get("cart_abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"productId":"P001"}]`, got)

	// Overwrite replaces the previous value.
	require.NoError(t, st.Set("cart_abc", "[]"))
	got, _, err = st.Get("cart_abc")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestFileStorage_SetLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStorage(dir)
	require.NoError(t, err)

	require.NoError(t, st.Set("cart_abc", "v1"))
	require.NoError(t, st.Set("cart_abc", "v2"))

	// Writes go through a rename; only the final file remains.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cart_abc.json", entries[0].Name())

	got, ok, err := st.Get("cart_abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", got)
}

func TestFileStorage_SanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStorage(dir)
	require.NoError(t, err)

	// Path separators must not escape the storage directory.
	require.NoError(t, st.Set("../evil/key", "v"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "___evil_key.json", entries[0].Name())

	got, ok, err := st.Get("../evil/key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestFileStorage_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "carts")
	_, err := NewFileStorage(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestMemory(t *testing.T) {
	st := NewMemory()

	_, ok, err := st.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Set("k", "v1"))
	require.NoError(t, st.Set("k", "v2"))

	got, ok, err := st.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", got)
}
