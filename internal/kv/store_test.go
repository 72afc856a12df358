package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	files, err := NewFileStore(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"file":   files,
		"sqlite": db,
	}
}

func TestStores(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get("vterm_terminal_state")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set("vterm_terminal_state", `{"a":1}`))
			v, ok, err := s.Get("vterm_terminal_state")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"a":1}`, v)

			require.NoError(t, s.Set("vterm_terminal_state", ""))
			v, ok, err = s.Get("vterm_terminal_state")
			require.NoError(t, err)
			assert.True(t, ok, "empty values are still present")
			assert.Equal(t, "", v)

			require.NoError(t, s.Remove("vterm_terminal_state"))
			require.NoError(t, s.Remove("vterm_terminal_state"), "removing twice is fine")
			_, ok, err = s.Get("vterm_terminal_state")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestInvalidKeys(t *testing.T) {
	for name, s := range stores(t) {
		for _, key := range []string{"", "../escape", "a/b", ".."} {
			assert.ErrorIs(t, s.Set(key, "x"), ErrInvalidKey, "%s: %q", name, key)
		}
	}
}

func TestSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.Set("k", "v"))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()
	v, ok, err := db.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}
