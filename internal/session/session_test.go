package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vterm/internal/kv"
	"vterm/internal/project"
	"vterm/internal/shell"
	"vterm/internal/vfs"
)

func run(t *testing.T, s *Session, line string) shell.Result {
	t.Helper()
	res, err := s.Run(line)
	require.NoError(t, err)
	return res
}

func TestRunRecordsHistory(t *testing.T) {
	s := New(kv.NewMemory(), Config{})
	run(t, s, "cd /tmp")
	run(t, s, "pwd")
	run(t, s, "cat nope")
	run(t, s, "   ")

	st := s.Snapshot()
	assert.Equal(t, []Entry{
		{Type: EntryInput, Content: "cd /tmp", Cwd: "/home/user"},
		{Type: EntryInput, Content: "pwd", Cwd: "/tmp"},
		{Type: EntryOutput, Content: "/tmp"},
		{Type: EntryInput, Content: "cat nope", Cwd: "/tmp"},
		{Type: EntryError, Content: "cat: nope: No such file or directory"},
	}, st.History)
	assert.Equal(t, []string{"cd /tmp", "pwd", "cat nope"}, st.Log)
}

func TestClearKeepsCommandLog(t *testing.T) {
	s := New(kv.NewMemory(), Config{})
	run(t, s, "whoami")
	res := run(t, s, "clear")
	assert.Equal(t, shell.KindClearScreen, res.Kind)
	assert.Empty(t, s.Snapshot().History)

	out := run(t, s, "history")
	assert.Equal(t, "  1  whoami\n  2  clear\n  3  history", out.Text)
}

func TestSignalsAddNoOutputEntry(t *testing.T) {
	s := New(kv.NewMemory(), Config{})
	res := run(t, s, "npm run dev")
	assert.Equal(t, shell.KindRunDevServer, res.Kind)
	assert.Equal(t, []Entry{{Type: EntryInput, Content: "npm run dev", Cwd: "/home/user"}}, s.Snapshot().History)

	require.NoError(t, s.Append(Entry{Type: EntryOutput, Content: "ready"}))
	assert.Len(t, s.Snapshot().History, 2)
}

func TestPersistAndRestore(t *testing.T) {
	store := kv.NewMemory()
	s := New(store, Config{})
	run(t, s, "mkdir -p work/src")
	run(t, s, "cd work")
	run(t, s, `echo "x" > src/a.txt`)

	raw, ok, err := store.Get(DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"currentDirectory":"/home/user/work"`)

	restored := New(store, Config{})
	require.NoError(t, restored.Restore())
	assert.Equal(t, s.Snapshot(), restored.Snapshot())
	assert.Equal(t, "x", run(t, restored, "cat src/a.txt").Text)
}

func TestRestoreLegacyAndCorrupt(t *testing.T) {
	store := kv.NewMemory()
	fs, err := vfs.Encode(vfs.NewSkeleton("user"))
	require.NoError(t, err)
	require.NoError(t, store.Set(DefaultKey, `{"fs":`+string(fs)+`,"cwd":"/tmp","user":"user","history":[]}`))

	s := New(store, Config{})
	require.NoError(t, s.Restore())
	assert.Equal(t, "/tmp", s.Snapshot().Cwd)

	s = New(store, Config{})
	run(t, s, "cd /tmp")
	require.NoError(t, store.Set(DefaultKey, `{"fs":{"type":"file"}}`))
	require.NoError(t, s.Restore())
	assert.Equal(t, "/home/user", s.Snapshot().Cwd, "corrupt state falls back to the initial session")
}

func TestReset(t *testing.T) {
	store := kv.NewMemory()
	s := New(store, Config{})
	run(t, s, "mkdir junk")
	require.NoError(t, s.Reset())

	_, ok, _ := store.Get(DefaultKey)
	assert.False(t, ok)
	st := s.Snapshot()
	assert.Equal(t, vfs.NewSkeleton("user"), st.FS)
	assert.Empty(t, st.History)
	assert.Empty(t, st.Log)
}

type failingStore struct{ kv.Store }

func (failingStore) Set(string, string) error { return errors.New("disk full") }

func TestRunReportsPersistFailure(t *testing.T) {
	s := New(failingStore{kv.NewMemory()}, Config{})
	res, err := s.Run("mkdir a")
	assert.Error(t, err)
	assert.False(t, res.Err)
	assert.NotNil(t, s.Snapshot().FS.Lookup([]string{"home", "user", "a"}), "the command still ran")
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "my_cool_app", Slug("My  Cool\tApp"))
	assert.Equal(t, "demo", Slug(" Demo "))
	assert.Equal(t, "/home/user/projects/my_app", ProjectPath("user", "My App"))
}

func TestSyncProjectFiles(t *testing.T) {
	s := New(kv.NewMemory(), Config{})
	run(t, s, "touch /tmp/keep")
	files := []project.File{
		{Name: "index.html", Content: "<h1>hi</h1>"},
		{Name: "src/app.js", Content: "console.log(1)"},
	}

	require.NoError(t, s.SyncProjectFiles("My App", files))
	once := s.Snapshot().FS
	require.NoError(t, s.SyncProjectFiles("My App", files))
	assert.Equal(t, once, s.Snapshot().FS, "sync is idempotent")

	run(t, s, "cd ~/projects/my_app")
	assert.Equal(t, "index.html  src", run(t, s, "ls").Text)
	assert.Equal(t, "console.log(1)", run(t, s, "cat src/app.js").Text)
	assert.NotNil(t, s.Snapshot().FS.Lookup([]string{"tmp", "keep"}), "other parts of the tree are untouched")

	run(t, s, "touch stray.txt")
	require.NoError(t, s.SyncProjectFiles("My App", files[:1]))
	assert.Equal(t, "index.html", run(t, s, "ls").Text, "the mirror is rebuilt, not merged")
}

func TestSyncFailureResetsTree(t *testing.T) {
	s := New(kv.NewMemory(), Config{})
	run(t, s, "touch /tmp/keep")
	err := s.SyncProjectFiles("App", []project.File{
		{Name: "lib", Content: "file"},
		{Name: "lib/x.js", Content: "nested under a file"},
	})
	require.Error(t, err)
	assert.Equal(t, vfs.NewSkeleton("user"), s.Snapshot().FS)
}

func TestChdir(t *testing.T) {
	store := kv.NewMemory()
	s := New(store, Config{})

	ok, err := s.Chdir("/tmp")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/tmp", s.Snapshot().Cwd)

	ok, err = s.Chdir("/nowhere")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "/tmp", s.Snapshot().Cwd)

	restored := New(store, Config{})
	require.NoError(t, restored.Restore())
	assert.Equal(t, "/tmp", restored.Snapshot().Cwd)
}
