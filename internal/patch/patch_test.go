package patch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vterm/internal/project"
)

const twoFiles = "Done.\n# File: a.js\n```js\nconsole.log(1)\n```\n# File: b.css\n```css\nbody{}\n```"

func TestParseMarked(t *testing.T) {
	patches := Parse(twoFiles, nil)
	require.Len(t, patches, 2)

	assert.Equal(t, "a.js", patches[0].FileName)
	assert.Equal(t, "console.log(1)", patches[0].NewContent)
	assert.Equal(t, "b.css", patches[1].FileName)
	assert.Equal(t, "body{}", patches[1].NewContent)
	for _, p := range patches {
		assert.True(t, p.IsNew)
		assert.Equal(t, 1, p.Added)
		assert.Equal(t, 0, p.Removed)
		assert.False(t, p.Inferred)
		assert.NotEmpty(t, p.ID)
	}
}

func TestParseMarkerSpellings(t *testing.T) {
	text := "FILE: one.py\n```python\nprint(1)\n```\n" +
		"File: two.py\n```\nprint(2)\n```\n" +
		"#File: three.py\n```py\nprint(3)\n```\n" +
		"#file: four.py\n```\nprint(4)\n```\n" +
		"## file:five.py (updated)\n```\nprint(5)\n```"
	patches := Parse(text, nil)
	var names []string
	for _, p := range patches {
		names = append(names, p.FileName)
	}
	assert.Equal(t, []string{"one.py", "two.py", "three.py", "four.py", "five.py"}, names)
	assert.Equal(t, "print(5)", patches[4].NewContent)
}

func TestParseRawBlocks(t *testing.T) {
	text := "# File: plain.txt\nhello\nworld\n# File: inline.js ```js console.log(1)```\n# File: empty.js\n```js\n```\n"
	patches := Parse(text, nil)
	require.Len(t, patches, 2, "blocks with no content are dropped")
	assert.Equal(t, "hello\nworld", patches[0].NewContent)
	assert.Equal(t, 2, patches[0].Added)
	assert.Equal(t, "inline.js", patches[1].FileName)
	assert.Equal(t, "console.log(1)", patches[1].NewContent)
}

func TestParseFallback(t *testing.T) {
	patches := Parse("Here you go:\n```python\nprint('hi')\n```", nil)
	require.Len(t, patches, 1)
	assert.Equal(t, "ai_node_1.py", patches[0].FileName)
	assert.True(t, patches[0].Inferred)
	assert.True(t, patches[0].IsNew)

	patches = Parse("```\na\n```\n```javascript\nb\n```\n```go\nc\n```\n```shell-session\nd\n```", nil)
	var names []string
	for _, p := range patches {
		names = append(names, p.FileName)
	}
	assert.Equal(t, []string{"ai_node_1.js", "ai_node_2.js", "ai_node_3.go", "ai_node_4.shell-session"}, names)
}

func TestParseMarkersWinOverFallback(t *testing.T) {
	text := "```js\nstray()\n```\n# File: real.js\n```js\nreal()\n```"
	patches := Parse(text, nil)
	require.Len(t, patches, 1)
	assert.Equal(t, "real.js", patches[0].FileName)
}

func TestParseNothing(t *testing.T) {
	assert.Empty(t, Parse("Just words, no code.", nil))
	assert.Empty(t, Parse("", nil))
}

func TestLineDeltas(t *testing.T) {
	existing := []project.File{{Name: "X.js", Content: "1\n2\n3\n4\n5"}}

	grow := Parse("# File: x.js\n```js\n1\n2\n3\n4\n5\n6\n7\n8\n```", existing)
	require.Len(t, grow, 1)
	assert.False(t, grow[0].IsNew)
	assert.Equal(t, 3, grow[0].Added)
	assert.Equal(t, 0, grow[0].Removed)

	existing[0].Content = "1\n2\n3\n4\n5\n6\n7\n8"
	shrink := Parse("# File: x.js\n```js\n1\n2\n3\n4\n5\n```", existing)
	require.Len(t, shrink, 1)
	assert.Equal(t, 0, shrink[0].Added)
	assert.Equal(t, 3, shrink[0].Removed)
}

func TestChunks(t *testing.T) {
	assert.Equal(t, []string{""}, Chunks("", 150))
	assert.Equal(t, []string{"abc"}, Chunks("abc", 150))

	text := strings.Repeat("x", 400)
	chunks := Chunks(text, 150)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 150)
	assert.Len(t, chunks[1], 300)
	assert.Equal(t, text, chunks[2])

	exact := strings.Repeat("y", 300)
	assert.Len(t, Chunks(exact, 150), 2)

	multi := strings.Repeat("é", 10)
	for i, c := range Chunks(multi, 3) {
		assert.True(t, strings.HasPrefix(multi, c))
		assert.Equal(t, 0, len(c)%2, "chunk %d cuts a rune", i)
	}
}

// recordingStore counts writes so rejection can be checked.
type recordingStore struct {
	*project.MemoryStore
	mu      sync.Mutex
	writes  int
	failing bool
}

func (r *recordingStore) Update(ctx context.Context, id, content string) error {
	r.mu.Lock()
	r.writes++
	failing := r.failing
	r.mu.Unlock()
	if failing {
		return errors.New("backend unavailable")
	}
	return r.MemoryStore.Update(ctx, id, content)
}

func (r *recordingStore) Create(ctx context.Context, projectID, name, content, language string) (project.File, error) {
	r.mu.Lock()
	r.writes++
	r.mu.Unlock()
	return r.MemoryStore.Create(ctx, projectID, name, content, language)
}

type recordingView struct {
	mu     sync.Mutex
	shown  []string
	closed bool
}

func (v *recordingView) Show(_ project.File, content string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return false
	}
	v.shown = append(v.shown, content)
	return true
}

func newEngine(t *testing.T) (*Engine, *recordingStore) {
	t.Helper()
	store := &recordingStore{MemoryStore: project.NewMemoryStore()}
	e := NewEngine(store, "demo", Options{ChunkSize: 4})
	_, err := e.Refresh(context.Background())
	require.NoError(t, err)
	return e, store
}

func TestApplyCreatesAndTypes(t *testing.T) {
	e, _ := newEngine(t)
	view := &recordingView{}
	e.SetView(view)

	var synced [][]project.File
	e.opts.OnSync = func(files []project.File) { synced = append(synced, files) }

	patches := e.Propose("# File: app.js\n```js\nconsole.log(42)\n```")
	require.Len(t, patches, 1)
	require.NoError(t, e.Apply(context.Background(), patches[0]))

	assert.Empty(t, e.Pending())
	files := e.Files()
	require.Len(t, files, 1)
	assert.Equal(t, "app.js", files[0].Name)
	assert.Equal(t, "javascript", files[0].Language)
	assert.Equal(t, "console.log(42)", files[0].Content)
	require.NotEmpty(t, synced)

	assert.Equal(t, []string{"cons", "console.", "console.log(", "console.log(42)"}, view.shown)
}

func TestApplyWithoutViewStillPersists(t *testing.T) {
	e, _ := newEngine(t)
	view := &recordingView{closed: true}
	e.SetView(view)

	patches := e.Propose(twoFiles)
	require.NoError(t, e.Apply(context.Background(), patches[1]))
	assert.Empty(t, view.shown)

	files := e.Files()
	require.Len(t, files, 1)
	assert.Equal(t, "body{}", files[0].Content)
	assert.Equal(t, []*Patch{patches[0]}, e.Pending())
}

func TestApplyUpdatesExistingCaseInsensitively(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()
	_, err := store.MemoryStore.Create(ctx, "demo", "App.JS", "old", "javascript")
	require.NoError(t, err)
	_, err = e.Refresh(ctx)
	require.NoError(t, err)

	patches := e.Propose("# File: app.js\n```js\nnew\n```")
	require.Len(t, patches, 1)
	assert.False(t, patches[0].IsNew)
	require.NoError(t, e.Apply(ctx, patches[0]))

	files := e.Files()
	require.Len(t, files, 1)
	assert.Equal(t, "App.JS", files[0].Name)
	assert.Equal(t, "new", files[0].Content)
}

func TestApplyFailureKeepsPatchPending(t *testing.T) {
	e, store := newEngine(t)
	patches := e.Propose(twoFiles)
	store.failing = true

	err := e.Apply(context.Background(), patches[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend unavailable")
	assert.Len(t, e.Pending(), 2)
}

func TestRejectTouchesNothing(t *testing.T) {
	e, store := newEngine(t)
	patches := e.Propose(twoFiles)

	assert.True(t, e.Reject(patches[0]))
	assert.False(t, e.Reject(patches[0]), "already gone")
	assert.Equal(t, []*Patch{patches[1]}, e.Pending())
	assert.Equal(t, 0, store.writes)

	files, err := store.List(context.Background(), "demo")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRemovalIsByIdentity(t *testing.T) {
	e, _ := newEngine(t)
	patches := e.Propose("# File: same.js\n```\none\n```\n# File: same.js\n```\ntwo\n```")
	require.Len(t, patches, 2)

	require.NoError(t, e.Apply(context.Background(), patches[1]))
	assert.Equal(t, []*Patch{patches[0]}, e.Pending())
}

func TestApplyAllConcurrently(t *testing.T) {
	e, _ := newEngine(t)
	e.SetView(&recordingView{})
	text := "# File: a.js\n```\na\n```\n# File: A.js\n```\nA\n```\n# File: b.js\n```\nb\n```\n# File: c/d.js\n```\nd\n```"
	patches := e.Propose(text)
	require.Len(t, patches, 4)

	require.NoError(t, e.ApplyAll(context.Background(), patches))
	assert.Empty(t, e.Pending())

	files := e.Files()
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Len(t, names, 3, "a.js and A.js share one file: %v", names)
}

func TestApplyIgnoresCancellation(t *testing.T) {
	e, _ := newEngine(t)
	patches := e.Propose(twoFiles)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, e.Apply(ctx, patches[0]))
	assert.Len(t, e.Files(), 1)
}

func TestPreview(t *testing.T) {
	files := []project.File{{Name: "x.js", Content: "a\nb\nc"}}
	p := Parse("# File: x.js\n```\na\nB\nc\nd\n```", files)[0]
	assert.Equal(t, "--- x.js\n+++ x.js\n a\n-b\n+B\n c\n+d", Preview(p, files))

	n := Parse("# File: new.js\n```\nhi\n```", nil)[0]
	assert.Equal(t, "--- /dev/null\n+++ new.js\n+hi", Preview(n, nil))
}

func TestApplyMatchesUncleanName(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()
	_, err := store.MemoryStore.Create(ctx, "demo", "a.js", "old", "javascript")
	require.NoError(t, err)
	_, err = e.Refresh(ctx)
	require.NoError(t, err)

	patches := e.Propose("# File: ./a.js\n```js\nnew\n```")
	require.Len(t, patches, 1)
	require.NoError(t, e.Apply(ctx, patches[0]))

	files := e.Files()
	require.Len(t, files, 1)
	assert.Equal(t, "a.js", files[0].Name)
	assert.Equal(t, "new", files[0].Content)
}
