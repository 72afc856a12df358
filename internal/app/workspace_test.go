package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vterm/internal/ai"
	"vterm/internal/config"
	"vterm/internal/kv"
	"vterm/internal/project"
	"vterm/internal/session"
	"vterm/internal/shell"
)

type scriptedClient struct {
	mu      sync.Mutex
	replies []string
	err     error
	seen    [][]ai.Message
}

func (c *scriptedClient) Complete(_ context.Context, msgs []ai.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, msgs)
	if c.err != nil {
		return "", c.err
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return reply, nil
}

func (c *scriptedClient) Provider() string { return "scripted" }
func (c *scriptedClient) Model() string    { return "test" }

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Project.Name = "My Shop"
	cfg.Project.ID = "shop"
	cfg.Storage.Backend = "memory"
	cfg.Patch.ChunkDelay = 0
	return cfg
}

func open(t *testing.T, cfg *config.Config, files project.Store, client ai.Client) *Workspace {
	t.Helper()
	w, err := NewBuilder(cfg).
		WithStateStore(kv.NewMemory()).
		WithProjectStore(files).
		WithAIClient(client).
		Build(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func lastEntries(w *Workspace, n int) []session.Entry {
	h := w.Session().Snapshot().History
	if len(h) < n {
		return h
	}
	return h[len(h)-n:]
}

func TestOpenMirrorsProject(t *testing.T) {
	files := project.NewMemoryStore()
	_, err := files.Create(context.Background(), "shop", "src/index.js", "hello", "javascript")
	require.NoError(t, err)

	w := open(t, testConfig(), files, nil)
	st := w.Session().Snapshot()
	assert.Equal(t, "/home/user/projects/my_shop", st.Cwd)

	res, err := w.Submit(context.Background(), "cat src/index.js")
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text)
}

func TestSubmitSignals(t *testing.T) {
	ctx := context.Background()
	files := project.NewMemoryStore()
	for _, name := range []string{"a.js", "b.css"} {
		_, err := files.Create(ctx, "shop", name, "x", "")
		require.NoError(t, err)
	}
	w := open(t, testConfig(), files, nil)

	res, err := w.Submit(ctx, "npm run dev")
	require.NoError(t, err)
	assert.Equal(t, shell.KindRunDevServer, res.Kind)
	assert.Contains(t, lastEntries(w, 1)[0].Content, "Network")

	res, err = w.Submit(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, shell.KindRunPistonAPI, res.Kind)
	assert.Equal(t, session.Entry{Type: session.EntryError, Content: "run: no execution engine configured"}, lastEntries(w, 1)[0])

	res, err = w.Submit(ctx, "rm -rf *")
	require.NoError(t, err)
	assert.Equal(t, shell.KindDeleteAllFiles, res.Kind)
	assert.Equal(t, "Deleted 2 file(s) from My Shop.", lastEntries(w, 1)[0].Content)

	left, err := files.List(ctx, "shop")
	require.NoError(t, err)
	assert.Empty(t, left)

	res, err = w.Submit(ctx, "ls")
	require.NoError(t, err)
	assert.Equal(t, "", res.Text)
}

func TestAskProposesPatches(t *testing.T) {
	ctx := context.Background()
	client := &scriptedClient{replies: []string{
		"Added a header.\n# File: index.html\n```html\n<h1>Hi</h1>\n```",
		"Styled it.\n# File: style.css\n```css\nh1{}\n```",
	}}
	w := open(t, testConfig(), project.NewMemoryStore(), client)
	w.SetActive("index.html")

	reply, err := w.Ask(ctx, "make a page")
	require.NoError(t, err)
	assert.Equal(t, "Added a header.", reply.Text)
	require.Len(t, reply.Patches, 1)
	assert.Empty(t, w.Files(), "nothing written before review")

	require.NoError(t, w.Accept(ctx, reply.Patches[0]))
	res, err := w.Submit(ctx, "cat index.html")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hi</h1>", res.Text)

	_, err = w.Ask(ctx, "style it")
	require.NoError(t, err)
	second := client.seen[1]
	assert.Equal(t, "WORKSPACE: index.html\nACTIVE: index.html", second[1].Content)
	assert.Equal(t, ai.Message{Role: ai.RoleAssistant, Content: "Added a header."}, second[3])
	assert.Equal(t, ai.Message{Role: ai.RoleUser, Content: "style it"}, second[len(second)-1])

	pending := w.Engine().Pending()
	require.Len(t, pending, 1)
	assert.True(t, w.Reject(pending[0]))
	assert.Len(t, w.Files(), 1)
}

func TestAskAutoExecute(t *testing.T) {
	cfg := testConfig()
	cfg.Patch.AutoExecute = true
	client := &scriptedClient{replies: []string{"# File: a.js\n```js\n1\n```\n# File: b.js\n```js\n2\n```"}}
	w := open(t, cfg, project.NewMemoryStore(), client)

	reply, err := w.Ask(context.Background(), "two files")
	require.NoError(t, err)
	assert.Len(t, reply.Patches, 2)
	assert.Len(t, w.Files(), 2)
	assert.Empty(t, w.Engine().Pending())
}

func TestAskErrors(t *testing.T) {
	w := open(t, testConfig(), project.NewMemoryStore(), nil)
	_, err := w.Ask(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNoModel)

	failing := &scriptedClient{err: errors.New("model offline")}
	w = open(t, testConfig(), project.NewMemoryStore(), failing)
	_, err = w.Ask(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")
}

func TestBuildFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Storage.Backend = "sqlite"
	cfg.Storage.Path = dir
	cfg.Project.Backend = "local"
	cfg.Project.Root = filepath.Join(dir, "projects")
	cfg.AI.Provider = "none"

	w, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	_, err = w.Submit(context.Background(), "echo hi > note.txt")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.FileExists(t, filepath.Join(dir, "vterm.db"))

	w, err = Open(context.Background(), cfg)
	require.NoError(t, err)
	defer w.Close()
	res, err := w.Submit(context.Background(), "history")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "echo hi > note.txt")
	assert.False(t, w.HasModel())
}

func TestWatchReloadsLocalProject(t *testing.T) {
	dir := t.TempDir()
	store, err := project.NewLocalStore(dir, nil)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Project.Backend = "local"
	cfg.Project.Root = dir
	cfg.Project.Watch = true
	w := open(t, cfg, store, nil)

	require.True(t, w.Watch(context.Background()))
	projectDir, err := store.Dir("shop")
	require.NoError(t, err)
	// Give the watcher time to register the tree, then write once so the
	// debounce window can settle.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "late.txt"), []byte("from disk"), 0644))
	assert.Eventually(t, func() bool {
		res, err := w.Submit(context.Background(), "cat late.txt")
		return err == nil && res.Text == "from disk"
	}, 5*time.Second, 100*time.Millisecond)
}

func TestWatchIgnoredForMemoryStore(t *testing.T) {
	w := open(t, testConfig(), project.NewMemoryStore(), nil)
	assert.False(t, w.Watch(context.Background()))
}

func TestBackgroundStop(t *testing.T) {
	bg := newBackground()
	release := make(chan struct{})
	require.True(t, bg.start("watch", func() { <-release }))
	require.True(t, bg.start("quick", func() {}))

	assert.Eventually(t, func() bool {
		bg.mu.Lock()
		defer bg.mu.Unlock()
		_, running := bg.running["quick"]
		return !running
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"watch"}, bg.stop(10*time.Millisecond))
	assert.False(t, bg.start("late", func() {}))

	close(release)
	assert.Empty(t, bg.stop(time.Second))
}
