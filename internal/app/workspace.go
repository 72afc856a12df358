// Package app wires the terminal session, project store, patch engine and
// model client into one Workspace, the context every front end works with.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"vterm/internal/ai"
	"vterm/internal/config"
	"vterm/internal/logging"
	"vterm/internal/patch"
	"vterm/internal/project"
	"vterm/internal/session"
	"vterm/internal/shell"
	"vterm/internal/watcher"
)

// maxChatHistory bounds the chat kept in memory; only the last
// history_window turns are ever sent.
const maxChatHistory = 100

// Reply is the outcome of Ask.
type Reply struct {
	Text    string // what to show in the chat
	Raw     string // the full model output
	Patches []*patch.Patch
}

// Workspace is the application context: one project and one terminal.
type Workspace struct {
	cfg     *config.Config
	files   project.Store
	session *session.Session
	engine  *patch.Engine
	client  ai.Client
	closers []io.Closer
	bg      *background

	mu     sync.Mutex
	chat   []ai.Message
	active string
	cancel context.CancelFunc
}

// Open builds a workspace from cfg.
func Open(ctx context.Context, cfg *config.Config) (*Workspace, error) {
	return NewBuilder(cfg).Build(ctx)
}

func (w *Workspace) Config() *config.Config      { return w.cfg }
func (w *Workspace) Session() *session.Session   { return w.session }
func (w *Workspace) Engine() *patch.Engine       { return w.engine }
func (w *Workspace) Files() []project.File       { return w.engine.Files() }
func (w *Workspace) HasModel() bool              { return w.client != nil }
func (w *Workspace) ProjectStore() project.Store { return w.files }

// SetActive records the file the user is looking at.
func (w *Workspace) SetActive(name string) {
	w.mu.Lock()
	w.active = name
	w.mu.Unlock()
}

// Submit runs one shell line and acts on the signal it returns, if any.
func (w *Workspace) Submit(ctx context.Context, line string) (res shell.Result, err error) {
	defer recoverTo("submit", &err)

	res, err = w.session.Run(line)
	if serr := w.handleSignal(ctx, res); serr != nil {
		err = errors.Join(err, serr)
	}
	return res, err
}

// Reload fetches the project files and mirrors them into the terminal.
func (w *Workspace) Reload(ctx context.Context) error {
	_, err := w.engine.Refresh(ctx)
	return err
}

func (w *Workspace) syncFiles(files []project.File) {
	if err := w.session.SyncProjectFiles(w.cfg.Project.Name, files); err != nil {
		w.session.Append(session.Entry{Type: session.EntryError, Content: "sync: " + err.Error()})
	}
}

// Ask sends prompt to the model with the chat so far and proposes the
// patches found in the reply. With patch.auto_execute they are applied
// before Ask returns.
func (w *Workspace) Ask(ctx context.Context, prompt string) (Reply, error) {
	if w.client == nil {
		return Reply{}, ErrNoModel
	}

	files := w.engine.Files()
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}

	w.mu.Lock()
	msgs := ai.BuildMessages(w.chat, ai.Workspace{Files: names, Active: w.active}, prompt, w.cfg.AI.HistoryWindow)
	w.mu.Unlock()

	raw, err := w.client.Complete(ctx, msgs)
	if err != nil {
		return Reply{}, fmt.Errorf("ask %s: %w", w.client.Provider(), err)
	}

	w.mu.Lock()
	w.chat = append(w.chat,
		ai.Message{Role: ai.RoleUser, Content: prompt},
		ai.Message{Role: ai.RoleAssistant, Content: raw},
	)
	if len(w.chat) > maxChatHistory {
		w.chat = w.chat[len(w.chat)-maxChatHistory:]
	}
	w.mu.Unlock()

	reply := Reply{Text: ai.DisplayText(raw), Raw: raw, Patches: w.engine.Propose(raw)}
	logging.Info("model replied", "provider", w.client.Provider(), "patches", len(reply.Patches))

	if w.cfg.Patch.AutoExecute && len(reply.Patches) > 0 {
		if err := w.engine.ApplyAll(ctx, reply.Patches); err != nil {
			return reply, err
		}
	}
	return reply, nil
}

// Propose parses text as if the model had returned it.
func (w *Workspace) Propose(text string) []*patch.Patch {
	return w.engine.Propose(text)
}

// Accept applies p.
func (w *Workspace) Accept(ctx context.Context, p *patch.Patch) error {
	return w.engine.Apply(ctx, p)
}

// AcceptAll applies every pending patch.
func (w *Workspace) AcceptAll(ctx context.Context) error {
	return w.engine.ApplyAll(ctx, w.engine.Pending())
}

// Reject discards p.
func (w *Workspace) Reject(p *patch.Patch) bool {
	return w.engine.Reject(p)
}

// Watch starts reloading the project whenever its files change on disk. It
// only does something for a watched local project.
func (w *Workspace) Watch(ctx context.Context) bool {
	local, ok := w.files.(*project.LocalStore)
	if !ok || !w.cfg.Project.Watch {
		return false
	}

	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	return w.bg.start("watch", func() {
		err := local.Watch(ctx, w.cfg.Project.ID, watcher.DefaultConfig(), func(changed []string) {
			logging.Debug("project changed on disk", "files", changed)
			if err := w.Reload(ctx); err != nil {
				logging.Warn("reload after change failed", "error", err)
			}
		})
		if err != nil && ctx.Err() == nil {
			logging.Error("project watcher stopped", "error", err)
		}
	})
}

// Close stops background work and releases stores.
func (w *Workspace) Close() error {
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	if stuck := w.bg.stop(closeTimeout); len(stuck) > 0 {
		logging.Warn("background work still running at shutdown", "tasks", stuck)
	}

	var errs []error
	for _, c := range w.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
