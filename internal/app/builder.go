package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"vterm/internal/ai"
	"vterm/internal/config"
	"vterm/internal/kv"
	"vterm/internal/logging"
	"vterm/internal/patch"
	"vterm/internal/project"
	"vterm/internal/session"
	"vterm/internal/ssh"
)

// Builder assembles a Workspace from configuration. Stores and the model
// client may be injected instead of built.
type Builder struct {
	cfg *config.Config

	state   kv.Store
	files   project.Store
	client  ai.Client
	noAI    bool
	closers []io.Closer

	mu          sync.Mutex
	buildErrors []error
}

// NewBuilder creates a builder for cfg.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// WithStateStore uses s for the session snapshot.
func (b *Builder) WithStateStore(s kv.Store) *Builder {
	b.state = s
	return b
}

// WithProjectStore uses s for project files.
func (b *Builder) WithProjectStore(s project.Store) *Builder {
	b.files = s
	return b
}

// WithAIClient uses c for completions. A nil c disables the model.
func (b *Builder) WithAIClient(c ai.Client) *Builder {
	b.client = c
	b.noAI = c == nil
	return b
}

// Build creates the workspace, restores the saved session and mirrors the
// project into it.
func (b *Builder) Build(ctx context.Context) (*Workspace, error) {
	if err := b.initStateStore(); err != nil {
		b.addError(err)
		return nil, b.finalizeError()
	}
	if err := b.initProjectStore(); err != nil {
		b.addError(err)
		return nil, b.finalizeError()
	}
	if err := b.initClient(ctx); err != nil {
		b.addError(err)
		return nil, b.finalizeError()
	}
	return b.assemble(ctx)
}

func (b *Builder) dataDir() string {
	if b.cfg.Storage.Path != "" {
		return b.cfg.Storage.Path
	}
	return config.DataDir()
}

func (b *Builder) initStateStore() error {
	if b.state != nil {
		return nil
	}
	switch b.cfg.Storage.Backend {
	case "memory":
		b.state = kv.NewMemory()
	case "file":
		store, err := kv.NewFileStore(filepath.Join(b.dataDir(), "state"))
		if err != nil {
			return fmt.Errorf("open state directory: %w", err)
		}
		b.state = store
	case "sqlite":
		path := b.dataDir()
		if filepath.Ext(path) == "" {
			if err := os.MkdirAll(path, 0700); err != nil {
				return fmt.Errorf("create data directory: %w", err)
			}
			path = filepath.Join(path, "vterm.db")
		}
		store, err := kv.OpenSQLite(path)
		if err != nil {
			return err
		}
		b.state = store
		b.closers = append(b.closers, store)
	default:
		return fmt.Errorf("unknown storage backend: %s", b.cfg.Storage.Backend)
	}
	return nil
}

func (b *Builder) initProjectStore() error {
	if b.files != nil {
		return nil
	}
	pc := b.cfg.Project
	switch pc.Backend {
	case "memory":
		b.files = project.NewMemoryStore()
	case "local":
		store, err := project.NewLocalStore(pc.Root, pc.Ignore)
		if err != nil {
			return err
		}
		b.files = store
	case "sftp":
		client := ssh.NewClient(ssh.Config{
			Host:     pc.SFTP.Host,
			Port:     pc.SFTP.Port,
			User:     pc.SFTP.User,
			KeyPath:  pc.SFTP.KeyPath,
			Password: pc.SFTP.Password,
		})
		b.closers = append(b.closers, client)
		b.files = project.NewSFTPStore(client, pc.SFTP.Root, pc.Ignore)
	default:
		return fmt.Errorf("unknown project backend: %s", pc.Backend)
	}
	return nil
}

func (b *Builder) initClient(ctx context.Context) error {
	if b.client != nil || b.noAI {
		return nil
	}
	client, err := ai.New(ctx, b.cfg.AI)
	if errors.Is(err, ai.ErrDisabled) {
		logging.Info("ai disabled")
		return nil
	}
	if err != nil {
		return err
	}
	b.client = client
	return nil
}

func (b *Builder) assemble(ctx context.Context) (*Workspace, error) {
	w := &Workspace{
		cfg:     b.cfg,
		files:   b.files,
		client:  b.client,
		closers: b.closers,
		bg:      newBackground(),
	}
	w.session = session.New(b.state, session.Config{
		User: b.cfg.User,
		Key:  b.cfg.Storage.StateKey,
	})
	if err := w.session.Restore(); err != nil {
		w.Close()
		return nil, err
	}
	w.engine = patch.NewEngine(b.files, b.cfg.Project.ID, patch.Options{
		ChunkSize:  b.cfg.Patch.ChunkSize,
		ChunkDelay: b.cfg.Patch.ChunkDelay,
		OnSync:     w.syncFiles,
	})

	if _, err := w.engine.Refresh(ctx); err != nil {
		// The restored tree still holds the last mirror.
		logging.Warn("initial project load failed", "project", b.cfg.Project.ID, "error", err)
	}
	if _, err := w.session.Chdir(session.ProjectPath(b.cfg.User, b.cfg.Project.Name)); err != nil {
		logging.Warn("failed to persist session", "error", err)
	}
	return w, nil
}

func (b *Builder) addError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buildErrors = append(b.buildErrors, err)
}

// finalizeError combines all build errors into a single error and releases
// whatever was opened.
func (b *Builder) finalizeError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.closers {
		c.Close()
	}
	if len(b.buildErrors) == 0 {
		return nil
	}
	msg := fmt.Sprintf("workspace build failed with %d error(s)", len(b.buildErrors))
	for i, err := range b.buildErrors {
		msg += fmt.Sprintf("\n  %d. %s", i+1, err.Error())
	}
	return fmt.Errorf("%s", msg)
}
