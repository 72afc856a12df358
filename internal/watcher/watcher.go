// Package watcher reports debounced filesystem changes below a directory.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"vterm/internal/logging"
)

// Watcher monitors a directory tree and batches changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	root      string
	ignore    Ignorer
	cfg       Config

	mu      sync.Mutex
	pending map[string]pendingChange
}

type pendingChange struct {
	op   Operation
	seen time.Time
}

// New creates a watcher for root. Nothing is watched until Run.
func New(root string, ignore Ignorer, cfg Config) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultConfig().Debounce
	}
	if cfg.MaxWatches <= 0 {
		cfg.MaxWatches = DefaultConfig().MaxWatches
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsWatcher: fsw,
		root:      root,
		ignore:    ignore,
		cfg:       cfg,
		pending:   make(map[string]pendingChange),
	}, nil
}

// Run watches until ctx is done, calling handle once per settled batch.
func (w *Watcher) Run(ctx context.Context, handle BatchHandler) error {
	defer w.fsWatcher.Close()
	if err := w.addTree(w.root); err != nil {
		return err
	}

	ticker := time.NewTicker(w.cfg.Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.record(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("watcher error", "root", w.root, "error", err)
		case <-ticker.C:
			if batch := w.flush(time.Now()); len(batch) > 0 {
				handle(batch)
			}
		}
	}
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && w.ignored(p) {
			return filepath.SkipDir
		}
		if len(w.fsWatcher.WatchList()) >= w.cfg.MaxWatches {
			return filepath.SkipAll
		}
		if err := w.fsWatcher.Add(p); err != nil {
			logging.Debug("watch failed", "path", p, "error", err)
		}
		return nil
	})
}

func (w *Watcher) ignored(p string) bool {
	if w.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(w.root, p)
	if err != nil {
		return true
	}
	return w.ignore.Match(filepath.ToSlash(rel))
}

func (w *Watcher) record(event fsnotify.Event) {
	if w.ignored(event.Name) {
		return
	}

	op := OpModify
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				logging.Debug("watch new directory failed", "path", event.Name, "error", err)
			}
		}
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		op = OpDelete
	case event.Op&fsnotify.Chmod != 0:
		return
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	w.mu.Lock()
	w.pending[filepath.ToSlash(rel)] = pendingChange{op: op, seen: time.Now()}
	w.mu.Unlock()
}

// flush returns the changes older than the debounce window.
func (w *Watcher) flush(now time.Time) map[string]Operation {
	w.mu.Lock()
	defer w.mu.Unlock()

	var batch map[string]Operation
	for rel, change := range w.pending {
		if now.Sub(change.seen) < w.cfg.Debounce {
			continue
		}
		if batch == nil {
			batch = make(map[string]Operation)
		}
		op := change.op
		if _, err := os.Lstat(filepath.Join(w.root, filepath.FromSlash(rel))); errors.Is(err, fs.ErrNotExist) {
			op = OpDelete
		}
		batch[rel] = op
		delete(w.pending, rel)
	}
	return batch
}
