package patch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"vterm/internal/logging"
	"vterm/internal/metrics"
	"vterm/internal/project"
)

// Defaults for the typing animation.
const (
	DefaultChunkSize  = 150
	DefaultChunkDelay = 16 * time.Millisecond
)

// View shows a file while a patch is typed into it. It may disappear at any
// time; Show returns false once it can no longer display the file.
type View interface {
	Show(file project.File, content string) bool
}

// Options configures an Engine.
type Options struct {
	ChunkSize  int
	ChunkDelay time.Duration
	// OnSync is called with the fresh file list after every refresh.
	OnSync func(files []project.File)
}

// Engine holds the pending patches of one project and applies them.
type Engine struct {
	store     project.Store
	projectID string
	opts      Options

	mu      sync.Mutex
	files   []project.File
	pending []*Patch
	view    View

	// createMu keeps two concurrent applies from creating the same file.
	createMu sync.Mutex
}

// NewEngine returns an engine writing to store. Call Refresh to load the
// project's files before parsing.
func NewEngine(store project.Store, projectID string, opts Options) *Engine {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkDelay < 0 {
		opts.ChunkDelay = 0
	}
	return &Engine{store: store, projectID: projectID, opts: opts}
}

// SetView binds or, with nil, unbinds the live view.
func (e *Engine) SetView(v View) {
	e.mu.Lock()
	e.view = v
	e.mu.Unlock()
}

func (e *Engine) currentView() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// Refresh reloads the project files from the store.
func (e *Engine) Refresh(ctx context.Context) ([]project.File, error) {
	files, err := e.store.List(ctx, e.projectID)
	if err != nil {
		return nil, fmt.Errorf("list project files: %w", err)
	}
	e.mu.Lock()
	e.files = files
	onSync := e.opts.OnSync
	e.mu.Unlock()
	if onSync != nil {
		onSync(files)
	}
	return files, nil
}

// Files returns the last loaded file list.
func (e *Engine) Files() []project.File {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]project.File(nil), e.files...)
}

// Propose parses text into patches that replace the pending set. The
// returned slice is the caller's to act on directly.
func (e *Engine) Propose(text string) []*Patch {
	patches := Parse(text, e.Files())
	e.mu.Lock()
	e.pending = append([]*Patch(nil), patches...)
	e.mu.Unlock()
	logging.Debug("patches proposed", "count", len(patches))
	return patches
}

// Pending returns the patches awaiting a decision.
func (e *Engine) Pending() []*Patch {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Patch(nil), e.pending...)
}

// Reject drops p from the pending set without touching the store.
func (e *Engine) Reject(p *Patch) bool {
	if !e.remove(p) {
		return false
	}
	metrics.ObservePatch("rejected", 0)
	return true
}

func (e *Engine) remove(p *Patch) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, q := range e.pending {
		if q == p {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Apply writes p into the store, typing it into the view first if one is
// bound. Once started it runs to completion: cancelling ctx does not stop it.
// On a failed write p stays pending.
func (e *Engine) Apply(ctx context.Context, p *Patch) error {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	file, err := e.resolve(ctx, p)
	if err != nil {
		metrics.ObservePatch("failed", 0)
		return fmt.Errorf("apply %s: %w", p.FileName, err)
	}

	e.typeOut(file, p.NewContent)

	if err := e.store.Update(ctx, file.ID, p.NewContent); err != nil {
		metrics.ObservePatch("failed", 0)
		logging.Error("patch write failed", "file", p.FileName, "error", err)
		return fmt.Errorf("apply %s: %w", p.FileName, err)
	}
	e.remove(p)
	metrics.ObservePatch("applied", time.Since(start))
	logging.Info("patch applied", "file", p.FileName, "added", p.Added, "removed", p.Removed)

	if _, err := e.Refresh(ctx); err != nil {
		return fmt.Errorf("apply %s: %w", p.FileName, err)
	}
	return nil
}

// ApplyAll applies patches concurrently and joins their errors.
func (e *Engine) ApplyAll(ctx context.Context, patches []*Patch) error {
	errs := make([]error, len(patches))
	var wg sync.WaitGroup
	for i, p := range patches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = e.Apply(ctx, p)
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// resolve finds the target file or creates it empty.
func (e *Engine) resolve(ctx context.Context, p *Patch) (project.File, error) {
	e.createMu.Lock()
	defer e.createMu.Unlock()

	name := p.FileName
	if clean, err := project.CleanName(name); err == nil {
		name = clean
	}
	if f, ok := project.FindByName(e.Files(), name); ok {
		return f, nil
	}
	f, err := e.store.Create(ctx, e.projectID, p.FileName, "", project.Language(p.FileName))
	if errors.Is(err, project.ErrExists) {
		files, rerr := e.Refresh(ctx)
		if rerr != nil {
			return project.File{}, rerr
		}
		if f, ok := project.FindByName(files, name); ok {
			return f, nil
		}
	}
	if err != nil {
		return project.File{}, err
	}

	e.mu.Lock()
	e.files = append(e.files, f)
	e.mu.Unlock()
	return f, nil
}

// typeOut streams growing prefixes of content into the view. The view is
// looked up again before every chunk and the animation stops as soon as it
// is gone.
func (e *Engine) typeOut(file project.File, content string) {
	chunks := Chunks(content, e.opts.ChunkSize)
	for i, chunk := range chunks {
		v := e.currentView()
		if v == nil || !v.Show(file, chunk) {
			return
		}
		if i < len(chunks)-1 && e.opts.ChunkDelay > 0 {
			time.Sleep(e.opts.ChunkDelay)
		}
	}
}

// Chunks splits content into strictly growing prefixes of about size bytes,
// cut on rune boundaries. The last chunk is always content itself.
func Chunks(content string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var out []string
	for i := size; i < len(content); i += size {
		cut := i
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		if cut == 0 || (len(out) > 0 && len(out[len(out)-1]) >= cut) {
			continue
		}
		out = append(out, content[:cut])
	}
	return append(out, content)
}
