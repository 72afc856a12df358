// Package session keeps the state of one terminal: the filesystem, working
// directory, scrollback and command log, persisted after every command.
package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"vterm/internal/kv"
	"vterm/internal/logging"
	"vterm/internal/metrics"
	"vterm/internal/shell"
	"vterm/internal/vfs"
)

// DefaultKey is the storage key of the persisted session.
const DefaultKey = "vterm_terminal_state"

// DefaultUser is the acting user of a fresh session.
const DefaultUser = "user"

// EntryType classifies scrollback entries.
type EntryType string

const (
	EntryInput  EntryType = "input"
	EntryOutput EntryType = "output"
	EntryError  EntryType = "error"
)

// Entry is one scrollback line. Input entries carry the cwd they were typed
// in so the prompt can be redrawn.
type Entry struct {
	Type    EntryType `json:"type"`
	Content string    `json:"content"`
	Cwd     string    `json:"cwd,omitempty"`
}

// State is a snapshot of the session. FS is never mutated after it is
// published, so snapshots can be read without locking.
type State struct {
	FS      *vfs.Node
	Cwd     string
	User    string
	History []Entry
	Log     []string
}

// Config configures a Session.
type Config struct {
	User     string
	Key      string
	Executor *shell.Executor
}

// Session owns one terminal's state.
type Session struct {
	mu    sync.Mutex
	store kv.Store
	key   string
	user  string
	exec  *shell.Executor
	state State
}

// New returns a session in the initial state. Call Restore to load a saved one.
func New(store kv.Store, cfg Config) *Session {
	if cfg.User == "" {
		cfg.User = DefaultUser
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.Executor == nil {
		cfg.Executor = shell.NewExecutor()
	}
	return &Session{
		store: store,
		key:   cfg.Key,
		user:  cfg.User,
		exec:  cfg.Executor,
		state: initialState(cfg.User),
	}
}

func initialState(user string) State {
	return State{
		FS:   vfs.NewSkeleton(user),
		Cwd:  vfs.HomePath(user),
		User: user,
	}
}

// Snapshot returns the current state. Slices are copied.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.History = append([]Entry(nil), st.History...)
	st.Log = append([]string(nil), st.Log...)
	return st
}

// Run executes one input line. Blank lines are ignored entirely. Signals
// other than ClearScreen are returned for the caller to act on. The returned
// error only reports a failure to persist; the command itself has run.
func (s *Session) Run(line string) (shell.Result, error) {
	cmd := shell.Parse(line)
	if cmd == nil {
		return shell.Text(""), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.History = append(s.state.History, Entry{Type: EntryInput, Content: line, Cwd: s.state.Cwd})
	s.state.Log = append(s.state.Log, line)

	res, next := s.exec.Execute(cmd, shell.State{
		FS:   s.state.FS,
		Cwd:  s.state.Cwd,
		User: s.state.User,
		Log:  s.state.Log,
	})
	s.state.FS, s.state.Cwd = next.FS, next.Cwd

	switch {
	case res.Kind == shell.KindClearScreen:
		s.state.History = nil
	case res.IsSignal():
	case res.Err:
		s.state.History = append(s.state.History, Entry{Type: EntryError, Content: res.Text})
	case res.Text != "":
		s.state.History = append(s.state.History, Entry{Type: EntryOutput, Content: res.Text})
	}
	metrics.ObserveCommand(s.commandLabel(cmd.Name), outcome(res))

	return res, s.persistLocked()
}

func (s *Session) commandLabel(name string) string {
	for _, known := range s.exec.Commands() {
		if known == name {
			return name
		}
	}
	return "unknown"
}

func outcome(res shell.Result) string {
	switch {
	case res.IsSignal():
		return "signal"
	case res.Err:
		return "error"
	default:
		return "ok"
	}
}

// Append adds entries produced outside the shell, such as the simulated
// dev server log, and persists.
func (s *Session) Append(entries ...Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.History = append(s.state.History, entries...)
	return s.persistLocked()
}

// Chdir moves the session into path when it names a directory.
func (s *Session) Chdir(path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, full := s.state.FS.Resolve(path, s.state.Cwd)
	if node == nil || !node.IsDir() {
		return false, nil
	}
	s.state.Cwd = full
	return true, s.persistLocked()
}

// Reset restores the initial tree and forgets the saved session.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = initialState(s.user)
	if err := s.store.Remove(s.key); err != nil {
		return fmt.Errorf("remove saved session: %w", err)
	}
	return nil
}

// snapshot is the persisted JSON shape.
type snapshot struct {
	FS               json.RawMessage `json:"fs"`
	CurrentDirectory string          `json:"currentDirectory,omitempty"`
	Cwd              string          `json:"cwd,omitempty"`
	User             string          `json:"user"`
	History          []Entry         `json:"history"`
	Log              []string        `json:"log,omitempty"`
}

func (s *Session) persistLocked() error {
	fs, err := vfs.Encode(s.state.FS)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	data, err := json.Marshal(snapshot{
		FS:               fs,
		CurrentDirectory: s.state.Cwd,
		User:             s.state.User,
		History:          s.state.History,
		Log:              s.state.Log,
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.store.Set(s.key, string(data)); err != nil {
		logging.Error("failed to persist session", "key", s.key, "error", err)
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Restore loads the saved session. A missing one leaves the initial state; a
// corrupt one is discarded with a warning.
func (s *Session) Restore() error {
	raw, ok, err := s.store.Get(s.key)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil
	}

	st, err := decode(raw)
	if err != nil {
		logging.Warn("discarding corrupt saved session", "key", s.key, "error", err)
		s.mu.Lock()
		s.state = initialState(s.user)
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return nil
}

func decode(raw string) (State, error) {
	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return State{}, err
	}
	fs, err := vfs.Decode(snap.FS)
	if err != nil {
		return State{}, err
	}
	cwd := snap.CurrentDirectory
	if cwd == "" {
		cwd = snap.Cwd
	}
	if cwd == "" {
		cwd = "/"
	}
	if snap.User == "" {
		return State{}, fmt.Errorf("saved session has no user")
	}
	return State{FS: fs, Cwd: cwd, User: snap.User, History: snap.History, Log: snap.Log}, nil
}
