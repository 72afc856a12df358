package shell

import "vterm/internal/vfs"

// State is what a command can see and change. Handlers treat it as a value:
// mutations go into a cloned tree that is handed to the Setter.
type State struct {
	FS   *vfs.Node
	Cwd  string
	User string
	// Log is the command log, oldest first. Clearing the screen keeps it.
	Log []string
}

// Setter replaces the state after a command succeeds.
type Setter func(State)

// Handler implements one builtin. A returned error is reported as
// "<command>: <error>"; user mistakes are Errorf results instead.
type Handler func(cmd *Command, st State, set Setter) (Result, error)

// withFS returns a copy of st using fs.
func (st State) withFS(fs *vfs.Node) State {
	st.FS = fs
	return st
}

// readFile returns the content of a file at path.
func (st State) readFile(path string) (string, bool) {
	node, _ := st.FS.Resolve(path, st.Cwd)
	if node == nil || node.IsDir() {
		return "", false
	}
	return node.Content, true
}
