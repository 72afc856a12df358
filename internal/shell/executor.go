// Package shell parses and executes command lines against the virtual
// filesystem.
package shell

import (
	"fmt"
	"strings"
	"time"

	"vterm/internal/logging"
	"vterm/internal/vfs"
)

// Executor dispatches parsed commands to builtin handlers.
type Executor struct {
	commands map[string]Handler
	now      func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock overrides the time source used by date and git log.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// NewExecutor returns an executor with every builtin registered.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}

	e.commands = map[string]Handler{
		"pwd":     pwd,
		"ls":      ls,
		"cd":      cd,
		"mkdir":   mkdir,
		"rmdir":   rmdir,
		"touch":   touch,
		"rm":      rm,
		"cat":     cat,
		"echo":    echo,
		"grep":    grep,
		"head":    head,
		"tail":    tail,
		"wc":      wc,
		"sort":    sortLines,
		"uniq":    uniq,
		"whoami":  whoami,
		"uname":   uname,
		"date":    e.date,
		"history": history,
		"clear":   clearScreen,
		"help":    e.help,
		"cp":      simulated("cp: Not fully implemented in simulation"),
		"mv":      simulated("mv: Not fully implemented in simulation"),
		"find":    simulated("find: Not fully implemented in simulation"),
		"chmod":   simulated("chmod: Permissions updated in VFS (simulated)"),
		"chown":   simulated("chown: Owner updated in VFS (simulated)"),
		"run":     run,
		"npm":     npm,
		"git":     e.git,
	}
	return e
}

// Commands lists the registered command names.
func (e *Executor) Commands() []string {
	names := make([]string, 0, len(e.commands))
	for name := range e.commands {
		names = append(names, name)
	}
	return names
}

// Execute runs cmd against st and returns the result with the state to keep.
// It never panics: handler errors and panics become "<command>: <message>".
func (e *Executor) Execute(cmd *Command, st State) (res Result, next State) {
	next = st
	defer func() {
		if r := recover(); r != nil {
			logging.Error("command panicked", "command", cmd.Name, "panic", r)
			res, next = Errorf("%s: %v", cmd.Name, r), st
		}
	}()

	res, err := e.dispatch(cmd, st, func(s State) { next = s })
	if err != nil {
		logging.Debug("command failed", "command", cmd.Name, "error", err)
		return Errorf("%s: %s", cmd.Name, err), st
	}

	if cmd.Redirect != RedirectNone && res.Kind == KindText && !res.Err && res.Text != "" {
		return redirect(cmd, res.Text, next)
	}
	return res, next
}

func (e *Executor) dispatch(cmd *Command, st State, set Setter) (Result, error) {
	if cmd.Name == "rm" && deletesEverything(cmd) {
		return Signal(KindDeleteAllFiles), nil
	}
	if h, ok := e.commands[cmd.Name]; ok {
		return h(cmd, st, set)
	}
	return Errorf("%s: command not found", cmd.Name), nil
}

// deletesEverything matches "rm *", "rm -rf *" and "rm -f *". The tree has no
// glob expansion, so these go to the project store instead.
func deletesEverything(cmd *Command) bool {
	switch strings.Join(cmd.Tokens, " ") {
	case "*", "-rf *", "-f *":
		return true
	}
	return false
}

// redirect writes out into the target file, replacing or appending.
func redirect(cmd *Command, out string, st State) (Result, State) {
	target := cmd.TargetFile
	if target == "" {
		return Errorf("bash: syntax error near unexpected token `newline'"), st
	}

	fs := st.FS.Clone()
	parent, name, ok := fs.Parent(target, st.Cwd)
	if !ok {
		return Errorf("bash: %s: No such file or directory", target), st
	}
	existing := parent.Child(name)
	if existing.IsDir() {
		return Errorf("bash: %s: Is a directory", target), st
	}

	content := out + "\n"
	switch {
	case existing == nil:
		parent.Add(vfs.NewFile(name, st.User, vfs.FilePerm, content))
	case cmd.Redirect == RedirectAppend:
		existing.Content += content
	default:
		existing.Content = content
	}
	return Text(""), st.withFS(fs)
}

// String renders a command back into a readable line, for logs.
func (c *Command) String() string {
	s := strings.TrimSpace(c.Name + " " + strings.Join(c.Tokens, " "))
	switch c.Redirect {
	case RedirectAppend:
		s = fmt.Sprintf("%s >> %s", s, c.TargetFile)
	case RedirectOverwrite:
		s = fmt.Sprintf("%s > %s", s, c.TargetFile)
	}
	return s
}
