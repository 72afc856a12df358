package shell

import (
	"fmt"
	"sort"
	"strings"
)

const (
	unameShort = "Linux"
	unameAll   = "Linux speed-agent 5.15.0-v8+ #1 SMP PREEMPT aarch64 GNU/Linux"

	// dateLayout matches date(1) in the C locale.
	dateLayout = "Mon Jan _2 15:04:05 MST 2006"
)

func whoami(_ *Command, st State, _ Setter) (Result, error) {
	return Text(st.User), nil
}

func uname(cmd *Command, _ State, _ Setter) (Result, error) {
	if cmd.HasOption("a") {
		return Text(unameAll), nil
	}
	return Text(unameShort), nil
}

func (e *Executor) date(_ *Command, _ State, _ Setter) (Result, error) {
	return Text(e.now().Format(dateLayout)), nil
}

func history(_ *Command, st State, _ Setter) (Result, error) {
	lines := make([]string, 0, len(st.Log))
	for i, line := range st.Log {
		lines = append(lines, fmt.Sprintf("  %d  %s", i+1, line))
	}
	return Text(strings.Join(lines, "\n")), nil
}

func clearScreen(_ *Command, _ State, _ Setter) (Result, error) {
	return Signal(KindClearScreen), nil
}

func (e *Executor) help(_ *Command, _ State, _ Setter) (Result, error) {
	names := make([]string, 0, len(e.commands))
	for name := range e.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return Text("Available commands:\n" + strings.Join(names, "  ") + "\n\nType 'run' to execute your active code file."), nil
}

// simulated returns a handler that answers with a fixed line and changes
// nothing.
func simulated(text string) Handler {
	return func(_ *Command, _ State, _ Setter) (Result, error) {
		return Text(text), nil
	}
}

func run(cmd *Command, _ State, _ Setter) (Result, error) {
	if len(cmd.Args) == 1 && cmd.Args[0] == "dev" {
		return Signal(KindRunDevServer), nil
	}
	return Signal(KindRunPistonAPI), nil
}

func npm(cmd *Command, _ State, _ Setter) (Result, error) {
	line := strings.Join(cmd.Tokens, " ")
	if line == "run dev" {
		return Signal(KindRunDevServer), nil
	}
	if line == "" {
		return Errorf("npm: missing command, try 'npm run dev'"), nil
	}
	return Errorf("npm: '%s' is not available in this sandbox, try 'npm run dev'", line), nil
}
