package shell

import "fmt"

// Kind tags what a command result asks of its caller.
type Kind int

const (
	// KindText is plain output, possibly empty.
	KindText Kind = iota
	// KindClearScreen wipes the displayed scrollback.
	KindClearScreen
	// KindRunDevServer starts the simulated dev server and preview.
	KindRunDevServer
	// KindRunPistonAPI hands the active file to the code execution engine.
	KindRunPistonAPI
	// KindDeleteAllFiles deletes every file of the current project.
	KindDeleteAllFiles
)

// Sentinel strings understood by consumers that only see text.
const (
	SentinelClearScreen    = "CLEAR_TERMINAL_SCREEN"
	SentinelRunDevServer   = "RUN_DEV_SERVER"
	SentinelRunPistonAPI   = "RUN_PISTON_API"
	SentinelDeleteAllFiles = "DELETE_ALL_FILES"
)

var sentinels = map[Kind]string{
	KindClearScreen:    SentinelClearScreen,
	KindRunDevServer:   SentinelRunDevServer,
	KindRunPistonAPI:   SentinelRunPistonAPI,
	KindDeleteAllFiles: SentinelDeleteAllFiles,
}

// Result is the outcome of one command.
type Result struct {
	Kind Kind
	Text string
	// Err marks Text as an error message rather than output.
	Err bool
}

// Text is a plain output result.
func Text(s string) Result {
	return Result{Kind: KindText, Text: s}
}

// Errorf is a user-facing error line.
func Errorf(format string, args ...any) Result {
	return Result{Kind: KindText, Text: fmt.Sprintf(format, args...), Err: true}
}

// Signal is a result that carries no text.
func Signal(k Kind) Result {
	return Result{Kind: k}
}

// IsSignal reports whether r asks the caller to do something besides print.
func (r Result) IsSignal() bool {
	return r.Kind != KindText
}

// String renders r for text-only consumers: output text, or the sentinel.
func (r Result) String() string {
	if s, ok := sentinels[r.Kind]; ok {
		return s
	}
	return r.Text
}

// ParseSentinel maps a sentinel string back to its kind.
func ParseSentinel(s string) (Kind, bool) {
	for k, v := range sentinels {
		if v == s {
			return k, true
		}
	}
	return KindText, false
}

func (k Kind) String() string {
	if s, ok := sentinels[k]; ok {
		return s
	}
	return "TEXT"
}
