package ui

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

// HostName is shown after the user in the prompt.
const HostName = "speed"

// DisplayPath shortens the user's home to ~.
func DisplayPath(cwd, user string) string {
	home := "/home/" + user
	switch {
	case cwd == "" || cwd == home:
		return "~"
	case strings.HasPrefix(cwd, home+"/"):
		return "~" + cwd[len(home):]
	default:
		return cwd
	}
}

func (m *Model) prompt(user, cwd string) string {
	s := m.styles
	return s.PromptUser.Render(user+"@"+HostName) +
		s.PromptSep.Render(":") +
		s.PromptPath.Render(DisplayPath(cwd, user)) +
		s.Dollar.Render("$ ")
}

// copyToClipboard uses the system clipboard and falls back to OSC 52 for
// terminals over SSH.
func copyToClipboard(text string) error {
	if err := clipboard.WriteAll(text); err == nil {
		return nil
	}
	copyViaOSC52(text)
	return nil
}

// copyViaOSC52 copies text to clipboard via OSC 52 escape sequence.
func copyViaOSC52(text string) {
	encoded := base64.StdEncoding.EncodeToString([]byte(text))
	fmt.Fprintf(os.Stderr, "\033]52;c;%s\a", encoded)
}

// tail returns the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
