// Package highlight colors file content and patch previews for the terminal.
package highlight

import (
	"bytes"
	"path"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// Highlighter colors code with one chroma style.
type Highlighter struct {
	style     *chroma.Style
	formatter chroma.Formatter
}

// New creates a Highlighter. Unknown styles fall back to chroma's default.
func New(style string) *Highlighter {
	if style == "" {
		style = "monokai"
	}
	s := styles.Get(style)
	if s == nil {
		s = styles.Fallback
	}
	return &Highlighter{
		style:     s,
		formatter: formatters.Get("terminal256"),
	}
}

// File highlights content using the lexer for name, or the editor language
// tag when the name is not recognized.
func (h *Highlighter) File(name, language, content string) string {
	lexer := lexers.Match(path.Base(name))
	if lexer == nil {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		return content
	}
	return h.render(chroma.Coalesce(lexer), content)
}

func (h *Highlighter) render(lexer chroma.Lexer, code string) string {
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return code
	}
	return buf.String()
}

var (
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true)
	contextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
)

// Diff colors a line diff as produced by patch.Preview.
func (h *Highlighter) Diff(diff string) string {
	lines := strings.Split(diff, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---"):
			lines[i] = headerStyle.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = addedStyle.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = removedStyle.Render(line)
		default:
			lines[i] = contextStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
