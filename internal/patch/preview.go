package patch

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"vterm/internal/project"
)

// Preview renders a line diff of p against the current content of its file,
// in unified style without hunk headers.
func Preview(p *Patch, files []project.File) string {
	old := ""
	if f, ok := project.FindByName(files, p.FileName); ok {
		old = f.Content
	}

	var b strings.Builder
	if p.IsNew {
		fmt.Fprintf(&b, "--- /dev/null\n+++ %s\n", p.FileName)
	} else {
		fmt.Fprintf(&b, "--- %s\n+++ %s\n", p.FileName, p.FileName)
	}

	dmp := diffmatchpatch.New()
	a, c, lines := dmp.DiffLinesToChars(withNewline(old), withNewline(p.NewContent))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, c, false), lines)

	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		text := strings.TrimSuffix(d.Text, "\n")
		if text == "" && d.Text == "" {
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			b.WriteString(prefix)
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Preview renders p against the engine's current file list.
func (e *Engine) Preview(p *Patch) string {
	return Preview(p, e.Files())
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
