// Package patch turns model output into whole-file patches and applies the
// accepted ones to the project store.
package patch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"vterm/internal/project"
)

// Patch is a proposed replacement of one file's content. Patches are
// compared by pointer: two pending patches may name the same file.
type Patch struct {
	ID         string
	FileName   string
	NewContent string
	Added      int
	Removed    int
	IsNew      bool
	// Inferred is set when the name was synthesized from a bare code block.
	Inferred bool
}

func (p *Patch) String() string {
	return fmt.Sprintf("%s (+%d -%d)", p.FileName, p.Added, p.Removed)
}

var (
	// A marker is one of FILE:, File:, # File:, #File:, #file: (any case)
	// followed by a name that contains a dot and no spaces or parentheses.
	markerRe = regexp.MustCompile(`(?i)(?:# ?)?file:\s*([^\s()]+\.[^\s()]+)`)

	fencedRe    = regexp.MustCompile("```(?:\\w+)?\\n((?s:.*?))```")
	openFenceRe = regexp.MustCompile("^```(?:\\w+)?\\n?")
	fallbackRe  = regexp.MustCompile("```([\\w-]+)?\\n((?s:.*?))```")
)

// Parse extracts patches from text. Marked blocks win; bare fenced blocks
// are only used when there are no marked ones. Line deltas are computed
// against existing, matched by name without regard to case.
func Parse(text string, existing []project.File) []*Patch {
	patches := parseMarked(text)
	if len(patches) == 0 {
		patches = parseFenced(text)
	}
	for _, p := range patches {
		p.ID = uuid.New().String()
		countLines(p, existing)
	}
	return patches
}

func parseMarked(text string) []*Patch {
	matches := markerRe.FindAllStringSubmatchIndex(text, -1)
	var patches []*Patch
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		name := strings.TrimSpace(text[m[2]:m[3]])
		content := blockContent(text[m[1]:end])
		if content == "" {
			continue
		}
		patches = append(patches, &Patch{FileName: name, NewContent: content})
	}
	return patches
}

// blockContent prefers the first fenced block; otherwise the raw block with
// any stray fence lines removed.
func blockContent(block string) string {
	block = strings.TrimLeft(block, " \t\r\n")
	if m := fencedRe.FindStringSubmatch(block); m != nil {
		return strings.TrimSpace(m[1])
	}
	raw := openFenceRe.ReplaceAllString(block, "")
	raw = strings.TrimSuffix(strings.TrimRight(raw, " \t\r\n"), "```")
	return strings.TrimSpace(raw)
}

func parseFenced(text string) []*Patch {
	var patches []*Patch
	for _, m := range fallbackRe.FindAllStringSubmatch(text, -1) {
		patches = append(patches, &Patch{
			FileName:   fmt.Sprintf("ai_node_%d.%s", len(patches)+1, fenceExt(m[1])),
			NewContent: strings.TrimSpace(m[2]),
			Inferred:   true,
		})
	}
	return patches
}

func fenceExt(lang string) string {
	switch lang {
	case "":
		return "js"
	case "python":
		return "py"
	case "javascript":
		return "js"
	default:
		return lang
	}
}

// countLines fills the coarse size delta: only line counts are compared.
func countLines(p *Patch, existing []project.File) {
	newLines := lineCount(p.NewContent)
	old, ok := project.FindByName(existing, p.FileName)
	if !ok {
		p.IsNew = true
		p.Added = newLines
		return
	}
	oldLines := lineCount(old.Content)
	p.Added = max(0, newLines-oldLines)
	p.Removed = max(0, oldLines-newLines)
}

func lineCount(s string) int {
	return strings.Count(s, "\n") + 1
}
