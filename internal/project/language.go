package project

import (
	"path"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

var extLanguages = map[string]string{
	"js":   "javascript",
	"mjs":  "javascript",
	"cjs":  "javascript",
	"jsx":  "javascript",
	"ts":   "typescript",
	"tsx":  "typescript",
	"py":   "python",
	"html": "html",
	"htm":  "html",
	"css":  "css",
	"c":    "cpp",
	"cc":   "cpp",
	"cpp":  "cpp",
	"rs":   "rust",
	"json": "json",
	"md":   "markdown",
}

// Language infers the editor language tag from a file name.
func Language(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if lang, ok := extLanguages[ext]; ok {
		return lang
	}
	if lexer := lexers.Match(path.Base(name)); lexer != nil {
		return strings.ToLower(lexer.Config().Name)
	}
	return "plaintext"
}
