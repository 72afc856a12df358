package ai

import (
	"regexp"
	"strings"
)

// SystemPrompt tells the model how to format file changes so the patch
// parser can find them.
const SystemPrompt = `You are a senior full-stack engineer working inside a browser workspace. Write high-quality, production-ready code.

FORMATTING RULE:
Every code block MUST be preceded by a file header:
# File: filename.ext
` + "```language\ncode\n```" + `

RULES:
1. Give the full contents of every new or modified file.
2. Keep prose to one sentence before the code.
3. Never print source code without a # File: marker.
4. Only touch what the request needs.`

const (
	// UserMessageLimit caps user turns kept in the context window.
	UserMessageLimit = 500

	prunedAssistant = "Project updated."
	codeOnlySummary = "Generated system module instructions."
	pendingSummary  = "Architecting solution..."
)

var (
	historyCutRe = regexp.MustCompile("(?i)#\\s*File:|```")
	displayCutRe = regexp.MustCompile(`(?i)(?:#\s*)?file:`)
)

// Workspace describes the project for the model.
type Workspace struct {
	Files  []string
	Active string
}

func (w Workspace) String() string {
	active := w.Active
	if active == "" {
		active = "None"
	}
	return "WORKSPACE: " + strings.Join(w.Files, ", ") + "\nACTIVE: " + active
}

// BuildMessages assembles a request: system prompt, workspace summary, the
// last window turns of history, and prompt.
func BuildMessages(history []Message, ws Workspace, prompt string, window int) []Message {
	msgs := []Message{
		{Role: RoleSystem, Content: SystemPrompt},
		{Role: RoleSystem, Content: ws.String()},
	}
	msgs = append(msgs, PruneHistory(history, window)...)
	return append(msgs, Message{Role: RoleUser, Content: prompt})
}

// PruneHistory keeps the last window messages. Assistant turns lose their
// code; user turns are capped at UserMessageLimit characters.
func PruneHistory(history []Message, window int) []Message {
	if window <= 0 {
		return nil
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}

	out := make([]Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case RoleAssistant:
			text := m.Content
			if loc := historyCutRe.FindStringIndex(text); loc != nil {
				text = text[:loc[0]]
			}
			text = strings.TrimSpace(text)
			if text == "" {
				text = prunedAssistant
			}
			out = append(out, Message{Role: m.Role, Content: text})
		default:
			out = append(out, Message{Role: m.Role, Content: truncate(m.Content, UserMessageLimit)})
		}
	}
	return out
}

// DisplayText is the narrative part of a reply: what comes before the first
// file marker or, lacking one, before the first code fence.
func DisplayText(reply string) string {
	var text string
	if loc := displayCutRe.FindStringIndex(reply); loc != nil {
		text = strings.TrimSpace(reply[:loc[0]])
	} else if strings.Contains(reply, "```") {
		text = strings.TrimSpace(strings.SplitN(reply, "```", 2)[0])
		if text == "" {
			text = codeOnlySummary
		}
	} else {
		text = strings.TrimSpace(reply)
	}
	if text == "" {
		return pendingSummary
	}
	return text
}

func truncate(s string, limit int) string {
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
