package ui

import (
	"vterm/internal/app"
	"vterm/internal/patch"
	"vterm/internal/project"
	"vterm/internal/shell"
)

// State is what the keyboard currently drives.
type State int

const (
	StateShell  State = iota // Enter runs a shell line
	StateAsk                 // Enter asks the model
	StateReview              // Keys act on pending patches
)

func (s State) String() string {
	switch s {
	case StateAsk:
		return "ask"
	case StateReview:
		return "review"
	default:
		return "shell"
	}
}

type (
	// submitResultMsg carries the outcome of a shell line.
	submitResultMsg struct {
		res shell.Result
		err error
	}

	// askResultMsg carries a model reply.
	askResultMsg struct {
		reply app.Reply
		err   error
	}

	// applyResultMsg reports that patches were applied or failed.
	applyResultMsg struct {
		patches []*patch.Patch
		err     error
	}

	// typingMsg is one frame of a patch being typed into its file.
	typingMsg struct {
		file    project.File
		content string
	}

	// statusMsg replaces the status line.
	statusMsg string
)
