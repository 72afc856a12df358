package ui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"vterm/internal/project"
)

// liveView forwards typing frames from the patch engine to the program. It
// reports itself gone once the program has quit.
type liveView struct {
	send   func(tea.Msg)
	closed atomic.Bool
}

func newLiveView(send func(tea.Msg)) *liveView {
	return &liveView{send: send}
}

func (v *liveView) Show(file project.File, content string) bool {
	if v.closed.Load() {
		return false
	}
	v.send(typingMsg{file: file, content: content})
	return true
}

func (v *liveView) Close() {
	v.closed.Store(true)
}
