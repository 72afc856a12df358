package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"vterm/internal/app"
	"vterm/internal/logging"
)

// Run shows the terminal until the user quits or ctx is cancelled.
func Run(ctx context.Context, w *app.Workspace) error {
	m := NewModel(ctx, w)
	if w.Watch(ctx) {
		m.status = "watching " + w.Config().Project.Root
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	view := newLiveView(p.Send)
	w.Engine().SetView(view)
	defer func() {
		view.Close()
		w.Engine().SetView(nil)
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		logging.Debug("terminal closed by context")
		return nil
	}
	return err
}
