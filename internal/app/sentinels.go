package app

import (
	"context"
	"fmt"

	"vterm/internal/project"
	"vterm/internal/session"
	"vterm/internal/shell"
)

// DevServerURL is where the simulated dev server claims to listen.
const DevServerURL = "http://localhost:5173/"

func devServerLog() []session.Entry {
	lines := []string{
		"> dev",
		"> vite",
		"",
		"  VITE v5.0.0  ready in 312 ms",
		"",
		"  ➜  Local:   " + DevServerURL,
		"  ➜  Network: use --host to expose",
	}
	entries := make([]session.Entry, 0, len(lines))
	for _, l := range lines {
		entries = append(entries, session.Entry{Type: session.EntryOutput, Content: l})
	}
	return entries
}

// handleSignal carries out what a signal result asks for. ClearScreen is
// already handled by the session.
func (w *Workspace) handleSignal(ctx context.Context, res shell.Result) error {
	switch res.Kind {
	case shell.KindRunDevServer:
		return w.session.Append(devServerLog()...)

	case shell.KindRunPistonAPI:
		return w.session.Append(session.Entry{
			Type:    session.EntryError,
			Content: "run: no execution engine configured",
		})

	case shell.KindDeleteAllFiles:
		n, err := project.DeleteAll(ctx, w.files, w.cfg.Project.ID)
		if rerr := w.Reload(ctx); rerr != nil && err == nil {
			err = rerr
		}
		if err != nil {
			w.session.Append(session.Entry{Type: session.EntryError, Content: "rm: " + err.Error()})
			return err
		}
		return w.session.Append(session.Entry{
			Type:    session.EntryOutput,
			Content: fmt.Sprintf("Deleted %d file(s) from %s.", n, w.cfg.Project.Name),
		})
	}
	return nil
}
