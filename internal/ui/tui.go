// Package ui is the full-screen terminal front end of a workspace.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"vterm/internal/app"
	"vterm/internal/highlight"
	"vterm/internal/logging"
	"vterm/internal/patch"
	"vterm/internal/session"
	"vterm/internal/shell"
)

const (
	typingLines = 12
	minViewport = 3
)

// Model is the Bubble Tea model of the terminal.
type Model struct {
	ctx    context.Context
	ws     *app.Workspace
	styles *Styles
	hl     *highlight.Highlighter
	md     *glamour.TermRenderer

	input  textinput.Model
	vp     viewport.Model
	width  int
	height int
	ready  bool

	state    State
	busy     bool
	status   string
	reply    string
	selected int
	showDiff bool
	typing   *typingMsg

	history []string
	histIdx int
}

// NewModel returns a model driving ws.
func NewModel(ctx context.Context, ws *app.Workspace) *Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 4096
	ti.Focus()

	cfg := ws.Config()
	log := ws.Session().Snapshot().Log
	return &Model{
		ctx:      ctx,
		ws:       ws,
		styles:   DefaultStyles(),
		hl:       highlight.New(cfg.UI.HighlightStyle),
		input:    ti,
		vp:       viewport.New(80, 20),
		showDiff: true,
		history:  append([]string(nil), log...),
		histIdx:  len(log),
	}
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	m.layout()
	return m, cmd
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(10, msg.Width-lipgloss.Width(m.promptLine())-1)
		m.vp.Width = msg.Width
		m.md = m.newRenderer(msg.Width - 4)
		m.ready = true
		m.refresh()
		return nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case submitResultMsg:
		m.busy = false
		switch {
		case msg.err != nil:
			m.status = "error: " + msg.err.Error()
		case msg.res.Kind == shell.KindRunDevServer:
			m.status = "preview at " + app.DevServerURL
		default:
			m.status = ""
		}
		m.refresh()
		return nil

	case askResultMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
			if errors.Is(msg.err, app.ErrNoModel) {
				m.state = StateShell
			}
			return nil
		}
		m.reply = msg.reply.Text
		m.selected = 0
		if n := len(m.ws.Engine().Pending()); n > 0 {
			m.state = StateReview
			m.status = fmt.Sprintf("%d patch(es) proposed", n)
		} else {
			m.status = ""
		}
		m.refresh()
		return nil

	case applyResultMsg:
		m.busy = false
		m.typing = nil
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("applied %d patch(es)", len(msg.patches))
		}
		m.clampSelection()
		m.refresh()
		return nil

	case typingMsg:
		m.typing = &msg
		return nil

	case statusMsg:
		m.status = string(msg)
		return nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "ctrl+y":
		return m.copy()
	case "ctrl+r":
		if m.state == StateReview {
			m.state = StateShell
		} else if len(m.ws.Engine().Pending()) > 0 {
			m.state = StateReview
		}
		return nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return cmd
	}

	if m.state == StateReview {
		return m.handleReviewKey(msg)
	}

	switch msg.String() {
	case "tab":
		if m.state == StateAsk {
			m.state = StateShell
		} else if m.ws.HasModel() {
			m.state = StateAsk
		} else {
			m.status = "no model configured"
		}
		return nil
	case "enter":
		return m.submit()
	case "up":
		if m.histIdx > 0 {
			m.histIdx--
			m.input.SetValue(m.history[m.histIdx])
			m.input.CursorEnd()
		}
		return nil
	case "down":
		if m.histIdx < len(m.history) {
			m.histIdx++
		}
		if m.histIdx == len(m.history) {
			m.input.SetValue("")
		} else {
			m.input.SetValue(m.history[m.histIdx])
			m.input.CursorEnd()
		}
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleReviewKey(msg tea.KeyMsg) tea.Cmd {
	pending := m.ws.Engine().Pending()
	if m.busy {
		return nil
	}
	switch msg.String() {
	case "esc", "q":
		m.state = StateShell
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(pending)-1 {
			m.selected++
		}
	case "d":
		m.showDiff = !m.showDiff
	case "a", "y":
		if p := m.selectedPatch(pending); p != nil {
			m.busy = true
			return m.acceptCmd(p)
		}
	case "A":
		if len(pending) > 0 {
			m.busy = true
			return m.acceptAllCmd(pending)
		}
	case "r", "n":
		if p := m.selectedPatch(pending); p != nil {
			m.ws.Reject(p)
			m.status = "rejected " + p.FileName
			m.clampSelection()
		}
	}
	return nil
}

func (m *Model) submit() tea.Cmd {
	if m.busy {
		m.status = "busy"
		return nil
	}
	line := m.input.Value()
	m.input.Reset()

	if m.state == StateAsk {
		if strings.TrimSpace(line) == "" {
			return nil
		}
		m.busy = true
		m.status = "thinking..."
		return m.askCmd(line)
	}

	if strings.TrimSpace(line) != "" {
		m.history = append(m.history, line)
	}
	m.histIdx = len(m.history)
	m.busy = true
	return m.submitCmd(line)
}

func (m *Model) submitCmd(line string) tea.Cmd {
	ctx, ws := m.ctx, m.ws
	return func() tea.Msg {
		res, err := ws.Submit(ctx, line)
		return submitResultMsg{res: res, err: err}
	}
}

func (m *Model) askCmd(prompt string) tea.Cmd {
	ctx, ws := m.ctx, m.ws
	return func() tea.Msg {
		reply, err := ws.Ask(ctx, prompt)
		return askResultMsg{reply: reply, err: err}
	}
}

func (m *Model) acceptCmd(p *patch.Patch) tea.Cmd {
	ctx, ws := m.ctx, m.ws
	return func() tea.Msg {
		err := ws.Accept(ctx, p)
		return applyResultMsg{patches: []*patch.Patch{p}, err: err}
	}
}

func (m *Model) acceptAllCmd(pending []*patch.Patch) tea.Cmd {
	ctx, ws := m.ctx, m.ws
	return func() tea.Msg {
		err := ws.AcceptAll(ctx)
		return applyResultMsg{patches: pending, err: err}
	}
}

// copy puts the selected patch or the last output on the clipboard.
func (m *Model) copy() tea.Cmd {
	text := ""
	if m.state == StateReview {
		if p := m.selectedPatch(m.ws.Engine().Pending()); p != nil {
			text = p.NewContent
		}
	} else {
		text = lastOutput(m.ws.Session().Snapshot().History)
	}
	if text == "" {
		return nil
	}
	return func() tea.Msg {
		if err := copyToClipboard(text); err != nil {
			return statusMsg("copy failed: " + err.Error())
		}
		return statusMsg("copied")
	}
}

func lastOutput(history []session.Entry) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Type != session.EntryInput && history[i].Content != "" {
			return history[i].Content
		}
	}
	return ""
}

func (m *Model) selectedPatch(pending []*patch.Patch) *patch.Patch {
	if m.selected < 0 || m.selected >= len(pending) {
		return nil
	}
	return pending[m.selected]
}

func (m *Model) clampSelection() {
	n := len(m.ws.Engine().Pending())
	if m.selected >= n {
		m.selected = max(0, n-1)
	}
	if n == 0 && m.state == StateReview {
		m.state = StateShell
	}
}

func (m *Model) newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.ws.Config().UI.MarkdownStyle),
		glamour.WithWordWrap(max(20, width)),
	)
	if err != nil {
		logging.Warn("markdown renderer unavailable", "error", err)
		return nil
	}
	return r
}

func (m *Model) renderMarkdown(text string) string {
	if m.md == nil {
		return text
	}
	out, err := m.md.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// refresh redraws the scrollback and follows the bottom.
func (m *Model) refresh() {
	m.vp.SetContent(m.renderScrollback(m.ws.Session().Snapshot()))
	m.vp.GotoBottom()
}

func (m *Model) layout() {
	if !m.ready {
		return
	}
	used := lipgloss.Height(m.header()) + lipgloss.Height(m.footer())
	if p := m.panes(); p != "" {
		used += lipgloss.Height(p)
	}
	atBottom := m.vp.AtBottom()
	m.vp.Height = max(minViewport, m.height-used)
	if atBottom {
		m.vp.GotoBottom()
	}
}

func (m *Model) renderScrollback(st session.State) string {
	var b strings.Builder
	catFile := ""
	for _, e := range st.History {
		switch e.Type {
		case session.EntryInput:
			b.WriteString(m.prompt(st.User, e.Cwd) + m.styles.Input.Render(e.Content))
			catFile = catTarget(e.Content)
		case session.EntryError:
			b.WriteString(m.styles.Error.Render(e.Content))
		default:
			if e.Content == "" {
				continue
			}
			content := e.Content
			if catFile != "" {
				content = m.hl.File(catFile, "", content)
			}
			b.WriteString(m.styles.Output.Render(content))
		}
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// catTarget returns the file of a plain single-file cat, so its output can
// be highlighted.
func catTarget(line string) string {
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != "cat" || strings.ContainsAny(line, "><") {
		return ""
	}
	return fields[1]
}

func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	parts := []string{m.header(), m.vp.View()}
	if p := m.panes(); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, m.footer())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) header() string {
	cfg := m.ws.Config()
	model := "no model"
	if m.ws.HasModel() {
		model = cfg.AI.Provider + "/" + cfg.AI.Model
	}
	return m.styles.Header.Render(cfg.Project.Name) + m.styles.Muted.Render(" · "+model)
}

func (m *Model) panes() string {
	var out []string
	if m.typing != nil {
		out = append(out, m.typingPane())
	}
	if r := m.reviewPane(); r != "" {
		out = append(out, r)
	}
	return strings.Join(out, "\n")
}

func (m *Model) typingPane() string {
	f := m.typing.file
	body := tail(m.hl.File(f.Name, f.Language, m.typing.content), typingLines)
	return m.styles.Panel.Width(max(10, m.width-2)).Render(
		m.styles.Title.Render("writing "+f.Name) + "\n" + body)
}

func (m *Model) reviewPane() string {
	pending := m.ws.Engine().Pending()
	if len(pending) == 0 {
		return ""
	}

	var b strings.Builder
	if m.reply != "" {
		b.WriteString(clip(m.renderMarkdown(m.reply), max(2, m.height/6)))
		b.WriteByte('\n')
	}
	for i, p := range pending {
		name := p.FileName
		marker := "  "
		if i == m.selected && m.state == StateReview {
			marker = "› "
			name = m.styles.Selected.Render(name)
		}
		b.WriteString(marker + name + " " +
			m.styles.Added.Render(fmt.Sprintf("+%d", p.Added)) + " " +
			m.styles.Removed.Render(fmt.Sprintf("-%d", p.Removed)))
		if p.IsNew {
			b.WriteString(m.styles.Muted.Render(" new"))
		}
		b.WriteByte('\n')
	}
	if p := m.selectedPatch(pending); p != nil && m.showDiff && m.state == StateReview {
		b.WriteString(clip(m.hl.Diff(m.ws.Engine().Preview(p)), max(4, m.height/3)))
	}
	return m.styles.Panel.Width(max(10, m.width-2)).Render(strings.TrimSuffix(b.String(), "\n"))
}

func (m *Model) footer() string {
	status := m.status
	if m.busy && status == "" {
		status = "working..."
	}
	return m.styles.Status.Render(status) + "\n" + m.promptLine() + m.input.View()
}

func (m *Model) promptLine() string {
	switch m.state {
	case StateAsk:
		return m.styles.Mode.Render("ask› ")
	case StateReview:
		return m.styles.Muted.Render("a accept · r reject · A accept all · d diff · esc back ")
	default:
		st := m.ws.Session().Snapshot()
		return m.prompt(st.User, st.Cwd)
	}
}

// clip keeps the first n lines of s.
func clip(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + "\n…"
}
