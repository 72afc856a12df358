package ui

import "github.com/charmbracelet/lipgloss"

// Colors for the terminal theme
var (
	ColorPrompt  = lipgloss.Color("#00E0B8") // Teal user@host
	ColorPath    = lipgloss.Color("#7C5CFF") // Violet cwd
	ColorText    = lipgloss.Color("#E6EDF3")
	ColorOutput  = lipgloss.Color("#9DA5B4")
	ColorError   = lipgloss.Color("#FF4D4F")
	ColorBorder  = lipgloss.Color("#1F2430")
	ColorMuted   = lipgloss.Color("#57606A")
	ColorSuccess = lipgloss.Color("#059669")
	ColorWarning = lipgloss.Color("#D97706")
	ColorAgent   = lipgloss.Color("#A78BFA")
)

// Styles holds every style the terminal renders with.
type Styles struct {
	PromptUser lipgloss.Style
	PromptSep  lipgloss.Style
	PromptPath lipgloss.Style
	Dollar     lipgloss.Style
	Input      lipgloss.Style
	Output     lipgloss.Style
	Error      lipgloss.Style

	Header   lipgloss.Style
	Status   lipgloss.Style
	Panel    lipgloss.Style
	Title    lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Added    lipgloss.Style
	Removed  lipgloss.Style
	Mode     lipgloss.Style
}

// DefaultStyles returns the dark terminal theme.
func DefaultStyles() *Styles {
	return &Styles{
		PromptUser: lipgloss.NewStyle().Foreground(ColorPrompt).Bold(true),
		PromptSep:  lipgloss.NewStyle().Foreground(ColorMuted),
		PromptPath: lipgloss.NewStyle().Foreground(ColorPath).Bold(true),
		Dollar:     lipgloss.NewStyle().Foreground(ColorMuted),
		Input:      lipgloss.NewStyle().Foreground(ColorText),
		Output: lipgloss.NewStyle().Foreground(ColorOutput).
			PaddingLeft(1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(ColorBorder),
		Error: lipgloss.NewStyle().Foreground(ColorError).
			PaddingLeft(1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(ColorError),

		Header: lipgloss.NewStyle().Foreground(ColorPrompt).Bold(true),
		Status: lipgloss.NewStyle().Foreground(ColorMuted),
		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1),
		Title:    lipgloss.NewStyle().Foreground(ColorAgent).Bold(true),
		Selected: lipgloss.NewStyle().Foreground(ColorText).Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(ColorMuted),
		Added:    lipgloss.NewStyle().Foreground(ColorSuccess),
		Removed:  lipgloss.NewStyle().Foreground(ColorError),
		Mode:     lipgloss.NewStyle().Foreground(ColorWarning).Bold(true),
	}
}
