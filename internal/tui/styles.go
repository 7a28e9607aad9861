package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent      = lipgloss.Color("#8BC34A")
	muted       = lipgloss.Color("#6b7280")
	destructive = lipgloss.Color("#e53935")
	border      = lipgloss.Color("#2a3850")
)

type styles struct {
	Title      lipgloss.Style
	Pane       lipgloss.Style
	ActivePane lipgloss.Style
	Heading    lipgloss.Style
	Selected   lipgloss.Style
	Optimistic lipgloss.Style
	Error      lipgloss.Style
	Muted      lipgloss.Style
	Help       lipgloss.Style
}

func defaultStyles() styles {
	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
	return styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(accent),
		Pane:       pane,
		ActivePane: pane.BorderForeground(accent),
		Heading:    lipgloss.NewStyle().Bold(true).Underline(true),
		Selected:   lipgloss.NewStyle().Foreground(accent).Bold(true),
		Optimistic: lipgloss.NewStyle().Foreground(muted).Italic(true),
		Error:      lipgloss.NewStyle().Foreground(destructive),
		Muted:      lipgloss.NewStyle().Foreground(muted),
		Help:       lipgloss.NewStyle().Foreground(muted),
	}
}
