package ui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Faint    lipgloss.Style
	Box      lipgloss.Style
	Spinner  lipgloss.Style
	Prompt   lipgloss.Style
}

func defaultStyles() Styles {
	base := lipgloss.NewStyle()
	return Styles{
		Title:    base.Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		Subtitle: base.Faint(true),
		Label:    base.Foreground(lipgloss.Color("#A3A3A3")).Width(15),
		Value:    base.Foreground(lipgloss.Color("#D1D5DB")).Width(22),
		Success:  base.Foreground(lipgloss.Color("#22C55E")),
		Error:    base.Foreground(lipgloss.Color("#EF4444")),
		Warning:  base.Foreground(lipgloss.Color("#F59E0B")),
		Faint:    base.Faint(true),
		Box:      base.Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3F3F46")).Padding(0, 1),
		Spinner:  base.Foreground(lipgloss.Color("#22D3EE")),
		Prompt:   base.Foreground(lipgloss.Color("#60A5FA")),
	}
}
