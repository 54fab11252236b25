package main

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual styling for the terminal client.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color
}

// DefaultTheme returns the default theme.
func DefaultTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("12"),  // Blue
		Secondary: lipgloss.Color("14"),  // Cyan
		Success:   lipgloss.Color("10"),  // Green
		Warning:   lipgloss.Color("11"),  // Yellow
		Error:     lipgloss.Color("9"),   // Red
		Muted:     lipgloss.Color("240"), // Gray
	}
}

// styles are the lipgloss styles derived from a Theme.
type styles struct {
	title  lipgloss.Style
	user   lipgloss.Style
	agent  lipgloss.Style
	system lipgloss.Style
	time   lipgloss.Style
	on     lipgloss.Style
	off    lipgloss.Style
	busy   lipgloss.Style
	status lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		user:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		agent:  lipgloss.NewStyle().Bold(true).Foreground(t.Secondary),
		system: lipgloss.NewStyle().Italic(true).Foreground(t.Muted),
		time:   lipgloss.NewStyle().Foreground(t.Muted),
		on:     lipgloss.NewStyle().Foreground(t.Success),
		off:    lipgloss.NewStyle().Foreground(t.Error),
		busy:   lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		status: lipgloss.NewStyle().Foreground(t.Muted),
	}
}
