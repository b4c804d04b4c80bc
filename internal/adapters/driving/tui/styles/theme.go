// Package styles holds the palette and lipgloss styles of the chat TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the chat palette.
type Theme struct {
	Accent  lipgloss.Color // helpdesk label, title
	Asker   lipgloss.Color // user label
	Text    lipgloss.Color
	Dim     lipgloss.Color // sources, hints, status bar
	Good    lipgloss.Color // high confidence, confirmations
	Caution lipgloss.Color // escalations
	Bad     lipgloss.Color // low confidence, errors
	Frame   lipgloss.Color
	Bar     lipgloss.Color
}

// DefaultTheme returns the dark palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:  lipgloss.Color("#89B4FA"),
		Asker:   lipgloss.Color("#94E2D5"),
		Text:    lipgloss.Color("#CDD6F4"),
		Dim:     lipgloss.Color("#7F849C"),
		Good:    lipgloss.Color("#A6E3A1"),
		Caution: lipgloss.Color("#FAB387"),
		Bad:     lipgloss.Color("#F38BA8"),
		Frame:   lipgloss.Color("#45475A"),
		Bar:     lipgloss.Color("#181825"),
	}
}

// Styles are the rendered styles derived from a Theme.
type Styles struct {
	theme *Theme

	Title      lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Success    lipgloss.Style
	Error      lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	// Turn labels.
	User      lipgloss.Style
	Assistant lipgloss.Style

	Escalation lipgloss.Style
}

// NewStyles derives styles from theme, falling back to DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

	return &Styles{
		theme:   theme,
		Title:   fg(theme.Accent).Bold(true).Padding(0, 1),
		Normal:  fg(theme.Text),
		Muted:   fg(theme.Dim),
		Success: fg(theme.Good),
		Error:   fg(theme.Bad),
		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Frame).
			Padding(0, 1),
		StatusBar:  fg(theme.Dim).Background(theme.Bar).Padding(0, 1),
		User:       fg(theme.Asker).Bold(true),
		Assistant:  fg(theme.Accent).Bold(true),
		Escalation: fg(theme.Caution).Bold(true),
	}
}

// DefaultStyles returns styles for the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Confidence picks the style for a confidence label: high is good, low is
// bad, medium and unknown labels are dimmed.
func (s *Styles) Confidence(level string) lipgloss.Style {
	switch level {
	case "high":
		return s.Success
	case "low":
		return s.Error
	default:
		return s.Muted
	}
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}
