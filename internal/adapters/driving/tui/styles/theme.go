// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Score bands shared by every result renderer.
const (
	HighScore   = 0.80
	MediumScore = 0.60
)

// Theme defines the colour palette for the TUI.
type Theme struct {
	// Accent colours titles and the selected result.
	Accent lipgloss.AdaptiveColor

	// Text is the default text colour.
	Text lipgloss.AdaptiveColor

	// Subtle is for identifiers, previews and hints.
	Subtle lipgloss.AdaptiveColor

	// Good, Fair and Poor colour the score bands and status messages.
	Good lipgloss.AdaptiveColor
	Fair lipgloss.AdaptiveColor
	Poor lipgloss.AdaptiveColor

	// Border frames the query input.
	Border lipgloss.AdaptiveColor

	// Bar is the status bar background.
	Bar lipgloss.AdaptiveColor
}

// DefaultTheme returns a palette readable on light and dark terminals.
func DefaultTheme() *Theme {
	return &Theme{
		Accent: lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#93C5FD"},
		Text:   lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E5E7EB"},
		Subtle: lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
		Good:   lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#86EFAC"},
		Fair:   lipgloss.AdaptiveColor{Light: "#A16207", Dark: "#FDE68A"},
		Poor:   lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#FCA5A5"},
		Border: lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"},
		Bar:    lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#111827"},
	}
}

// MonochromeTheme returns a palette without colours, for NO_COLOR.
func MonochromeTheme() *Theme {
	none := lipgloss.AdaptiveColor{}
	return &Theme{
		Accent: none,
		Text:   none,
		Subtle: none,
		Good:   none,
		Fair:   none,
		Poor:   none,
		Border: none,
		Bar:    none,
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style
	Border     lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Accent),

		Subtitle: lipgloss.NewStyle().
			Italic(true).
			Foreground(theme.Accent),

		Normal: lipgloss.NewStyle().
			Foreground(theme.Text),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Subtle),

		// Selection stays visible without colour.
		Selected: lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Foreground(theme.Accent),

		Error: lipgloss.NewStyle().
			Foreground(theme.Poor),

		Success: lipgloss.NewStyle().
			Foreground(theme.Good),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Fair),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Subtle).
			Background(theme.Bar).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Faint(true).
			Foreground(theme.Subtle),

		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(theme.Border),
	}
}

// DefaultStyles returns the default styles, dropping colour when NO_COLOR is set.
func DefaultStyles() *Styles {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return NewStyles(MonochromeTheme())
	}
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Score returns the style for a cosine score: success from HighScore,
// warning from MediumScore, error below.
func (s *Styles) Score(score float64) lipgloss.Style {
	switch {
	case score >= HighScore:
		return s.Success
	case score >= MediumScore:
		return s.Warning
	default:
		return s.Error
	}
}
