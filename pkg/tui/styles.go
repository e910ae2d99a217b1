package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Minimal color palette
var (
	DimColor    = lipgloss.Color("#6c6c6c")
	TextColor   = lipgloss.Color("#e0e0e0")
	AccentColor = lipgloss.Color("#7aa2f7")
	ErrorColor  = lipgloss.Color("#f7768e")
	OKColor     = lipgloss.Color("#9ece6a")
	WarnColor   = lipgloss.Color("#e0af68")
	InputAreaBg = lipgloss.Color("#1f2335")
)

// Log entry styles
var (
	RequestStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(AccentColor).
			PaddingLeft(1)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(DimColor)

	TestOutputStyle = lipgloss.NewStyle().
			Foreground(DimColor).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	InputAreaStyle = lipgloss.NewStyle().
			Background(InputAreaBg).
			Padding(0, 1)
)

// Status line styles, picked by status class
var (
	Status2xxStyle = lipgloss.NewStyle().Foreground(OKColor).Bold(true)
	Status3xxStyle = lipgloss.NewStyle().Foreground(AccentColor).Bold(true)
	Status4xxStyle = lipgloss.NewStyle().Foreground(WarnColor).Bold(true)
	Status5xxStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
)

// Footer styles
var (
	FooterStyle = lipgloss.NewStyle().
			Foreground(DimColor)

	FooterAppNameStyle = lipgloss.NewStyle().
				Foreground(AccentColor).
				Bold(true).
				PaddingRight(1)

	FooterEnvStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			PaddingRight(1)

	ShortcutKeyStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	ShortcutDescStyle = lipgloss.NewStyle().
				Foreground(DimColor)
)

// statusStyle returns the style for an HTTP status code.
func statusStyle(code int) lipgloss.Style {
	switch {
	case code >= 500:
		return Status5xxStyle
	case code >= 400:
		return Status4xxStyle
	case code >= 300:
		return Status3xxStyle
	default:
		return Status2xxStyle
	}
}
