// Package tui provides Bubble Tea views for reprox batch results.
//
// TUI rules:
//   - TUI is opt-in only (--tui flag)
//   - TUI is read-only; it shows the same payload --format would print
//   - No TUI-exclusive data
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	successColor   = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	highlightColor = lipgloss.Color("#3B82F6") // Blue
)

// Styles for TUI components.
var (
	// TitleStyle for headers and titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// LabelStyle for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(18)

	// ValueStyle for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	// BucketStyle for bucket headings.
	BucketStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warningColor)

	// PathStyle for directory paths under a bucket.
	PathStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			PaddingLeft(2)

	// ErrorStyle for error states.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)

	// StatBoxStyle for stat display boxes.
	StatBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlightColor).
			Padding(0, 2).
			Width(20).
			Align(lipgloss.Center)

	// StatLabelStyle for stat labels.
	StatLabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Align(lipgloss.Center)

	// StatValueStyle for stat values.
	StatValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Align(lipgloss.Center)
)

// StatusStyle returns the style for an outcome status.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "promoted":
		return lipgloss.NewStyle().Foreground(successColor)
	case "invalid", "already_exists":
		return lipgloss.NewStyle().Foreground(warningColor)
	case "other":
		return ErrorStyle
	default:
		return ValueStyle
	}
}
