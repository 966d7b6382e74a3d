// Package tui provides the interactive terminal front end of archpm.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - matches the CLI colors
var (
	ColorPrimary   = lipgloss.Color("#1793D1") // Arch blue
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorSuccess   = lipgloss.Color("#10B981") // Green
	ColorWarning   = lipgloss.Color("#F59E0B") // Yellow
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorText      = lipgloss.Color("#F3F4F6") // Light gray
	ColorBg        = lipgloss.Color("#1F2937") // Dark gray
	ColorBgAlt     = lipgloss.Color("#374151") // Slightly lighter
)

// RepoColors maps repositories to badge colors.
var RepoColors = map[string]lipgloss.Color{
	"core":     lipgloss.Color("#1793D1"),
	"extra":    lipgloss.Color("#0E7490"),
	"multilib": lipgloss.Color("#7C3AED"),
	"aur":      lipgloss.Color("#DB2777"),
	"local":    lipgloss.Color("#4B5563"),
}

// Styles contains all the lipgloss styles used in the TUI
type Styles struct {
	Header lipgloss.Style

	// Tabs
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	// Content
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Description lipgloss.Style

	ListItemSelected lipgloss.Style

	// Package display
	PackageName    lipgloss.Style
	PackageVersion lipgloss.Style
	PackageDesc    lipgloss.Style

	// Status indicators
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	InputPrompt lipgloss.Style

	// Help
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	// Dialog
	Dialog       lipgloss.Style
	DialogTitle  lipgloss.Style
	DialogButton lipgloss.Style
}

// DefaultStyles returns the default style configuration
func DefaultStyles() *Styles {
	s := &Styles{}

	s.Header = lipgloss.NewStyle().
		Foreground(ColorText).
		Background(ColorBgAlt).
		Padding(0, 1).
		Bold(true)

	tab := lipgloss.NewStyle().Padding(0, 2)
	s.TabActive = tab.
		Foreground(ColorPrimary).
		Bold(true).
		Underline(true)
	s.TabInactive = tab.
		Foreground(ColorMuted)

	s.Title = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true)

	s.Subtitle = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Bold(true)

	s.Description = lipgloss.NewStyle().
		Foreground(ColorMuted)

	s.ListItemSelected = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)

	s.PackageName = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true)

	s.PackageVersion = lipgloss.NewStyle().
		Foreground(ColorSuccess)

	s.PackageDesc = lipgloss.NewStyle().
		Foreground(ColorMuted)

	s.Success = lipgloss.NewStyle().
		Foreground(ColorSuccess).
		Bold(true)

	s.Warning = lipgloss.NewStyle().
		Foreground(ColorWarning).
		Bold(true)

	s.Error = lipgloss.NewStyle().
		Foreground(ColorError).
		Bold(true)

	s.Info = lipgloss.NewStyle().
		Foreground(ColorSecondary)

	s.InputPrompt = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)

	s.HelpKey = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Bold(true)

	s.HelpDesc = lipgloss.NewStyle().
		Foreground(ColorMuted)

	s.Dialog = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 2).
		Width(60)

	s.DialogTitle = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true)

	s.DialogButton = lipgloss.NewStyle().
		Foreground(ColorText).
		Background(ColorPrimary).
		Padding(0, 2).
		MarginRight(1)

	return s
}

// Badge creates a badge-style label
func Badge(text string, color lipgloss.Color) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(color).
		Padding(0, 1).
		Render(text)
}

// RepoBadge creates a badge for a repository
func RepoBadge(repository string) string {
	color, ok := RepoColors[strings.ToLower(repository)]
	if !ok {
		color = ColorMuted
	}
	return Badge(repository, color)
}
