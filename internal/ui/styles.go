package ui

import "github.com/charmbracelet/lipgloss"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warning   = lipgloss.AdaptiveColor{Light: "#B58900", Dark: "#F2C94C"}
	text      = lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#fafafa"}
	muted     = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			MarginBottom(1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			Padding(1, 2)

	ActivePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(highlight).
				Padding(1, 2)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(text).
			MarginBottom(1)

	MutedStyle = lipgloss.NewStyle().
			Foreground(muted)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1).
			MarginTop(1)

	LabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight)

	SavedStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true)

	PendingStyle = lipgloss.NewStyle().
			Foreground(warning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	FlashStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4CAF50")).
			Padding(0, 1)

	DialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlight).
			Padding(2, 3).
			Align(lipgloss.Center)

	SelectedListItemStyle = lipgloss.NewStyle().
				Background(highlight).
				Foreground(lipgloss.Color("#000000"))
)

const (
	SheetIcon = "▦"
	LockIcon  = "🔒"
)
