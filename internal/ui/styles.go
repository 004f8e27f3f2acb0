package ui

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary   = lipgloss.Color("205")
	ColorSecondary = lipgloss.Color("241")
	ColorSuccess   = lipgloss.Color("42")
	ColorError     = lipgloss.Color("160")
	ColorWarning   = lipgloss.Color("214")
	ColorText      = lipgloss.Color("252")

	StyleTitle   = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	StyleSubtle  = lipgloss.NewStyle().Foreground(ColorSecondary)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleText    = lipgloss.NewStyle().Foreground(ColorText)

	// StyleSceneBox はシーン一覧の枠なのだ
	StyleSceneBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorSecondary).
			Padding(0, 1)
)
