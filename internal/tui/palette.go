package tui

import "github.com/charmbracelet/lipgloss"

// Terminal palette shared by the progress view and the summary table.
var (
	ColorInk       = lipgloss.Color("#ECEFF4")
	ColorDim       = lipgloss.Color("#6C7380")
	ColorAccent    = lipgloss.Color("#8FBCBB")
	ColorAccentAlt = lipgloss.Color("#5E81AC")
	ColorSuccess   = lipgloss.Color("#A3BE8C")
	ColorWarn      = lipgloss.Color("#D08770")
)
