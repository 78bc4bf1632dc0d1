package tui

import "github.com/charmbracelet/lipgloss"

// ANSI 256 palette shared by the progress view and its components.
var (
	ColorAccent = lipgloss.Color("39")
	ColorDim    = lipgloss.Color("245")
	ColorWarn   = lipgloss.Color("214")
	ColorFail   = lipgloss.Color("196")
	ColorHint   = lipgloss.Color("240")
)

var (
	// header: program name and target table
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	SubtitleStyle = lipgloss.NewStyle().Foreground(ColorDim)

	// body lines are indented under the header
	PanelStyle   = lipgloss.NewStyle().PaddingLeft(2)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarn)

	// key help sits one blank line below the bar
	HelpStyle = lipgloss.NewStyle().Foreground(ColorHint).MarginTop(1)
)

// SymbolCross prefixes the failure line.
const SymbolCross = "✗"
