// Package components holds the bubbletea building blocks of the progress view.
package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Status is a spinner followed by a one-line message.
type Status struct {
	spinner spinner.Model
	message string
	style   lipgloss.Style
}

// NewStatus creates a status line with the given initial message.
func NewStatus(message string) Status {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	return Status{
		spinner: s,
		message: message,
		style:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	}
}

// Init starts the spinner animation.
func (s Status) Init() tea.Cmd {
	return s.spinner.Tick
}

// Update advances the spinner on its tick messages and ignores everything else.
func (s Status) Update(msg tea.Msg) (Status, tea.Cmd) {
	if tick, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(tick)
		return s, cmd
	}
	return s, nil
}

func (s Status) View() string {
	return s.spinner.View() + " " + s.style.Render(s.message)
}

// SetMessage replaces the message shown next to the spinner.
func (s *Status) SetMessage(msg string) {
	s.message = msg
}

// Message returns the current message.
func (s Status) Message() string {
	return s.message
}
