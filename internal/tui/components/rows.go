package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultBarWidth = 40
	maxBarWidth     = 80
)

// Rows renders inserted/total rows as a progress bar with a counter.
type Rows struct {
	bar   progress.Model
	done  int
	total int
	count lipgloss.Style
}

// NewRows creates an empty row counter.
func NewRows() Rows {
	return Rows{
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(defaultBarWidth)),
		count: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// Reset starts counting toward a new total.
func (r *Rows) Reset(total int) tea.Cmd {
	r.done = 0
	r.total = total
	return r.bar.SetPercent(0)
}

// Set records done rows and animates the bar toward the new fraction.
func (r *Rows) Set(done, total int) tea.Cmd {
	r.done = done
	r.total = total
	return r.bar.SetPercent(r.Percent())
}

// Percent returns the completed fraction in [0, 1]. An empty total counts as done.
func (r Rows) Percent() float64 {
	if r.total <= 0 {
		return 1
	}
	return min(float64(r.done)/float64(r.total), 1)
}

// SetWidth fits the bar into a terminal of the given width.
func (r *Rows) SetWidth(termWidth int) {
	r.bar.Width = max(min(termWidth-30, maxBarWidth), 10)
}

// Update forwards the bar's animation frames.
func (r Rows) Update(msg tea.Msg) (Rows, tea.Cmd) {
	if _, ok := msg.(progress.FrameMsg); !ok {
		return r, nil
	}
	m, cmd := r.bar.Update(msg)
	r.bar = m.(progress.Model)
	return r, cmd
}

func (r Rows) View() string {
	return r.bar.View() + " " + r.count.Render(fmt.Sprintf("%d/%d rows", r.done, r.total))
}
