package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings active while the progress bar is shown.
type KeyMap struct {
	Cancel key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Cancel: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("ctrl+c", "cancel"),
		),
	}
}

// HelpText returns a formatted help string.
func (k KeyMap) HelpText() string {
	h := k.Cancel.Help()
	return h.Key + " " + h.Desc
}
