// Package screen defines the contract between the router and the views
// of the practice TUI.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/drillz/internal/ui/layout"
)

// Screen is one view on the router's stack.
type Screen interface {
	Init() tea.Cmd

	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the content area only; the app draws header and footer.
	View(width, height int) string

	// Title is shown centered in the header.
	Title() string
}

// KeyHintProvider is implemented by screens that supply their own footer
// hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider is implemented by screens that put a short status string,
// such as the learner's running accuracy, on the right of the header.
type StatusProvider interface {
	Status() string
}
