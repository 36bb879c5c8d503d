package practice

import (
	"github.com/abhisek/drillz/internal/engine"
	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/mastery"
)

// itemReadyMsg carries the next item or the reason none could be served.
type itemReadyMsg struct {
	Item *item.Item
	Err  error
}

// attemptMsg carries the graded attempt.
type attemptMsg struct {
	Attempt *engine.Attempt
	Err     error
}

// profileMsg refreshes the header status.
type profileMsg struct {
	Profile *mastery.Profile
}
