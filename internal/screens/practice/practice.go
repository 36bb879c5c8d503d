// Package practice is the main TUI loop: serve an item, take an answer,
// show the grade and move on.
package practice

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/drillz/internal/engine"
	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/mastery"
	"github.com/abhisek/drillz/internal/router"
	"github.com/abhisek/drillz/internal/screen"
	"github.com/abhisek/drillz/internal/ui/components"
	"github.com/abhisek/drillz/internal/ui/layout"
)

// Engine is the part of *engine.Engine the practice loop drives.
type Engine interface {
	SelectItem(ctx context.Context, learnerID string, opts engine.SelectOptions) (*item.Item, error)
	SubmitAnswer(ctx context.Context, learnerID, itemID, answer string, opts engine.SubmitOptions) (*engine.Attempt, error)
	Profile(ctx context.Context, learnerID string) (*mastery.Profile, error)
}

type phase int

const (
	phaseLoading phase = iota
	phaseAnswer
	phaseGrading
	phaseFeedback
	phaseError
)

// Screen runs the practice loop for one learner.
type Screen struct {
	eng     Engine
	learner string
	opts    engine.SelectOptions

	// profileScreen builds the screen pushed by the profile key. Nil hides
	// the binding.
	profileScreen func() screen.Screen

	phase   phase
	item    *item.Item
	choice  components.Choice
	input   components.TextInput
	isText  bool
	hints   int
	started time.Time
	attempt *engine.Attempt
	profile *mastery.Profile
	errMsg  string
	served  int
	correct int

	now func() time.Time
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.StatusProvider = (*Screen)(nil)

// New creates a practice screen. opts fixes the difficulty, topics or kind
// for every item served.
func New(eng Engine, learner string, opts engine.SelectOptions, profileScreen func() screen.Screen) *Screen {
	return &Screen{
		eng:           eng,
		learner:       learner,
		opts:          opts,
		profileScreen: profileScreen,
		now:           time.Now,
	}
}

func (s *Screen) Init() tea.Cmd {
	return tea.Batch(s.nextItem(), s.loadProfile())
}

// Resume refreshes the header after returning from another screen.
func (s *Screen) Resume() tea.Cmd {
	return s.loadProfile()
}

func (s *Screen) Title() string {
	return "Practice"
}

// Status shows the learner's running accuracy.
func (s *Screen) Status() string {
	if s.profile == nil || !s.profile.HasAttempts() {
		return s.learner
	}
	return fmt.Sprintf("%s  %d/%d  %.0f%%", s.learner, s.profile.CorrectCount, s.profile.TotalCount, s.profile.CorrectRate*100)
}

func (s *Screen) KeyHints() []layout.KeyHint {
	var hints []layout.KeyHint
	switch s.phase {
	case phaseAnswer:
		switch {
		case s.isText && s.input.Multiline:
			hints = append(hints, layout.KeyHint{Key: "Ctrl+S", Description: "Submit"})
		case s.isText:
			hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Submit"})
		case s.choice.Multi:
			hints = append(hints,
				layout.KeyHint{Key: "Space", Description: "Toggle"},
				layout.KeyHint{Key: "Enter", Description: "Submit"})
		default:
			hints = append(hints, layout.KeyHint{Key: "1-9/Enter", Description: "Choose"})
		}
		if s.item != nil && s.hints < len(s.item.Hints) {
			hints = append(hints, layout.KeyHint{Key: "Tab", Description: "Hint"})
		}
		hints = append(hints, layout.KeyHint{Key: "Ctrl+N", Description: "Skip"})
	case phaseFeedback, phaseError:
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Next"})
	}
	if s.profileScreen != nil && s.phase != phaseAnswer {
		hints = append(hints, layout.KeyHint{Key: "P", Description: "Profile"})
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case itemReadyMsg:
		return s.handleItem(msg)
	case attemptMsg:
		return s.handleAttempt(msg)
	case profileMsg:
		s.profile = msg.Profile
		return s, nil
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.phase == phaseAnswer && s.isText {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) nextItem() tea.Cmd {
	eng, learner, opts := s.eng, s.learner, s.opts
	return func() tea.Msg {
		it, err := eng.SelectItem(context.Background(), learner, opts)
		return itemReadyMsg{Item: it, Err: err}
	}
}

func (s *Screen) loadProfile() tea.Cmd {
	eng, learner := s.eng, s.learner
	return func() tea.Msg {
		p, err := eng.Profile(context.Background(), learner)
		if err != nil {
			return nil
		}
		return profileMsg{Profile: p}
	}
}

func (s *Screen) handleItem(msg itemReadyMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.phase = phaseError
		s.errMsg = describe(msg.Err)
		return s, nil
	}

	s.item = msg.Item
	s.attempt = nil
	s.hints = 0
	s.errMsg = ""
	s.started = s.now()
	s.phase = phaseAnswer
	s.served++

	if s.item.Type.IsChoice() {
		s.isText = false
		s.choice = components.NewChoice(s.item.Options, s.item.Type == item.TypeMultiChoice)
		return s, nil
	}
	s.isText = true
	s.input = components.NewTextInput(placeholder(s.item.Type), s.item.Type == item.TypeCode, 72)
	return s, s.input.Init()
}

func (s *Screen) handleAttempt(msg attemptMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.phase = phaseError
		s.errMsg = describe(msg.Err)
		return s, nil
	}
	s.attempt = msg.Attempt
	if msg.Attempt.IsCorrect {
		s.correct++
	}
	s.phase = phaseFeedback
	return s, s.loadProfile()
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	switch s.phase {
	case phaseLoading, phaseGrading:
		return s, nil

	case phaseFeedback, phaseError:
		switch key {
		case "p", "P":
			if s.profileScreen != nil {
				return s, func() tea.Msg { return router.PushScreenMsg{Screen: s.profileScreen()} }
			}
		case "enter", "space", " ", "n":
			s.phase = phaseLoading
			return s, s.nextItem()
		}
		return s, nil
	}

	switch key {
	case "tab":
		if s.item != nil && s.hints < len(s.item.Hints) {
			s.hints++
		}
		return s, nil
	case "ctrl+n":
		s.phase = phaseLoading
		return s, s.nextItem()
	}

	if s.isText {
		if s.input.IsSubmitKey(key) {
			if s.input.Value() == "" {
				return s, nil
			}
			return s.submit(s.input.Value())
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}

	s.choice, _ = s.choice.Update(msg)
	if s.choice.Submitted {
		return s.submit(s.choice.Answer())
	}
	return s, nil
}

func (s *Screen) submit(answer string) (screen.Screen, tea.Cmd) {
	s.phase = phaseGrading
	eng, learner, itemID := s.eng, s.learner, s.item.ID
	opts := engine.SubmitOptions{
		TimeSpent: s.now().Sub(s.started),
		HintsUsed: s.hints,
	}
	return s, func() tea.Msg {
		a, err := eng.SubmitAnswer(context.Background(), learner, itemID, answer, opts)
		return attemptMsg{Attempt: a, Err: err}
	}
}

func placeholder(t item.Type) string {
	switch t {
	case item.TypeCode:
		return "Write your code..."
	case item.TypeFillBlank:
		return "Fill in the blank..."
	default:
		return "Type your answer..."
	}
}

// describe turns engine errors into a line a learner can act on.
func describe(err error) string {
	var nc *engine.NoCandidateError
	if errors.As(err, &nc) {
		return "No item matches the current filters. Import more items or widen the selection."
	}
	return err.Error()
}
