// Package profile shows a learner's accuracy, per-topic mastery and recent
// attempts, and lets them clear topics from the review set.
package profile

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/drillz/internal/engine"
	"github.com/abhisek/drillz/internal/mastery"
	"github.com/abhisek/drillz/internal/router"
	"github.com/abhisek/drillz/internal/screen"
	"github.com/abhisek/drillz/internal/topicgraph"
	"github.com/abhisek/drillz/internal/ui/components"
	"github.com/abhisek/drillz/internal/ui/layout"
	"github.com/abhisek/drillz/internal/ui/theme"
)

// HistoryLimit is how many recent attempts are listed.
const HistoryLimit = 8

// Engine is the read side of *engine.Engine plus weak-topic clearing.
type Engine interface {
	Profile(ctx context.Context, learnerID string) (*mastery.Profile, error)
	History(ctx context.Context, learnerID string, limit int) ([]engine.Attempt, error)
	ClearWeakTopic(ctx context.Context, learnerID, topic string) (bool, error)
	Topics() *topicgraph.Graph
}

type loadedMsg struct {
	Profile *mastery.Profile
	History []engine.Attempt
	Err     error
}

type clearedMsg struct {
	Topic string
	Err   error
}

// Screen is the learner profile view.
type Screen struct {
	eng     Engine
	learner string

	profile *mastery.Profile
	history []engine.Attempt
	cursor  int
	notice  string
	errMsg  string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

func New(eng Engine, learner string) *Screen {
	return &Screen{eng: eng, learner: learner}
}

func (s *Screen) Init() tea.Cmd {
	return s.load()
}

func (s *Screen) Title() string {
	return "Profile: " + s.learner
}

func (s *Screen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{}
	if s.profile != nil && len(s.profile.WeakTopics) > 0 {
		hints = append(hints,
			layout.KeyHint{Key: "↑↓", Description: "Weak topic"},
			layout.KeyHint{Key: "C", Description: "Clear"})
	}
	return append(hints,
		layout.KeyHint{Key: "Esc", Description: "Back"},
		layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

func (s *Screen) load() tea.Cmd {
	eng, learner := s.eng, s.learner
	return func() tea.Msg {
		ctx := context.Background()
		p, err := eng.Profile(ctx, learner)
		if err != nil {
			return loadedMsg{Err: err}
		}
		h, err := eng.History(ctx, learner, HistoryLimit)
		return loadedMsg{Profile: p, History: h, Err: err}
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.profile, s.history = msg.Profile, msg.History
		s.cursor = min(s.cursor, max(len(s.profile.WeakTopics)-1, 0))
		return s, nil

	case clearedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.notice = "Cleared " + s.eng.Topics().Name(msg.Topic) + " from review."
		return s, s.load()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	if s.profile == nil || len(s.profile.WeakTopics) == 0 {
		return s, nil
	}
	switch msg.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.profile.WeakTopics)-1 {
			s.cursor++
		}
	case "c", "C":
		eng, learner, topic := s.eng, s.learner, s.profile.WeakTopics[s.cursor]
		return s, func() tea.Msg {
			_, err := eng.ClearWeakTopic(context.Background(), learner, topic)
			return clearedMsg{Topic: topic, Err: err}
		}
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().Foreground(theme.Error).Render("\n  " + s.errMsg)
	}
	if s.profile == nil {
		return theme.Hint.Render("\n  Loading...")
	}

	p := s.profile
	var b strings.Builder
	b.WriteString("\n")
	if !p.HasAttempts() {
		b.WriteString(theme.Hint.Render("No attempts yet."))
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "%s  %d of %d correct (%.0f%%)   avg %s per item\n",
			theme.Title.Render("Accuracy"), p.CorrectCount, p.TotalCount, p.CorrectRate*100,
			p.AverageTimePerItem.Round(time.Second))
	}

	if len(p.MasteryByTopic) > 0 {
		b.WriteString("\n" + theme.Title.Render("Mastery") + "\n")
		b.WriteString(s.renderMastery(min(width-6, 80)))
	}

	if len(p.WeakTopics) > 0 {
		b.WriteString("\n" + theme.Title.Render("Marked for review") + "\n")
		for i, t := range p.WeakTopics {
			line := "  " + s.eng.Topics().Name(t)
			if i == s.cursor {
				b.WriteString(theme.Selected.Render("▸" + line[1:]))
			} else {
				b.WriteString(theme.Weak.Render(line))
			}
			b.WriteString("\n")
		}
	}
	if s.notice != "" {
		b.WriteString(theme.Hint.Render(s.notice) + "\n")
	}

	if len(s.history) > 0 {
		b.WriteString("\n" + theme.Title.Render("Recent attempts") + "\n")
		for _, a := range s.history {
			mark := theme.Correct.Render("✓")
			if !a.IsCorrect {
				mark = theme.Incorrect.Render("✗")
			}
			line := fmt.Sprintf(" #%-3d %s  %-24s %s", a.AttemptNumber, mark, truncate(a.ItemID, 24), a.CreatedAt.Local().Format("Jan 02 15:04"))
			if a.Diagnosis != "" {
				line += theme.Hint.Render("  " + string(a.Diagnosis))
			}
			b.WriteString(line + "\n")
		}
	}
	return lipgloss.NewStyle().PaddingLeft(2).Render(b.String())
}

func (s *Screen) renderMastery(width int) string {
	topics := make([]string, 0, len(s.profile.MasteryByTopic))
	labelWidth := 0
	for t := range s.profile.MasteryByTopic {
		topics = append(topics, t)
		labelWidth = max(labelWidth, lipgloss.Width(s.eng.Topics().Name(t)))
	}
	sort.Strings(topics)

	var b strings.Builder
	for _, t := range topics {
		bar := components.MasteryBar{
			Label:      s.eng.Topics().Name(t),
			Value:      s.profile.MasteryByTopic[t],
			Width:      width,
			LabelWidth: labelWidth,
			Weak:       s.profile.IsWeak(t),
		}
		b.WriteString(bar.View())
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
