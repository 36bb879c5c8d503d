package practice

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/drillz/internal/diagnosis"
	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/ui/layout"
	"github.com/abhisek/drillz/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	switch s.phase {
	case phaseLoading:
		return centered(width, theme.Hint, "\n\nPicking your next item...")
	case phaseError:
		return centered(width, lipgloss.NewStyle().Foreground(theme.Error), "\n\n"+s.errMsg+"\n\nPress Enter to try again.")
	}

	textWidth := width - 8
	if !layout.IsCompactWidth(width) {
		textWidth = min(textWidth, 90)
	}

	var b strings.Builder
	b.WriteString(s.renderInfo(width))
	b.WriteString("\n\n")
	b.WriteString(s.renderItem(textWidth))
	b.WriteString("\n")

	switch s.phase {
	case phaseAnswer:
		b.WriteString(s.renderHints(textWidth))
		if s.isText {
			b.WriteString("  " + s.input.View())
		} else {
			b.WriteString(s.choice.View())
		}
	case phaseGrading:
		b.WriteString(theme.Hint.Render("  Checking..."))
	case phaseFeedback:
		b.WriteString(s.renderFeedback(textWidth))
	}
	return lipgloss.NewStyle().PaddingLeft(2).Render(b.String())
}

// renderInfo is the line above the item: title, band, type and topics on
// the left, the session tally on the right.
func (s *Screen) renderInfo(width int) string {
	it := s.item
	left := theme.Title.Render(it.Title) + "  " +
		bandStyle(it.Band).Render(string(it.Band)) + "  " +
		theme.Hint.Render(string(it.Type))
	if it.Source == item.SourceGenerated {
		left += "  " + theme.Hint.Render("generated")
	}
	right := theme.Hint.Render(fmt.Sprintf("%d correct of %d", s.correct, s.served))

	line := left
	if pad := width - lipgloss.Width(left) - lipgloss.Width(right) - 6; pad > 0 {
		line += strings.Repeat(" ", pad) + right
	}
	line += "\n" + theme.Hint.Render(strings.Join(it.Topics, ", "))
	return line
}

func (s *Screen) renderItem(width int) string {
	style := theme.Body.Width(width)
	if s.item.Type == item.TypeCode {
		style = theme.Code.Width(width)
	}
	return style.Render(s.item.Body) + "\n"
}

func (s *Screen) renderHints(width int) string {
	if s.hints == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < s.hints; i++ {
		b.WriteString(theme.Hint.Width(width).Render(fmt.Sprintf("Hint %d: %s", i+1, s.item.Hints[i])))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (s *Screen) renderFeedback(width int) string {
	a := s.attempt
	var b strings.Builder
	if a.IsCorrect {
		b.WriteString(theme.Correct.Render("Correct!"))
	} else {
		b.WriteString(theme.Incorrect.Render("Not quite"))
	}
	if a.Score > 0 && a.Score < 1 {
		b.WriteString(theme.Hint.Render(fmt.Sprintf("  score %.2f", a.Score)))
	}
	b.WriteString("\n\n")
	b.WriteString(theme.Hint.Render("Your answer: "))
	b.WriteString(theme.Body.Render(a.Submitted))
	b.WriteString("\n")

	if a.Feedback != "" {
		b.WriteString("\n")
		b.WriteString(theme.Body.Width(width).Render(a.Feedback))
		b.WriteString("\n")
	}
	if a.Diagnosis != "" && !a.IsCorrect {
		b.WriteString("\n")
		label := "Diagnosis: " + string(a.Diagnosis)
		if m := diagnosis.Lookup(a.MisconceptionID); m != nil {
			label = "Diagnosis: " + m.Label
		} else if a.MisconceptionID != "" {
			label += " (" + a.MisconceptionID + ")"
		}
		b.WriteString(theme.Hint.Render(label))
		b.WriteString("\n")
	}
	if len(a.NewlyWeak) > 0 {
		b.WriteString(theme.Weak.Render("Marked for review: " + strings.Join(a.NewlyWeak, ", ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("Answered in %s", a.TimeSpent.Round(100*time.Millisecond))))
	return b.String()
}

func bandStyle(b item.Band) lipgloss.Style {
	switch b {
	case item.Easy:
		return lipgloss.NewStyle().Foreground(theme.Success)
	case item.Hard:
		return lipgloss.NewStyle().Foreground(theme.Error)
	default:
		return lipgloss.NewStyle().Foreground(theme.Accent)
	}
}

func centered(width int, style lipgloss.Style, text string) string {
	return style.Width(width).Align(lipgloss.Center).Render(text)
}
