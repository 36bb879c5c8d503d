package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/drillz/internal/ui/theme"
)

// MasteryBar renders one topic's mastery as "label  ████░░░░   62%".
type MasteryBar struct {
	Label string
	Value float64 // [0,1]
	Width int

	// LabelWidth pads the label so bars in a column line up.
	LabelWidth int

	// Weak topics are drawn in the accent color.
	Weak bool
}

func (m MasteryBar) View() string {
	label := m.Label
	if pad := m.LabelWidth - lipgloss.Width(label); pad > 0 {
		label += strings.Repeat(" ", pad)
	}
	label = lipgloss.NewStyle().Foreground(theme.Text).Render(label) + "  "
	pct := lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("  %3d%%", int(m.Value*100+0.5)))

	n := max(m.Width-lipgloss.Width(label)-lipgloss.Width(pct), 4)
	on := min(max(int(float64(n)*m.Value+0.5), 0), n)

	fill := theme.Secondary
	if m.Weak {
		fill = theme.Accent
	}
	return label +
		lipgloss.NewStyle().Background(fill).Render(strings.Repeat(" ", on)) +
		lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", n-on)) +
		pct
}
