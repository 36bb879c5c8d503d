package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/drillz/internal/ui/theme"
)

// Choice is a numbered option list. In single mode a digit or Enter
// submits the option under the cursor; in multi mode Space toggles and
// Enter submits the picked set.
type Choice struct {
	Options   []string
	Multi     bool
	Cursor    int
	Picked    []bool
	Submitted bool
}

func NewChoice(options []string, multi bool) Choice {
	return Choice{
		Options: options,
		Multi:   multi,
		Picked:  make([]bool, len(options)),
	}
}

func (c Choice) Update(msg tea.Msg) (Choice, tea.Cmd) {
	if c.Submitted {
		return c, nil
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
	case "down", "j":
		if c.Cursor < len(c.Options)-1 {
			c.Cursor++
		}
	case "space", " ":
		if c.Multi {
			c.Picked[c.Cursor] = !c.Picked[c.Cursor]
		}
	case "enter":
		if c.Multi && !c.anyPicked() {
			return c, nil
		}
		c.Submitted = true
	default:
		if n, ok := digit(key); ok && n <= len(c.Options) {
			c.Cursor = n - 1
			if c.Multi {
				c.Picked[c.Cursor] = !c.Picked[c.Cursor]
			} else {
				c.Submitted = true
			}
		}
	}
	return c, nil
}

// Answer is the submission text: the chosen option, or the picked options
// joined by commas in display order.
func (c Choice) Answer() string {
	if !c.Multi {
		if c.Cursor < 0 || c.Cursor >= len(c.Options) {
			return ""
		}
		return c.Options[c.Cursor]
	}
	var picked []string
	for i, p := range c.Picked {
		if p {
			picked = append(picked, c.Options[i])
		}
	}
	return strings.Join(picked, ",")
}

func (c Choice) anyPicked() bool {
	for _, p := range c.Picked {
		if p {
			return true
		}
	}
	return false
}

func (c Choice) View() string {
	var b strings.Builder
	for i, opt := range c.Options {
		prefix := "  "
		if i == c.Cursor && !c.Submitted {
			prefix = "▸ "
		}
		box := ""
		if c.Multi {
			box = "[ ] "
			if c.Picked[i] {
				box = "[x] "
			}
		}
		line := fmt.Sprintf("%s%d) %s%s", prefix, i+1, box, opt)

		style := theme.Unselected
		switch {
		case c.Submitted && (c.Multi && c.Picked[i] || !c.Multi && i == c.Cursor):
			style = theme.Selected
		case c.Submitted:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == c.Cursor:
			style = theme.Selected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// digit parses a single key 1-9.
func digit(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	return int(key[0] - '0'), true
}
