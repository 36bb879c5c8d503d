package components

import (
	"strings"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// TextInput is a one-line input, or a multi-line editor for code answers.
// The single-line form submits on Enter; the editor on Ctrl+S.
type TextInput struct {
	line      textinput.Model
	area      textarea.Model
	Multiline bool
}

// NewTextInput creates a focused input. maxWidth limits single-line
// input length and sets the editor width; 0 means no limit.
func NewTextInput(placeholder string, multiline bool, maxWidth int) TextInput {
	t := TextInput{Multiline: multiline}
	if multiline {
		t.area = textarea.New()
		t.area.Placeholder = placeholder
		t.area.ShowLineNumbers = true
		if maxWidth > 0 {
			t.area.SetWidth(maxWidth)
		}
		t.area.SetHeight(8)
		t.area.Focus()
		return t
	}
	t.line = textinput.New()
	t.line.Placeholder = placeholder
	if maxWidth > 0 {
		t.line.CharLimit = maxWidth
	}
	t.line.Focus()
	return t
}

func (t TextInput) Init() tea.Cmd {
	if t.Multiline {
		return t.area.Focus()
	}
	return t.line.Focus()
}

func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	var cmd tea.Cmd
	if t.Multiline {
		t.area, cmd = t.area.Update(msg)
	} else {
		t.line, cmd = t.line.Update(msg)
	}
	return t, cmd
}

// IsSubmitKey reports whether key submits this input.
func (t TextInput) IsSubmitKey(key string) bool {
	if t.Multiline {
		return key == "ctrl+s"
	}
	return key == "enter"
}

func (t TextInput) View() string {
	if t.Multiline {
		return t.area.View()
	}
	return t.line.View()
}

// Value returns the entered text. Single-line input is trimmed.
func (t TextInput) Value() string {
	if t.Multiline {
		return t.area.Value()
	}
	return strings.TrimSpace(t.line.Value())
}
