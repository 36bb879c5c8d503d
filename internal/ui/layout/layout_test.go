package layout

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
	"github.com/stretchr/testify/assert"
)

func TestIsTooSmall(t *testing.T) {
	assert.True(t, IsTooSmall(MinWidth-1, MinHeight))
	assert.True(t, IsTooSmall(MinWidth, MinHeight-1))
	assert.False(t, IsTooSmall(MinWidth, MinHeight))
}

func TestRenderHeader(t *testing.T) {
	out := RenderHeader("Practice", "ada  3/4", 80)
	assert.Contains(t, out, "drillz")
	assert.Contains(t, out, "Practice")
	assert.Contains(t, out, "ada  3/4")
	assert.Equal(t, 3, lipgloss.Height(out))
}

func TestRenderFooterDropsOverflow(t *testing.T) {
	hints := []KeyHint{
		{"enter", "submit"},
		{"tab", "hint"},
		{"ctrl+n", "skip"},
		{"p", "profile"},
	}
	wide := RenderFooter(hints, 120)
	assert.Contains(t, wide, "profile")

	narrow := RenderFooter(hints, 30)
	assert.Contains(t, narrow, "submit")
	assert.NotContains(t, narrow, "profile")
}

func TestRenderFrameFillsHeight(t *testing.T) {
	h := RenderHeader("t", "", 70)
	f := RenderFooter([]KeyHint{{"q", "quit"}}, 70)
	out := RenderFrame(h, "body", f, 70, 24)
	assert.Equal(t, 24, lipgloss.Height(out))
	assert.True(t, strings.Contains(out, "body"))
}
