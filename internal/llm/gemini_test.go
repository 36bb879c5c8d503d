package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type":        "object",
		"description": "an item",
		"properties": map[string]any{
			"prompt":  map[string]any{"type": "string"},
			"level":   map[string]any{"type": "integer"},
			"options": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"hint":    map[string]any{"type": []any{"string", "null"}},
			"kind":    map[string]any{"type": "string", "enum": []string{"a", "b"}},
		},
		"required": []any{"prompt", "level"},
	})

	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, "an item", s.Description)
	assert.Equal(t, []string{"prompt", "level"}, s.Required)
	require.Len(t, s.Properties, 5)

	assert.Equal(t, genai.TypeInteger, s.Properties["level"].Type)
	require.NotNil(t, s.Properties["options"].Items)
	assert.Equal(t, genai.TypeString, s.Properties["options"].Items.Type)

	hint := s.Properties["hint"]
	assert.Equal(t, genai.TypeString, hint.Type)
	require.NotNil(t, hint.Nullable)
	assert.True(t, *hint.Nullable)

	assert.Equal(t, []string{"a", "b"}, s.Properties["kind"].Enum)
	assert.Nil(t, s.Properties["prompt"].Nullable)
}
