package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProviderScript(t *testing.T) {
	m := NewMockProvider(MockResponse{Content: []byte(`"one"`), Usage: Usage{InputTokens: 1}})
	m.AddResponse(MockResponse{Err: assert.AnError})

	resp, err := m.Generate(context.Background(), Request{Prompt: "a"})
	require.NoError(t, err)
	assert.Equal(t, `"one"`, string(resp.Content))

	_, err = m.Generate(context.Background(), Request{Prompt: "b"})
	assert.ErrorIs(t, err, assert.AnError)

	_, err = m.Generate(context.Background(), Request{Prompt: "c"})
	assert.True(t, IsKind(err, KindUnavailable))

	require.Equal(t, 3, m.CallCount())
	assert.Equal(t, "b", m.Calls[1].Prompt)
}
