package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aicanalytics/gptmenu/providers"
	"github.com/aicanalytics/gptmenu/utils"
)

func TestMemoryKeepsMessageLimit(t *testing.T) {
	m := NewMemory(0, 4, utils.EstimatingCounter{}, utils.NewNopLogger())
	for _, text := range []string{"q1", "a1", "q2", "a2", "q3", "a3"} {
		role := "user"
		if text[0] == 'a' {
			role = "assistant"
		}
		m.Add(role, text)
	}

	assert.Equal(t, []providers.Message{
		{Role: "user", Content: "q2"},
		{Role: "assistant", Content: "a2"},
		{Role: "user", Content: "q3"},
		{Role: "assistant", Content: "a3"},
	}, m.Messages())
}

func TestMemoryTruncatesByTokens(t *testing.T) {
	m := NewMemory(5, 0, utils.EstimatingCounter{}, utils.NewNopLogger())
	m.Add("user", "one two three")
	m.Add("assistant", "four five")
	assert.Equal(t, 5, m.TotalTokens())
	assert.Equal(t, 2, m.Len())

	m.Add("user", "six")
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 3, m.TotalTokens())
	assert.Equal(t, "four five", m.Messages()[0].Content)
}

func TestMemoryKeepsOversizedNewestMessage(t *testing.T) {
	m := NewMemory(2, 0, nil, utils.NewNopLogger())
	m.Add("user", "a b c d e")
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 5, m.TotalTokens())

	m.Clear()
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, m.TotalTokens())
	assert.Empty(t, m.Messages())
}
