package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signaware-be/internal/constant"
	"signaware-be/pkg/llm"
)

func message(role, content string) llm.Message {
	return llm.Message{Role: role, Content: content}
}

func TestBuild_KeepsEverythingUnderBudget(t *testing.T) {
	b := NewBuilder(100000)
	history := []llm.Message{
		message(constant.RoleUser, "first question"),
		message(constant.RoleAssistant, "first answer"),
	}

	window := b.Build("analysis context", history, "second question")

	require.Len(t, window, 4)
	assert.Equal(t, constant.RoleSystem, window[0].Role)
	assert.Contains(t, window[0].Content, "analysis context")
	assert.Equal(t, "first question", window[1].Content)
	assert.Equal(t, "first answer", window[2].Content)
	assert.Equal(t, "second question", window[3].Content)
}

func TestBuild_DropsOldestFirst(t *testing.T) {
	history := []llm.Message{
		message(constant.RoleUser, strings.Repeat("a", 400)),
		message(constant.RoleAssistant, strings.Repeat("b", 400)),
		message(constant.RoleUser, strings.Repeat("c", 100)),
		message(constant.RoleAssistant, strings.Repeat("d", 100)),
	}

	b := NewBuilder(len(constant.ChatSystemPromptTemplate) + 300)
	window := b.Build("", history, "next")

	// Only the two newest history turns fit.
	require.Len(t, window, 4)
	assert.Equal(t, strings.Repeat("c", 100), window[1].Content)
	assert.Equal(t, strings.Repeat("d", 100), window[2].Content)
	assert.Equal(t, "next", window[3].Content)
}

func TestBuild_SystemAndNewestSurviveTinyBudget(t *testing.T) {
	b := NewBuilder(10)
	history := []llm.Message{
		message(constant.RoleUser, "older"),
	}

	window := b.Build("context", history, "the question")

	require.Len(t, window, 2)
	assert.Equal(t, constant.RoleSystem, window[0].Role)
	assert.Equal(t, "the question", window[1].Content)
}
