package prompt

import (
	"fmt"

	"signaware-be/internal/constant"
	"signaware-be/pkg/llm"
)

// Builder assembles the message window sent upstream for a chat turn. The
// window is capped by a character budget; when the transcript outgrows it,
// the oldest history messages are dropped first. The system context and the
// newest user message are always kept, even if they alone exceed the budget.
type Builder struct {
	budgetChars int
}

func NewBuilder(budgetChars int) *Builder {
	return &Builder{budgetChars: budgetChars}
}

// Build returns the upstream window: system prompt, as much history as fits,
// then the new user message.
func (b *Builder) Build(groundingContext string, history []llm.Message, userMessage string) []llm.Message {
	system := llm.Message{
		Role:    constant.RoleSystem,
		Content: formatSystemPrompt(groundingContext),
	}
	newest := llm.Message{
		Role:    constant.RoleUser,
		Content: userMessage,
	}

	remaining := b.budgetChars - len(system.Content) - len(newest.Content)

	// Walk history newest-first so the budget evicts the oldest turns.
	kept := 0
	for i := len(history) - 1; i >= 0; i-- {
		cost := len(history[i].Content)
		if cost > remaining {
			break
		}
		remaining -= cost
		kept++
	}

	window := make([]llm.Message, 0, kept+2)
	window = append(window, system)
	window = append(window, history[len(history)-kept:]...)
	window = append(window, newest)
	return window
}

func formatSystemPrompt(groundingContext string) string {
	return fmt.Sprintf(constant.ChatSystemPromptTemplate, groundingContext)
}
