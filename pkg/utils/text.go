package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThinkingBlock removes <think>...</think> reasoning blocks that some
// local models emit before their actual answer.
func StripThinkingBlock(text string) string {
	return strings.TrimSpace(thinkBlockRe.ReplaceAllString(text, ""))
}

// CleanMaskedReply normalizes a masking model's reply down to the masked
// text itself: reasoning blocks go first, then any leading commentary lines
// the model added despite being told not to.
func CleanMaskedReply(text string) string {
	text = StripThinkingBlock(text)

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && isCommentaryLine(trimmed) {
			continue
		}
		cleaned = append(cleaned, line)
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

func isCommentaryLine(line string) bool {
	for _, prefix := range []string{"Here", "The", "I've", "This"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// Truncate shortens s to at most max bytes, appending "..." when it was cut.
// The cut lands on a rune boundary so the result stays valid UTF-8.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
