package utils

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestStripThinkingBlock(t *testing.T) {
	in := "<think>\nlet me reason about this\n</think>\nJohn is [NAME]."
	assert.Equal(t, "John is [NAME].", StripThinkingBlock(in))
}

func TestStripThinkingBlock_NoBlock(t *testing.T) {
	assert.Equal(t, "plain text", StripThinkingBlock("plain text"))
}

func TestCleanMaskedReply_DropsCommentaryLines(t *testing.T) {
	in := "Here is the masked text:\nContact [NAME] at [EMAIL].\nThe PII has been replaced."
	assert.Equal(t, "Contact [NAME] at [EMAIL].", CleanMaskedReply(in))
}

func TestCleanMaskedReply_KeepsContentIntact(t *testing.T) {
	in := "Dear [NAME],\n\nYour account [ACCOUNT] is active."
	assert.Equal(t, in, CleanMaskedReply(in))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcde...", Truncate("abcdefgh", 5))
}

func TestTruncate_CutsOnRuneBoundary(t *testing.T) {
	// A byte-indexed cut at 4 would land inside the two-byte rune.
	got := Truncate("aaa\u00e9z", 4)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "aaa...", got)
}
