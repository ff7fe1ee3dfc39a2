package model

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abcde", TruncateString("abcdefgh", 5))
	assert.Equal(t, "", TruncateString("anything", 0))

	// Chuỗi vừa khít giới hạn giữ nguyên
	assert.Equal(t, "ab\U0001F680", TruncateString("ab\U0001F680", 6))
}

func TestTruncateStringKeepsRuneBoundary(t *testing.T) {
	// Điểm cắt rơi vào giữa một rune 4 byte phải lùi về trước rune đó
	got := TruncateString("ab\U0001F680cd", 3)
	assert.Equal(t, "ab", got)
	assert.True(t, utf8.ValidString(got))

	got = TruncateString("héllo wörld", 8)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 8)
}
