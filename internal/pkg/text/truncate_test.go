package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
	assert.Equal(t, "日本...", Truncate("日本語テキスト", 2))
	assert.Equal(t, "abc", Truncate("abc", 0))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "{ \"a\":...", Snippet("{\n  \"a\":   1\n}", 6))
}
