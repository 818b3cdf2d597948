package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSingleBlock(t *testing.T) {
	raw := "Here is the store:\n```typescript\nexport const useCart = 1;\n```\nLet me know if you need changes."

	got := Extract(raw)

	assert.Equal(t, "export const useCart = 1;", got.Source)
	assert.False(t, got.LowConfidence)
}

func TestExtractLongestBlockWins(t *testing.T) {
	short := strings.Repeat("a", 10)
	long := strings.Repeat("b", 50)
	raw := "```\n" + short + "\n```\nprose\n```ts\n" + long + "\n```"

	got := Extract(raw)

	assert.Equal(t, long, got.Source)
	assert.False(t, got.LowConfidence)
}

func TestExtractTieBrokenByFirstOccurrence(t *testing.T) {
	first := strings.Repeat("x", 20)
	second := strings.Repeat("y", 20)
	raw := "```\n" + first + "\n```\n```\n" + second + "\n```"

	got := Extract(raw)

	assert.Equal(t, first, got.Source)
}

func TestExtractNoFenceFallsBackRaw(t *testing.T) {
	raw := "const x = 1; // model forgot the fences"

	got := Extract(raw)

	assert.Equal(t, raw, got.Source)
	assert.True(t, got.LowConfidence)
}

func TestExtractIgnoresLanguageTag(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"tsx tag", "```tsx\ncode\n```"},
		{"no tag", "```\ncode\n```"},
		{"indented fence", "  ```typescript\ncode\n  ```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.raw)
			assert.Equal(t, "code", got.Source)
			assert.False(t, got.LowConfidence)
		})
	}
}

func TestExtractMultilineBlock(t *testing.T) {
	inner := "line one\nline two\n\nline four"
	got := Extract("```\n" + inner + "\n```")

	assert.Equal(t, inner, got.Source)
}

func TestExtractUnclosedFence(t *testing.T) {
	// An opening fence that never closes yields no block; the raw reply is
	// the fallback.
	raw := "```typescript\nincomplete"

	got := Extract(raw)

	assert.Equal(t, raw, got.Source)
	assert.True(t, got.LowConfidence)
}

func TestExtractEmptyBlock(t *testing.T) {
	got := Extract("```\n```")

	assert.Equal(t, "", got.Source)
	assert.False(t, got.LowConfidence)
}
