package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClipTitleTruncation(t *testing.T) {
	long := strings.Repeat("word ", 20) // 100 chars
	title := clipTitle(long, 0.5)

	base, emoji, found := strings.Cut(title, " ✨")
	assert.True(t, found)
	assert.Empty(t, emoji)
	assert.LessOrEqual(t, len([]rune(base)), 60)
	assert.False(t, strings.HasSuffix(base, " "))
}

func TestClipTitleEmojiTiers(t *testing.T) {
	tests := []struct {
		composite float64
		emoji     string
	}{
		{0.95, "\U0001F525"},
		{0.90, "\U0001F525"},
		{0.85, "⚡"},
		{0.80, "⚡"},
		{0.79, "✨"},
		{0.30, "✨"},
	}
	for _, tt := range tests {
		assert.True(t, strings.HasSuffix(clipTitle("My Video", tt.composite), " "+tt.emoji),
			"composite %.2f", tt.composite)
	}
}

func TestClipDescription(t *testing.T) {
	desc := clipDescription("Deep Dive", 0.874)
	assert.Contains(t, desc, `"Deep Dive"`)
	assert.Contains(t, desc, "87%")
}

func TestClipTags(t *testing.T) {
	tags := clipTags("Epic Chess Blunders: The TOP Ten Moments of All Time Ever Seen")

	// fixed tags lead, in order
	assert.Equal(t, []string{"shorts", "viral", "trending", "highlight", "fyp"}, tags[:5])

	// first six 4+ letter words, lowercased and stripped of punctuation
	assert.Equal(t, []string{"epic", "chess", "blunders", "moments", "time", "ever"}, tags[5:])
	assert.NotContains(t, tags, "ten")  // too short
	assert.NotContains(t, tags, "seen") // past the six-word cutoff
}

func TestClipTagsDeduplicates(t *testing.T) {
	tags := clipTags("Viral viral SHORTS highlight reel")
	counts := map[string]int{}
	for _, tag := range tags {
		counts[tag]++
	}
	for tag, n := range counts {
		assert.Equal(t, 1, n, "tag %q repeated", tag)
	}
	assert.Contains(t, tags, "reel")
}

func TestClipTagsEmptyTitle(t *testing.T) {
	assert.Equal(t, baseTags, clipTags(""))
}
