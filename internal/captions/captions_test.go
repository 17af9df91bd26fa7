package captions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thirdcoast.systems/reclip/internal/transcribe"
)

func word(w string, start, end float64) transcribe.Word {
	return transcribe.Word{Word: w, Start: start, End: end}
}

func TestGroupBreaksAtPunctuation(t *testing.T) {
	words := []transcribe.Word{
		word("hello", 0.0, 0.3),
		word("there,", 0.35, 0.7),
		word("welcome", 0.75, 1.1),
		word("back", 1.15, 1.4),
	}
	segments := Group(words)
	require.Len(t, segments, 2)
	assert.Equal(t, "hello there,", segments[0].Text)
	assert.Equal(t, "welcome back", segments[1].Text)
	assert.InDelta(t, 0.0, segments[0].Start, 0.001)
	assert.InDelta(t, 0.7, segments[0].End, 0.001)
}

func TestGroupBreaksAtGap(t *testing.T) {
	words := []transcribe.Word{
		word("one", 0.0, 0.2),
		word("two", 0.25, 0.45),
		word("three", 0.9, 1.1), // 0.45s pause before this word
		word("four", 1.15, 1.35),
	}
	segments := Group(words)
	require.Len(t, segments, 2)
	assert.Equal(t, "one two", segments[0].Text)
	assert.Equal(t, "three four", segments[1].Text)
}

func TestGroupForcesBreakAtFiveWords(t *testing.T) {
	var words []transcribe.Word
	for i := 0; i < 12; i++ {
		start := float64(i) * 0.3
		words = append(words, word("w", start, start+0.25))
	}
	segments := Group(words)
	require.Len(t, segments, 3)
	assert.Len(t, segments[0].Words, 5)
	assert.Len(t, segments[1].Words, 5)
	assert.Len(t, segments[2].Words, 2)
}

func TestGroupAvoidsSingleWordSegments(t *testing.T) {
	words := []transcribe.Word{
		word("No!", 0.0, 0.3),
		word("way", 0.35, 0.6),
		word("that", 0.65, 0.9),
		word("worked.", 0.95, 1.3),
	}
	segments := Group(words)
	for _, s := range segments {
		assert.GreaterOrEqual(t, len(s.Words), 2)
	}
}

func TestGroupEmpty(t *testing.T) {
	assert.Empty(t, Group(nil))
}

func TestApplyStyles(t *testing.T) {
	segments := []Segment{
		{Text: "what happens when"},
		{Text: "you mix these"},
		{Text: "the results are amazing"},
		{Text: "but there's a catch!"},
		{Text: "top 3 mistakes"},
		{Text: "why it matters"}, // hook already used
	}
	ApplyStyles(segments)

	assert.Equal(t, StyleHook, segments[0].Style)
	assert.Equal(t, "\U0001F440", segments[0].Emoji)
	assert.Equal(t, StyleNormal, segments[1].Style)
	assert.Equal(t, StyleEmphasis, segments[2].Style)
	assert.Equal(t, "\U0001F525", segments[2].Emoji)
	assert.Equal(t, StylePunchline, segments[3].Style)
	assert.Equal(t, StyleEmphasis, segments[4].Style)
	assert.Equal(t, "✨", segments[4].Emoji)
	assert.Equal(t, StyleNormal, segments[5].Style)
	assert.Empty(t, segments[5].Emoji)
}

func styledFixture() []Segment {
	return []Segment{
		{Text: "what happens when", Start: 0.5, End: 1.8, Style: StyleHook, Emoji: "\U0001F440"},
		{Text: "you flip the switch", Start: 1.9, End: 3.4, Style: StyleNormal},
		{Text: "it gets crazy", Start: 3.6, End: 5.0, Style: StyleEmphasis, Emoji: "\U0001F525"},
	}
}

func TestASSRoundTrip(t *testing.T) {
	script := WriteASS(styledFixture())
	assert.Contains(t, script, "PlayResX: 1080")
	assert.Contains(t, script, "PlayResY: 1920")
	assert.Contains(t, script, "Style: Normal,Arial Black,70")
	assert.Contains(t, script, "Style: Emphasis,Arial Black,80")
	assert.Contains(t, script, "Style: Hook,Arial Black,85")
	assert.Contains(t, script, "Style: Punchline,Arial Black,75")

	parsed, err := ParseASS(script)
	require.NoError(t, err)
	require.Len(t, parsed, 3)
	for i, s := range styledFixture() {
		assert.Equal(t, s.Text, parsed[i].Text)
		assert.Equal(t, s.Style, parsed[i].Style)
		assert.Equal(t, s.Emoji, parsed[i].Emoji)
		assert.InDelta(t, s.Start, parsed[i].Start, 0.05)
		assert.InDelta(t, s.End, parsed[i].End, 0.05)
	}
}

func TestSRTRoundTrip(t *testing.T) {
	track := WriteSRT(styledFixture())
	assert.Contains(t, track, "00:00:00,500 --> 00:00:01,800")

	parsed, err := ParseSRT(track)
	require.NoError(t, err)
	require.Len(t, parsed, 3)
	for i, s := range styledFixture() {
		assert.Equal(t, s.Text, parsed[i].Text)
		assert.Equal(t, s.Emoji, parsed[i].Emoji)
		assert.InDelta(t, s.Start, parsed[i].Start, 0.001)
		assert.InDelta(t, s.End, parsed[i].End, 0.001)
	}
}

func TestASSTimeFormat(t *testing.T) {
	assert.Equal(t, "0:00:00.00", assTime(0))
	assert.Equal(t, "0:01:05.25", assTime(65.25))
	assert.Equal(t, "1:00:00.10", assTime(3600.1))
}
