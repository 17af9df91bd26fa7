// Package captions builds styled caption tracks from word-level
// transcripts: grouping words into readable beats, assigning styles, and
// serializing to subtitle formats for burn-in.
package captions

import (
	"strings"

	"thirdcoast.systems/reclip/internal/transcribe"
)

// Style names a caption rendering treatment.
type Style string

const (
	StyleNormal    Style = "normal"
	StyleEmphasis  Style = "emphasis"
	StyleHook      Style = "hook"
	StylePunchline Style = "punchline"
)

// Segment is one on-screen caption beat of 2 to 5 words.
type Segment struct {
	Text  string            `json:"text"`
	Start float64           `json:"start"`
	End   float64           `json:"end"`
	Words []transcribe.Word `json:"words,omitempty"`
	Style Style             `json:"style"`
	Emoji string            `json:"emoji,omitempty"`
}

const (
	maxWordsPerSegment = 5
	breakGapSeconds    = 0.3
)

func endsWithBreakPunct(word string) bool {
	if word == "" {
		return false
	}
	switch word[len(word)-1] {
	case ',', ';', '.', '!', '?':
		return true
	}
	return false
}

// Group folds a word stream into caption segments. Breaks happen at
// punctuation, at a noticeable pause to the next word, or at the word cap.
// Single-word segments are avoided by letting punctuation ride until at
// least two words have accumulated.
func Group(words []transcribe.Word) []Segment {
	var segments []Segment
	var current []transcribe.Word

	flush := func() {
		if len(current) == 0 {
			return
		}
		texts := make([]string, len(current))
		for i, w := range current {
			texts[i] = w.Word
		}
		segments = append(segments, Segment{
			Text:  strings.Join(texts, " "),
			Start: current[0].Start,
			End:   current[len(current)-1].End,
			Words: current,
			Style: StyleNormal,
		})
		current = nil
	}

	for i, w := range words {
		current = append(current, w)

		if len(current) >= maxWordsPerSegment {
			flush()
			continue
		}
		if len(current) >= 2 && endsWithBreakPunct(w.Word) {
			flush()
			continue
		}
		if len(current) >= 2 && i+1 < len(words) && words[i+1].Start-w.End >= breakGapSeconds {
			flush()
		}
	}
	flush()
	return segments
}
