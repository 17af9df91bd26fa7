package extract

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	titleMaxRunes = 60
	titleTagLimit = 6
)

var baseTags = []string{"shorts", "viral", "trending", "highlight", "fyp"}

// clipTitle derives the clip title from the source video title, truncated
// and suffixed with an emoji keyed on the composite score.
func clipTitle(videoTitle string, composite float64) string {
	title := strings.TrimSpace(videoTitle)
	if r := []rune(title); len(r) > titleMaxRunes {
		title = strings.TrimSpace(string(r[:titleMaxRunes]))
	}
	return title + " " + scoreEmoji(composite)
}

func scoreEmoji(composite float64) string {
	switch {
	case composite >= 0.9:
		return "\U0001F525" // 🔥
	case composite >= 0.8:
		return "\u26A1" // ⚡
	default:
		return "\u2728" // ✨
	}
}

func clipDescription(videoTitle string, composite float64) string {
	pct := int(composite*100 + 0.5)
	return fmt.Sprintf("Top moment from %q. Engagement score: %d%%.", strings.TrimSpace(videoTitle), pct)
}

// clipTags merges the fixed discovery tags with up to six lowercase words of
// four or more letters drawn from the source title, deduplicated in order.
func clipTags(videoTitle string) []string {
	tags := make([]string, 0, len(baseTags)+titleTagLimit)
	seen := make(map[string]bool, len(baseTags)+titleTagLimit)
	for _, t := range baseTags {
		tags = append(tags, t)
		seen[t] = true
	}

	taken := 0
	for _, w := range strings.Fields(strings.ToLower(videoTitle)) {
		if taken == titleTagLimit {
			break
		}
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if len([]rune(w)) < 4 {
			continue
		}
		taken++
		if seen[w] {
			continue
		}
		tags = append(tags, w)
		seen[w] = true
	}
	return tags
}
