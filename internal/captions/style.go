package captions

import (
	"regexp"
	"strings"
)

var (
	hookRe       = regexp.MustCompile(`(?i)\b(what|how|why|when|where|imagine|listen|remember|guess)\b`)
	excitementRe = regexp.MustCompile(`(?i)\b(amazing|incredible|insane|crazy|wow|unbelievable)\b`)
	numberRe     = regexp.MustCompile(`\d`)
	punchlineRe  = regexp.MustCompile(`(?i)\b(but|however)\b`)
)

func hasPunchlineCue(text string) bool {
	return strings.Contains(text, "!") || punchlineRe.MatchString(text)
}

// ApplyStyles assigns a style and emoji to each segment in place. Only the
// first hook-matching segment gets the hook treatment.
func ApplyStyles(segments []Segment) {
	hookUsed := false
	for i := range segments {
		s := &segments[i]
		switch {
		case !hookUsed && hookRe.MatchString(s.Text):
			s.Style = StyleHook
			s.Emoji = "\U0001F440" // 👀
			hookUsed = true
		case excitementRe.MatchString(s.Text):
			s.Style = StyleEmphasis
			s.Emoji = "\U0001F525" // 🔥
		case hasPunchlineCue(s.Text):
			s.Style = StylePunchline
			s.Emoji = "\U0001F4A5" // 💥
		case numberRe.MatchString(s.Text):
			s.Style = StyleEmphasis
			s.Emoji = "\u2728" // ✨
		default:
			s.Style = StyleNormal
			s.Emoji = ""
		}
	}
}
