package analysis

import "regexp"

// Trigger is a weighted viral-indicator pattern matched against window
// transcripts.
type Trigger struct {
	Category string
	Weight   float64
	Pattern  *regexp.Regexp
}

var triggerLexicon = []Trigger{
	{"interrogative", 0.80, regexp.MustCompile(`(?i)\b(what|how|why|when|where)\b`)},
	{"excitement", 0.90, regexp.MustCompile(`(?i)\b(amazing|incredible|insane|crazy|wow|unbelievable)\b`)},
	{"controversy", 0.85, regexp.MustCompile(`(?i)\b(secret|truth|exposed|reveal|hidden)\b`)},
	{"action", 0.70, regexp.MustCompile(`(?i)\b(watch|look|see|check|discover)\b`)},
	{"numeric_list", 0.80, regexp.MustCompile(`(?i)\b\d+ (ways|tips|tricks|secrets|things|reasons)\b`)},
	{"call_to_action", 0.60, regexp.MustCompile(`(?i)\b(subscribe|like|comment|share|follow)\b`)},
}

var (
	hookInterrogativeRe = triggerLexicon[0].Pattern
	hookExcitementRe    = triggerLexicon[1].Pattern

	// Attention-grabbing openers that are not viral triggers on their own
	// but mark a strong hook when they lead a window.
	hookAttentionRe = regexp.MustCompile(`(?i)\b(imagine|listen|remember|guess)\b`)
)

// TriggerMatch records one lexicon hit in a transcript.
type TriggerMatch struct {
	Category string
	Weight   float64
	Text     string
}

// MatchTriggers finds all lexicon hits in text.
func MatchTriggers(text string) []TriggerMatch {
	var matches []TriggerMatch
	for _, trig := range triggerLexicon {
		for _, m := range trig.Pattern.FindAllString(text, -1) {
			matches = append(matches, TriggerMatch{
				Category: trig.Category,
				Weight:   trig.Weight,
				Text:     m,
			})
		}
	}
	return matches
}

// ContainsHookTrigger reports whether text contains an attention-grabbing
// word (interrogative, excitement, or attention opener).
func ContainsHookTrigger(text string) bool {
	return hookInterrogativeRe.MatchString(text) ||
		hookExcitementRe.MatchString(text) ||
		hookAttentionRe.MatchString(text)
}
