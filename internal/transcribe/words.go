package transcribe

import "strings"

// DistributeWords spreads the words of text evenly across [start, end].
// Fallback for services that return plain text without word timestamps.
func DistributeWords(text string, start, end float64) []Word {
	fields := strings.Fields(text)
	if len(fields) == 0 || end <= start {
		return nil
	}

	per := (end - start) / float64(len(fields))
	words := make([]Word, len(fields))
	for i, f := range fields {
		ws := start + float64(i)*per
		words[i] = Word{Word: f, Start: ws, End: ws + per}
	}
	return words
}
