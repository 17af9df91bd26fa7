package captions

import (
	"fmt"
	"strings"
)

// Styled subtitle canvas matches the 9:16 output frame.
const (
	assPlayResX = 1080
	assPlayResY = 1920
)

var assStyleNames = map[Style]string{
	StyleNormal:    "Normal",
	StyleEmphasis:  "Emphasis",
	StyleHook:      "Hook",
	StylePunchline: "Punchline",
}

var assStylesByName = map[string]Style{
	"Normal":    StyleNormal,
	"Emphasis":  StyleEmphasis,
	"Hook":      StyleHook,
	"Punchline": StylePunchline,
}

// WriteASS renders segments as an Advanced SubStation script with one named
// style per caption treatment. Colors are &HAABBGGRR.
func WriteASS(segments []Segment) string {
	var b strings.Builder

	b.WriteString("[Script Info]\n")
	b.WriteString("Title: Auto-generated captions\n")
	b.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", assPlayResX)
	fmt.Fprintf(&b, "PlayResY: %d\n", assPlayResY)
	b.WriteString("WrapStyle: 0\n\n")

	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, OutlineColour, BackColour, Bold, Outline, Shadow, Alignment, MarginL, MarginR, MarginV\n")
	b.WriteString("Style: Normal,Arial Black,70,&H00FFFFFF,&H00000000,&H80000000,1,4,2,2,40,40,60\n")
	b.WriteString("Style: Emphasis,Arial Black,80,&H0000FFFF,&H00000000,&H80000000,1,4,2,2,40,40,60\n")
	b.WriteString("Style: Hook,Arial Black,85,&H0000FF00,&H00000000,&H80000000,1,4,2,2,40,40,60\n")
	b.WriteString("Style: Punchline,Arial Black,75,&H0000A5FF,&H00000000,&H80000000,1,4,2,2,40,40,60\n\n")

	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, s := range segments {
		text := s.Text
		if s.Emoji != "" {
			text = s.Emoji + " " + text
		}
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,%s,,0,0,0,,%s\n",
			assTime(s.Start), assTime(s.End), assStyleNames[s.Style], escapeASSText(text))
	}
	return b.String()
}

// ParseASS reads Dialogue events back into segments. Word-level timing is
// not recoverable from the script; only text, style, and bounds survive.
func ParseASS(script string) ([]Segment, error) {
	var segments []Segment
	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Dialogue:") {
			continue
		}
		fields := strings.SplitN(strings.TrimPrefix(line, "Dialogue:"), ",", 10)
		if len(fields) != 10 {
			return nil, fmt.Errorf("captions: malformed dialogue line: %q", line)
		}

		start, err := parseASSTime(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, err
		}
		end, err := parseASSTime(strings.TrimSpace(fields[2]))
		if err != nil {
			return nil, err
		}

		style, ok := assStylesByName[strings.TrimSpace(fields[3])]
		if !ok {
			style = StyleNormal
		}

		text := unescapeASSText(fields[9])
		var emoji string
		if first, rest, found := strings.Cut(text, " "); found && isEmoji(first) {
			emoji = first
			text = rest
		}

		segments = append(segments, Segment{
			Text:  text,
			Start: start,
			End:   end,
			Style: style,
			Emoji: emoji,
		})
	}
	return segments, nil
}

// assTime formats seconds as H:MM:SS.cc (centiseconds).
func assTime(seconds float64) string {
	cs := int(seconds*100 + 0.5)
	h := cs / 360000
	m := cs / 6000 % 60
	s := cs / 100 % 60
	c := cs % 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, c)
}

func parseASSTime(v string) (float64, error) {
	var h, m, s, c int
	if _, err := fmt.Sscanf(v, "%d:%d:%d.%d", &h, &m, &s, &c); err != nil {
		return 0, fmt.Errorf("captions: bad timestamp %q: %w", v, err)
	}
	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(c)/100, nil
}

// Text is the final Dialogue field, so embedded commas are safe; only
// newlines need escaping.
func escapeASSText(text string) string {
	return strings.ReplaceAll(text, "\n", `\N`)
}

func unescapeASSText(text string) string {
	return strings.ReplaceAll(text, `\N`, "\n")
}

func isEmoji(s string) bool {
	for _, r := range s {
		if r < 0x2000 {
			return false
		}
	}
	return s != ""
}
