package captions

import (
	"fmt"
	"strconv"
	"strings"
)

// SRTForceStyle is the libass style override used when burning the simple
// format, since SRT itself carries no styling.
const SRTForceStyle = "FontName=Arial Black,FontSize=28,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,Outline=3,Bold=1,Alignment=2,MarginV=40"

// WriteSRT renders segments as a plain SubRip track. Style information is
// dropped; emoji prefixes are kept in the text.
func WriteSRT(segments []Segment) string {
	var b strings.Builder
	for i, s := range segments {
		text := s.Text
		if s.Emoji != "" {
			text = s.Emoji + " " + text
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, srtTime(s.Start), srtTime(s.End), text)
	}
	return b.String()
}

// ParseSRT reads a SubRip track back into segments. All segments come back
// with the normal style.
func ParseSRT(track string) ([]Segment, error) {
	var segments []Segment
	blocks := strings.Split(strings.ReplaceAll(track, "\r\n", "\n"), "\n\n")
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}
		if _, err := strconv.Atoi(strings.TrimSpace(lines[0])); err != nil {
			return nil, fmt.Errorf("captions: bad srt index %q", lines[0])
		}

		from, to, found := strings.Cut(lines[1], " --> ")
		if !found {
			return nil, fmt.Errorf("captions: bad srt timing line %q", lines[1])
		}
		start, err := parseSRTTime(strings.TrimSpace(from))
		if err != nil {
			return nil, err
		}
		end, err := parseSRTTime(strings.TrimSpace(to))
		if err != nil {
			return nil, err
		}

		text := strings.Join(lines[2:], "\n")
		var emoji string
		if first, rest, ok := strings.Cut(text, " "); ok && isEmoji(first) {
			emoji = first
			text = rest
		}

		segments = append(segments, Segment{
			Text:  text,
			Start: start,
			End:   end,
			Style: StyleNormal,
			Emoji: emoji,
		})
	}
	return segments, nil
}

// srtTime formats seconds as HH:MM:SS,mmm.
func srtTime(seconds float64) string {
	ms := int(seconds*1000 + 0.5)
	h := ms / 3600000
	m := ms / 60000 % 60
	s := ms / 1000 % 60
	r := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, r)
}

func parseSRTTime(v string) (float64, error) {
	var h, m, s, ms int
	if _, err := fmt.Sscanf(v, "%d:%d:%d,%d", &h, &m, &s, &ms); err != nil {
		return 0, fmt.Errorf("captions: bad timestamp %q: %w", v, err)
	}
	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000, nil
}
