package ffmpeg

import (
	"fmt"
	"strings"
)

// BurnASS renders an ASS subtitle file into the video stream.
func BurnASS(subPath string) Option {
	return Filter("ass=" + escapeFilterPath(subPath))
}

// BurnSRT renders an SRT subtitle file into the video stream, with an
// optional libass force_style override.
func BurnSRT(subPath, forceStyle string) Option {
	f := "subtitles=" + escapeFilterPath(subPath)
	if forceStyle != "" {
		f += ":force_style='" + forceStyle + "'"
	}
	return Filter(f)
}

// escapeFilterPath escapes characters that the filter graph parser treats
// specially in filenames.
func escapeFilterPath(path string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`:`, `\:`,
		`'`, `\'`,
		`[`, `\[`,
		`]`, `\]`,
		`,`, `\,`,
		`;`, `\;`,
	)
	return r.Replace(path)
}

// Thumbnail captures a single JPEG frame at the given offset in seconds.
func Thumbnail(at float64, width int) []Option {
	return []Option{
		OptionFunc(func(cmd *Command) {
			cmd.preInput = append(cmd.preInput, "-ss", fmt.Sprintf("%.3f", at))
		}),
		Frames(1),
		Scale(width, -2),
		Quality(2),
	}
}
