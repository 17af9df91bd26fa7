package ffmpeg

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildClipCut(t *testing.T) {
	args := NewCommand("in.mp4", "out.mp4",
		SeekTo(30*time.Second, 60*time.Second),
		ScaleForceAspect(1080, 1920, "increase"),
		CropCenter(1080, 1920),
		VideoCodec("libx264"),
		Preset("medium"),
		CRF(23),
		AudioCodec("aac"),
		AudioBitrate("128k"),
	).Build()

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-ss 30.000 -i in.mp4")
	assert.Contains(t, joined, "-t 30.000")
	assert.Contains(t, joined, "-vf scale=1080:1920:force_original_aspect_ratio=increase,crop=1080:1920")
	assert.Contains(t, joined, "-crf 23")
	assert.Contains(t, joined, "-movflags +faststart")
	assert.Equal(t, "out.mp4", args[len(args)-1])
}

func TestBuildCombinesAudioFilters(t *testing.T) {
	args := NewCommand("in.mp4", "-",
		AudioFilter("volumedetect"),
		ExtraArgs("-vn", "-f", "null"),
	).Build()
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-af volumedetect")
	assert.Contains(t, joined, "-f null")
	assert.NotContains(t, joined, "faststart")
}

func TestBurnASSEscapesPath(t *testing.T) {
	cmd := NewCommand("in.mp4", "out.mp4", BurnASS("/tmp/work/it's.ass"))
	joined := strings.Join(cmd.Build(), " ")
	assert.Contains(t, joined, `ass=/tmp/work/it\'s.ass`)
}

func TestBurnSRTForceStyle(t *testing.T) {
	cmd := NewCommand("in.mp4", "out.mp4",
		BurnSRT("/tmp/captions.srt", "FontName=Arial Black,FontSize=28"))
	joined := strings.Join(cmd.Build(), " ")
	assert.Contains(t, joined, "subtitles=/tmp/captions.srt:force_style='FontName=Arial Black,FontSize=28'")
}
