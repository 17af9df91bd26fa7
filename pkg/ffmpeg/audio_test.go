package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const volumedetectLogs = `
[Parsed_volumedetect_0 @ 0x55d] n_samples: 4410000
[Parsed_volumedetect_0 @ 0x55d] mean_volume: -21.4 dB
[Parsed_volumedetect_0 @ 0x55d] max_volume: -3.2 dB
[Parsed_volumedetect_0 @ 0x55d] histogram_3db: 12
`

func TestParseVolumeStats(t *testing.T) {
	stats, err := ParseVolumeStats(volumedetectLogs)
	require.NoError(t, err)
	assert.InDelta(t, -21.4, stats.MeanVolume, 0.001)
	assert.InDelta(t, -3.2, stats.MaxVolume, 0.001)
}

func TestParseVolumeStatsMissing(t *testing.T) {
	_, err := ParseVolumeStats("frame=  100 fps= 25")
	assert.Error(t, err)
}

const silencedetectLogs = `
[silencedetect @ 0x55e] silence_start: 12.456
[silencedetect @ 0x55e] silence_end: 15.2 | silence_duration: 2.744
[silencedetect @ 0x55e] silence_start: 90.1
size=N/A time=00:02:00.00 bitrate=N/A
`

func TestParseSilence(t *testing.T) {
	spans := ParseSilence(silencedetectLogs)
	require.Len(t, spans, 2)
	assert.InDelta(t, 12.456, spans[0].Start, 0.001)
	assert.InDelta(t, 15.2, spans[0].End, 0.001)
	assert.InDelta(t, 90.1, spans[1].Start, 0.001)
	assert.Zero(t, spans[1].End)
}

const showinfoLogs = `
[Parsed_showinfo_1 @ 0x55f] n:   0 pts:  90090 pts_time:3.003   fmt:yuv420p
[Parsed_showinfo_1 @ 0x55f] n:   1 pts: 540540 pts_time:18.018  fmt:yuv420p
[Parsed_showinfo_1 @ 0x55f] config in time_base: 1/30000
frame=    2 fps=0.0 q=-0.0
`

func TestParseSceneTimes(t *testing.T) {
	times := ParseSceneTimes(showinfoLogs)
	require.Len(t, times, 2)
	assert.InDelta(t, 3.003, times[0], 0.001)
	assert.InDelta(t, 18.018, times[1], 0.001)
}
