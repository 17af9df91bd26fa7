package ffmpeg

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// VolumeStats holds the output of the volumedetect filter, in dB.
type VolumeStats struct {
	MeanVolume float64
	MaxVolume  float64
}

// SilenceSpan is a detected silent interval, in seconds from stream start.
// End is zero when the stream finished while still silent.
type SilenceSpan struct {
	Start float64
	End   float64
}

var (
	meanVolumeRe   = regexp.MustCompile(`mean_volume:\s*(-?[\d.]+)\s*dB`)
	maxVolumeRe    = regexp.MustCompile(`max_volume:\s*(-?[\d.]+)\s*dB`)
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[\d.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*(-?[\d.]+)`)
)

// AnalyzeVolume measures mean and peak loudness by decoding the audio
// stream through volumedetect without producing output.
func AnalyzeVolume(ctx context.Context, path string) (*VolumeStats, error) {
	result := RunCapture(ctx, path, "-",
		AudioFilter("volumedetect"),
		ExtraArgs("-vn", "-f", "null"),
	)
	if result.Err != nil {
		return nil, result.Err
	}
	return ParseVolumeStats(result.Logs)
}

// ParseVolumeStats extracts volumedetect measurements from ffmpeg stderr.
func ParseVolumeStats(logs string) (*VolumeStats, error) {
	mean := meanVolumeRe.FindStringSubmatch(logs)
	max := maxVolumeRe.FindStringSubmatch(logs)
	if mean == nil || max == nil {
		return nil, fmt.Errorf("ffmpeg: volumedetect output not found")
	}
	stats := &VolumeStats{}
	stats.MeanVolume, _ = strconv.ParseFloat(mean[1], 64)
	stats.MaxVolume, _ = strconv.ParseFloat(max[1], 64)
	return stats, nil
}

// DetectSilence finds intervals quieter than noiseDB that last at least
// minDuration seconds.
func DetectSilence(ctx context.Context, path string, noiseDB float64, minDuration float64) ([]SilenceSpan, error) {
	filter := fmt.Sprintf("silencedetect=noise=%gdB:d=%g", noiseDB, minDuration)
	result := RunCapture(ctx, path, "-",
		AudioFilter(filter),
		ExtraArgs("-vn", "-f", "null"),
	)
	if result.Err != nil {
		return nil, result.Err
	}
	return ParseSilence(result.Logs), nil
}

// ParseSilence extracts silencedetect spans from ffmpeg stderr.
func ParseSilence(logs string) []SilenceSpan {
	var spans []SilenceSpan
	var open *SilenceSpan
	for _, line := range strings.Split(logs, "\n") {
		if m := silenceStartRe.FindStringSubmatch(line); m != nil {
			start, _ := strconv.ParseFloat(m[1], 64)
			open = &SilenceSpan{Start: start}
			continue
		}
		if m := silenceEndRe.FindStringSubmatch(line); m != nil && open != nil {
			open.End, _ = strconv.ParseFloat(m[1], 64)
			spans = append(spans, *open)
			open = nil
		}
	}
	if open != nil {
		spans = append(spans, *open)
	}
	return spans
}
