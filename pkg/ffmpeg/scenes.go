package ffmpeg

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ptsTimeRe = regexp.MustCompile(`pts_time:([\d.]+)`)

// DetectScenes returns the timestamps of scene changes scoring above
// threshold (0..1). Frames are selected by the scene filter and their
// timestamps read back from showinfo output.
func DetectScenes(ctx context.Context, path string, threshold float64) ([]float64, error) {
	filter := fmt.Sprintf("select='gt(scene,%g)',showinfo", threshold)
	result := RunCapture(ctx, path, "-",
		Filter(filter),
		ExtraArgs("-an", "-f", "null"),
	)
	if result.Err != nil {
		return nil, result.Err
	}
	return ParseSceneTimes(result.Logs), nil
}

// ParseSceneTimes extracts frame timestamps from showinfo stderr lines.
func ParseSceneTimes(logs string) []float64 {
	var times []float64
	for _, line := range strings.Split(logs, "\n") {
		if !strings.Contains(line, "Parsed_showinfo") {
			continue
		}
		m := ptsTimeRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		t, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		times = append(times, t)
	}
	return times
}
