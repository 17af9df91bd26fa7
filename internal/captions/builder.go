package captions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"thirdcoast.systems/reclip/internal/transcribe"
	"thirdcoast.systems/reclip/pkg/ffmpeg"
)

// Transcriber is the speech-to-text dependency.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*transcribe.Result, error)
}

// Build produces styled caption segments for the clip file at clipPath.
// The clip's audio is extracted as mono MP3, transcribed with word
// timestamps, grouped, and styled. An empty transcript yields an empty
// list, which callers treat as "no captions".
func Build(ctx context.Context, tr Transcriber, clipPath, scratchDir string) ([]Segment, error) {
	audioPath := filepath.Join(scratchDir, "captions-audio.mp3")
	defer os.Remove(audioPath)

	if err := ffmpeg.Run(ctx, clipPath, audioPath,
		ffmpeg.AudioCodec("libmp3lame"),
		ffmpeg.AudioBitrate("128k"),
		ffmpeg.AudioChannels(1),
		ffmpeg.ExtraArgs("-vn"),
	); err != nil {
		return nil, fmt.Errorf("extract caption audio: %w", err)
	}

	result, err := tr.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	words := result.Words
	if len(words) == 0 && result.Text != "" {
		duration := result.Duration
		if duration <= 0 {
			if probed, err := ffmpeg.ProbeDuration(ctx, clipPath); err == nil {
				duration = probed
			}
		}
		words = transcribe.DistributeWords(result.Text, 0, duration)
	}
	if len(words) == 0 {
		return nil, nil
	}

	segments := Group(words)
	ApplyStyles(segments)
	return segments, nil
}
