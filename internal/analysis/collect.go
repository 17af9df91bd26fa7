package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"thirdcoast.systems/reclip/internal/transcribe"
	"thirdcoast.systems/reclip/pkg/ffmpeg"
)

const (
	silenceNoiseDB    = -50.0
	silenceMinSeconds = 1.0
	loudNoiseDB       = -20.0
	loudMinSeconds    = 0.5
	sceneThreshold    = 0.3
)

// Transcriber is the speech-to-text dependency. Nil means captionless
// operation; speech signals fall back to neutral.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*transcribe.Result, error)
}

func seekWindow(w Window) ffmpeg.Option {
	return ffmpeg.SeekTo(
		time.Duration(w.Start*float64(time.Second)),
		time.Duration(w.End*float64(time.Second)),
	)
}

// collectAudioSignal measures loudness and silence over one window. Two
// decode passes: volumedetect plus quiet-silence in one, and a louder
// silence threshold whose gaps mark loud moments.
func collectAudioSignal(ctx context.Context, sourcePath string, w Window) (AudioSignal, error) {
	result := ffmpeg.RunCapture(ctx, sourcePath, "-",
		seekWindow(w),
		ffmpeg.AudioFilter("volumedetect"),
		ffmpeg.AudioFilter(fmt.Sprintf("silencedetect=noise=%gdB:d=%g", silenceNoiseDB, silenceMinSeconds)),
		ffmpeg.ExtraArgs("-vn", "-f", "null"),
	)
	if result.Err != nil {
		return AudioSignal{}, result.Err
	}

	stats, err := ffmpeg.ParseVolumeStats(result.Logs)
	if err != nil {
		return AudioSignal{}, err
	}
	sig := AudioSignal{
		MeanVolume: stats.MeanVolume,
		MaxVolume:  stats.MaxVolume,
		Silences:   ffmpeg.ParseSilence(result.Logs),
	}

	loud := ffmpeg.RunCapture(ctx, sourcePath, "-",
		seekWindow(w),
		ffmpeg.AudioFilter(fmt.Sprintf("silencedetect=noise=%gdB:d=%g", loudNoiseDB, loudMinSeconds)),
		ffmpeg.ExtraArgs("-vn", "-f", "null"),
	)
	if loud.Err != nil {
		return AudioSignal{}, loud.Err
	}
	sig.LoudMoments = loudMomentsFromSilence(ffmpeg.ParseSilence(loud.Logs), w.Duration())
	return sig, nil
}

// loudMomentsFromSilence inverts quiet spans at the loud threshold: every
// onset of non-silence is a loud moment.
func loudMomentsFromSilence(quiet []ffmpeg.SilenceSpan, duration float64) []float64 {
	if len(quiet) == 0 {
		// continuously above the loud threshold
		return []float64{0}
	}

	var moments []float64
	cursor := 0.0
	for _, s := range quiet {
		if s.Start > cursor {
			moments = append(moments, cursor)
		}
		if s.End == 0 {
			return moments
		}
		cursor = s.End
	}
	if cursor < duration {
		moments = append(moments, cursor)
	}
	return moments
}

func collectVisualSignal(ctx context.Context, sourcePath string, w Window) (VisualSignal, error) {
	result := ffmpeg.RunCapture(ctx, sourcePath, "-",
		seekWindow(w),
		ffmpeg.Filter(fmt.Sprintf("select='gt(scene,%g)',showinfo", sceneThreshold)),
		ffmpeg.ExtraArgs("-an", "-f", "null"),
	)
	if result.Err != nil {
		return VisualSignal{}, result.Err
	}
	return VisualSignal{SceneTimes: ffmpeg.ParseSceneTimes(result.Logs)}, nil
}

// collectSpeechSignal cuts a mono MP3 of the window and transcribes it.
// Word timestamps come back relative to the window start.
func collectSpeechSignal(ctx context.Context, tr Transcriber, sourcePath, scratchDir string, w Window) (SpeechSignal, error) {
	if tr == nil {
		return SpeechSignal{}, fmt.Errorf("no transcriber configured")
	}

	audioPath := filepath.Join(scratchDir, fmt.Sprintf("speech_%d_%d.mp3", int(w.Start), int(w.End)))
	defer os.Remove(audioPath)

	if err := ffmpeg.Run(ctx, sourcePath, audioPath,
		seekWindow(w),
		ffmpeg.AudioCodec("libmp3lame"),
		ffmpeg.AudioBitrate("128k"),
		ffmpeg.AudioChannels(1),
		ffmpeg.ExtraArgs("-vn"),
	); err != nil {
		return SpeechSignal{}, err
	}

	result, err := tr.Transcribe(ctx, audioPath)
	if err != nil {
		return SpeechSignal{}, err
	}

	words := result.Words
	if len(words) == 0 && result.Text != "" {
		words = transcribe.DistributeWords(result.Text, 0, w.Duration())
	}
	return SpeechSignal{Text: result.Text, Words: words}, nil
}
