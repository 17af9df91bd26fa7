package analysis

import (
	"math"

	"thirdcoast.systems/reclip/internal/transcribe"
	"thirdcoast.systems/reclip/pkg/ffmpeg"
)

// AudioSignal holds the raw audio measurements for one window.
type AudioSignal struct {
	MeanVolume  float64 // dB
	MaxVolume   float64 // dB
	Silences    []ffmpeg.SilenceSpan
	LoudMoments []float64 // offsets within the window, seconds
}

// VisualSignal holds scene-change detections for one window.
type VisualSignal struct {
	SceneTimes []float64 // offsets within the window, seconds
}

// SpeechSignal holds the window transcript.
type SpeechSignal struct {
	Text  string
	Words []transcribe.Word // timestamps relative to the window
}

// Signals bundles all three sources for a window. The OK flags record
// whether the real source succeeded; failed sources carry the neutral
// fallback and score at fixed values.
type Signals struct {
	Audio  AudioSignal
	Visual VisualSignal
	Speech SpeechSignal

	AudioOK  bool
	VisualOK bool
	SpeechOK bool
}

const (
	neutralAudioScore  = 0.52
	neutralSpeechScore = 0.5
)

// NeutralSignals is the stand-in used when every analyzer fails.
func NeutralSignals() Signals {
	return Signals{}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// AudioScore blends energy, dynamic range, loud-moment density, and a
// silence penalty into one engagement value.
func AudioScore(a AudioSignal, windowDuration float64) float64 {
	if windowDuration <= 0 {
		return neutralAudioScore
	}

	// mean volume normalized over -60..0 dB
	energyFromMean := clamp01((a.MeanVolume + 60) / 60)
	dynamicRange := clamp01((a.MaxVolume - a.MeanVolume) / 30)
	energy := 0.6*energyFromMean + 0.4*dynamicRange

	// roughly one loud moment per 10s reads as fully dynamic
	loudDensity := clamp01(float64(len(a.LoudMoments)) / (windowDuration / 10))

	var silent float64
	for _, s := range a.Silences {
		end := s.End
		if end == 0 {
			end = windowDuration
		}
		silent += end - s.Start
	}
	silenceFraction := clamp01(silent / windowDuration)

	return clamp01(0.4*energy + 0.3*dynamicRange + 0.2*loudDensity - 0.1*silenceFraction)
}

// VisualScore rewards scene-change rates near 8 per minute plus any variety
// at all.
func VisualScore(v VisualSignal, windowDuration float64) float64 {
	if windowDuration <= 0 {
		return 0
	}
	perMinute := float64(len(v.SceneTimes)) / (windowDuration / 60)
	rateScore := clamp01(1 - math.Abs(perMinute-8)/8)
	variety := 0.0
	if len(v.SceneTimes) > 0 {
		variety = 1.0
	}
	return clamp01(0.6*rateScore + 0.4*variety)
}

// SpeechScore blends word density closeness to 3 w/s, trigger hits, and a
// content-present flag.
func SpeechScore(s SpeechSignal, windowDuration float64) float64 {
	if windowDuration <= 0 {
		return neutralSpeechScore
	}
	wordCount := len(s.Words)
	density := float64(wordCount) / windowDuration
	densityScore := clamp01(1 - math.Abs(density-3)/3)

	triggers := MatchTriggers(s.Text)
	triggerScore := clamp01(float64(len(triggers)) / 3)

	content := 0.0
	if wordCount > 0 {
		content = 1.0
	}
	return clamp01(0.4*densityScore + 0.4*triggerScore + 0.2*content)
}
