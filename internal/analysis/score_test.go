package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thirdcoast.systems/reclip/internal/transcribe"
)

func TestScoreNeutralFallbacks(t *testing.T) {
	// all three analyzers failed: audio 0.52, speech 0.5, visual 0
	meta := Meta{Window: Window{Start: 150, End: 180}, VideoDuration: 300}
	r := Score(NeutralSignals(), meta)

	assert.InDelta(t, 0.52, r.Audio, 0.001)
	assert.InDelta(t, 0.5, r.Speech, 0.001)
	assert.Zero(t, r.Visual)
	assert.False(t, r.Hook)

	// 0.4*0.52 + 0.35*0.5, mid-position 1.05, 30s duration 1.03
	want := (0.4*0.52 + 0.35*0.5) * 1.05 * 1.03
	assert.InDelta(t, want, r.Composite, 0.0001)
	assert.InDelta(t, 0.5, r.Confidence, 0.001)
}

func TestScoreCompositeBounds(t *testing.T) {
	sig := Signals{
		AudioOK: true,
		Audio: AudioSignal{
			MeanVolume:  -5,
			MaxVolume:   0,
			LoudMoments: []float64{1, 8, 15, 22, 29},
		},
		Visual:   VisualSignal{SceneTimes: []float64{2, 9, 17, 25}},
		SpeechOK: true,
		Speech: SpeechSignal{
			Text:  "what an amazing secret reveal watch this now",
			Words: wordsEvery(0.35, 90),
		},
	}
	r := Score(sig, Meta{Window: Window{Start: 120, End: 150}, VideoDuration: 300})
	assert.GreaterOrEqual(t, r.Composite, 0.0)
	assert.LessOrEqual(t, r.Composite, 1.0)
	assert.Equal(t, 1.0, r.Confidence)
}

func TestScoreHookBonus(t *testing.T) {
	base := Signals{
		SpeechOK: true,
		Speech: SpeechSignal{
			Text: "imagine a world without traffic",
			Words: []transcribe.Word{
				{Word: "imagine", Start: 2.0, End: 2.4},
				{Word: "a", Start: 2.5, End: 2.6},
				{Word: "world", Start: 2.7, End: 3.1},
			},
		},
	}
	meta := Meta{Window: Window{Start: 0, End: 30}, VideoDuration: 600}

	hooked := Score(base, meta)
	assert.True(t, hooked.Hook)
	assert.True(t, strings.HasSuffix(hooked.Reason, hookReasonSuffix))

	// same signals placed late in the video get no hook
	late := Score(base, Meta{Window: Window{Start: 400, End: 430}, VideoDuration: 600})
	assert.False(t, late.Hook)
	assert.InDelta(t, 0.25, hooked.Speech-late.Speech, 0.0001)
}

func TestScoreHookFromLoudMoment(t *testing.T) {
	sig := Signals{
		AudioOK: true,
		Audio: AudioSignal{
			MeanVolume:  -20,
			MaxVolume:   -2,
			LoudMoments: []float64{1.5},
		},
	}
	r := Score(sig, Meta{Window: Window{Start: 30, End: 60}, VideoDuration: 600})
	assert.True(t, r.Hook)

	noLoud := sig
	noLoud.Audio.LoudMoments = []float64{10}
	r = Score(noLoud, Meta{Window: Window{Start: 30, End: 60}, VideoDuration: 600})
	assert.False(t, r.Hook)
}

func TestScorePositionAdjustment(t *testing.T) {
	sig := NeutralSignals()
	mid := Score(sig, Meta{Window: Window{Start: 150, End: 175}, VideoDuration: 300})
	early := Score(sig, Meta{Window: Window{Start: 60, End: 85}, VideoDuration: 300})
	edge := Score(sig, Meta{Window: Window{Start: 10, End: 35}, VideoDuration: 300})

	assert.Greater(t, mid.Composite, early.Composite)
	assert.Greater(t, early.Composite, edge.Composite)
}

func TestScoreDurationAdjustment(t *testing.T) {
	sig := NeutralSignals()
	ideal := Score(sig, Meta{Window: Window{Start: 100, End: 135}, VideoDuration: 1000})
	short := Score(sig, Meta{Window: Window{Start: 100, End: 120}, VideoDuration: 1000})
	assert.Greater(t, ideal.Composite, short.Composite)
}

func TestConfidenceIncrements(t *testing.T) {
	sig := Signals{
		AudioOK:  true,
		Audio:    AudioSignal{MeanVolume: -25, MaxVolume: -10, LoudMoments: []float64{3}},
		Visual:   VisualSignal{SceneTimes: []float64{5}},
		SpeechOK: true,
		Speech: SpeechSignal{
			Text:  "check this secret",
			Words: []transcribe.Word{{Word: "check", Start: 5, End: 5.4}},
		},
	}
	// 0.5 + 0.15 + 0.1 + 0.15 + 0.2 + 0.1 capped at 1
	r := Score(sig, Meta{Window: Window{Start: 500, End: 530}, VideoDuration: 1000})
	assert.Equal(t, 1.0, r.Confidence)
}

func TestReasonTiers(t *testing.T) {
	require.Equal(t, "outstanding speech moment", reason(0.2, 0.3, 0.9, 0.91, false))
	require.Equal(t, "steady audio signal", reason(0.5, 0.4, 0.3, 0.5, false))
	require.Equal(t,
		"solid visual presence, "+hookReasonSuffix,
		reason(0.2, 0.8, 0.3, 0.72, true))
}

func wordsEvery(step float64, n int) []transcribe.Word {
	words := make([]transcribe.Word, n)
	for i := range words {
		start := float64(i) * step
		words[i] = transcribe.Word{Word: "word", Start: start, End: start + step*0.8}
	}
	return words
}
