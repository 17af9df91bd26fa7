package analysis

import "fmt"

// Meta is the context the scorer needs beyond the raw signals.
type Meta struct {
	Window        Window
	VideoDuration float64
}

// RetentionAnalysis is the complete scoring verdict for one window.
type RetentionAnalysis struct {
	Audio      float64
	Visual     float64
	Speech     float64
	Composite  float64
	Confidence float64
	Hook       bool
	Reason     string
}

const hookReasonSuffix = "strong opening hook detected!"

// Score computes the composite retention score for a window. Pure function
// over the signal records so properties can be tested directly.
func Score(sig Signals, meta Meta) RetentionAnalysis {
	dur := meta.Window.Duration()

	audio := neutralAudioScore
	if sig.AudioOK {
		audio = AudioScore(sig.Audio, dur)
	}
	visual := VisualScore(sig.Visual, dur)
	speech := neutralSpeechScore
	if sig.SpeechOK {
		speech = SpeechScore(sig.Speech, dur)
	}

	hook := detectHook(sig, meta)
	if hook {
		speech = clamp01(speech + 0.25)
	}

	composite := 0.40*audio + 0.35*speech + 0.25*visual

	if meta.VideoDuration > 0 {
		p := meta.Window.Start / meta.VideoDuration
		switch {
		case p >= 0.3 && p <= 0.7:
			composite *= 1.05
		case p < 0.15 || p > 0.85:
			composite *= 0.95
		}
	}

	switch {
	case dur >= 30 && dur <= 45:
		composite *= 1.03
	case dur < minClipSeconds || dur > maxClipSeconds:
		composite *= 0.95
	}

	composite = clamp01(composite)

	return RetentionAnalysis{
		Audio:      audio,
		Visual:     visual,
		Speech:     speech,
		Composite:  composite,
		Confidence: confidence(sig),
		Hook:       hook,
		Reason:     reason(audio, visual, speech, composite, hook),
	}
}

// detectHook checks for an attention-grabbing opening: a hook word spoken
// or a loud moment in the first 3 seconds, in a window that sits in the
// first 30% of the video.
func detectHook(sig Signals, meta Meta) bool {
	if meta.VideoDuration <= 0 || meta.Window.Start/meta.VideoDuration >= 0.3 {
		return false
	}

	var opening string
	for _, w := range sig.Speech.Words {
		if w.Start < 3 {
			opening += w.Word + " "
		}
	}
	if ContainsHookTrigger(opening) {
		return true
	}

	for _, at := range sig.Audio.LoudMoments {
		if at < 3 {
			return true
		}
	}
	return false
}

func confidence(sig Signals) float64 {
	c := 0.5
	if len(sig.Audio.LoudMoments) > 0 {
		c += 0.15
	}
	if sig.AudioOK {
		// silence data was actually measured
		c += 0.1
	}
	if len(sig.Visual.SceneTimes) > 0 {
		c += 0.15
	}
	if len(sig.Speech.Words) > 0 {
		c += 0.2
	}
	if len(MatchTriggers(sig.Speech.Text)) > 0 {
		c += 0.1
	}
	return clamp01(c)
}

var reasonTiers = []struct {
	threshold float64
	template  string
}{
	{0.95, "exceptional %s engagement throughout"},
	{0.90, "outstanding %s moment"},
	{0.85, "very strong %s activity"},
	{0.80, "strong %s engagement"},
	{0.75, "good %s dynamics"},
	{0.70, "solid %s presence"},
}

func reason(audio, visual, speech, composite float64, hook bool) string {
	factor := "audio"
	best := audio
	if visual > best {
		factor, best = "visual", visual
	}
	if speech > best {
		factor = "speech"
	}

	text := fmt.Sprintf("steady %s signal", factor)
	for _, tier := range reasonTiers {
		if composite >= tier.threshold {
			text = fmt.Sprintf(tier.template, factor)
			break
		}
	}
	if hook {
		text += ", " + hookReasonSuffix
	}
	return text
}
