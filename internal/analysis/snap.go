package analysis

import "math"

const (
	sceneSnapRadius  = 3.0
	hookBufferLead   = 0.5
	wordSnapRadius   = 2.0
	wordSnapTrailing = 0.3
)

// SnapBoundaries refines a selected window against detected scene changes
// and transcript word timing. sceneTimes and wordEnds are absolute video
// timestamps; minLength is the job's minimum clip length.
func SnapBoundaries(w Window, sceneTimes []float64, wordEnds []float64, videoDuration, minLength float64) Window {
	if minLength <= 0 {
		minLength = minClipSeconds
	}
	start := snapToNearest(w.Start, sceneTimes, sceneSnapRadius)
	end := snapToNearest(w.End, sceneTimes, sceneSnapRadius)

	// lead-in so the hook is not clipped
	start = math.Max(0, start-hookBufferLead)

	// avoid cutting mid-sentence: follow a word that ends just past the cut
	var extendTo float64
	for _, we := range wordEnds {
		if we > end && we-end <= wordSnapRadius && we > extendTo {
			extendTo = we
		}
	}
	if extendTo > 0 {
		end = extendTo + wordSnapTrailing
	}

	if end-start < minLength {
		end = start + minLength
	}
	if videoDuration > 0 && end > videoDuration {
		end = videoDuration
		start = math.Max(0, math.Min(start, end-minLength))
	}

	return Window{
		Start: floorTenth(start),
		End:   floorTenth(end),
	}
}

// floorTenth floors to one decimal, absorbing float dust so values like
// 27.699999999 stay 27.7 rather than dropping to 27.6.
func floorTenth(v float64) float64 {
	return math.Floor(v*10+1e-6) / 10
}

func snapToNearest(t float64, candidates []float64, radius float64) float64 {
	best := t
	bestDist := radius
	for _, c := range candidates {
		if d := math.Abs(c - t); d <= bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}
