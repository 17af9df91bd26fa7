package analysis

import "math"

const (
	minClipSeconds   = 15.0
	maxClipSeconds   = 60.0
	stepSeconds      = 5.0
	preferredSeconds = 30.0
)

// Window is a candidate time range, in seconds from video start.
type Window struct {
	Start float64
	End   float64
}

func (w Window) Duration() float64 {
	return w.End - w.Start
}

// Overlaps reports interval intersection, half-open on the right.
func (w Window) Overlaps(o Window) bool {
	return w.Start < o.End && o.Start < w.End
}

// Bounds are the clip length limits in seconds, taken from the job's
// options.
type Bounds struct {
	Min float64
	Max float64
}

// DefaultBounds is the clip length range used when a job carries no
// overrides.
func DefaultBounds() Bounds {
	return Bounds{Min: minClipSeconds, Max: maxClipSeconds}
}

// GenerateWindows emits the dense overlapping candidate set for a video of
// the given duration. Intros and outros are skipped proportionally (capped
// at 25s and 20s), then a preferred-length window is centered on each step
// point and clamped into the usable range and the length bounds. Start/end
// are floored to whole seconds.
func GenerateWindows(duration float64, b Bounds) []Window {
	if duration <= 0 {
		return nil
	}
	if b.Min <= 0 || b.Max < b.Min {
		b = DefaultBounds()
	}
	preferred := math.Min(math.Max(preferredSeconds, b.Min), b.Max)

	skipIntro := math.Min(25, 0.12*duration)
	skipOutro := math.Min(20, 0.08*duration)
	usableStart := skipIntro
	usableEnd := duration - skipOutro

	if usableEnd-usableStart < b.Min {
		return nil
	}

	var windows []Window
	for t := usableStart; t <= usableEnd-b.Min; t += stepSeconds {
		start := math.Max(usableStart, t-preferred/2)
		end := math.Min(usableEnd, t+preferred/2)
		if end-start < b.Min {
			continue
		}
		if end-start > b.Max {
			end = start + b.Max
		}
		windows = append(windows, Window{
			Start: math.Floor(start),
			End:   math.Floor(end),
		})
	}
	return windows
}
