package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWindowsFiveMinuteVideo(t *testing.T) {
	windows := GenerateWindows(300, DefaultBounds())

	// usable range [25, 280], step points 25..265
	require.Len(t, windows, 49)

	skipIntro := 25.0
	skipOutro := 20.0
	for _, w := range windows {
		assert.GreaterOrEqual(t, w.Duration(), minClipSeconds)
		assert.LessOrEqual(t, w.Duration(), maxClipSeconds)
		assert.GreaterOrEqual(t, w.Start, math.Floor(skipIntro))
		assert.LessOrEqual(t, w.End, 300-skipOutro)
		assert.Equal(t, math.Floor(w.Start), w.Start)
		assert.Equal(t, math.Floor(w.End), w.End)
	}

	// ordered and dense
	for i := 1; i < len(windows); i++ {
		assert.GreaterOrEqual(t, windows[i].Start, windows[i-1].Start)
	}
}

func TestGenerateWindowsShortVideo(t *testing.T) {
	// skip_intro ~5.0, skip_outro ~3.4, usable span ~33.6s
	windows := GenerateWindows(42, DefaultBounds())
	require.NotEmpty(t, windows)
	require.LessOrEqual(t, len(windows), 4)
	for _, w := range windows {
		assert.GreaterOrEqual(t, w.Duration(), minClipSeconds)
	}

	// everything overlaps, so selection can pick at most one
	for i := 1; i < len(windows); i++ {
		assert.True(t, windows[i].Overlaps(windows[0]))
	}
}

func TestGenerateWindowsTooShort(t *testing.T) {
	assert.Empty(t, GenerateWindows(20, DefaultBounds()))
	assert.Empty(t, GenerateWindows(0, DefaultBounds()))
	assert.Empty(t, GenerateWindows(-5, DefaultBounds()))
}

func TestGenerateWindowsHonorsJobBounds(t *testing.T) {
	windows := GenerateWindows(300, Bounds{Min: 20, Max: 25})
	require.NotEmpty(t, windows)
	for _, w := range windows {
		assert.GreaterOrEqual(t, w.Duration(), 20.0)
		assert.LessOrEqual(t, w.Duration(), 25.0)
	}

	// a minimum above the default preferred length still yields windows
	windows = GenerateWindows(600, Bounds{Min: 40, Max: 90})
	require.NotEmpty(t, windows)
	for _, w := range windows {
		assert.GreaterOrEqual(t, w.Duration(), 40.0)
		assert.LessOrEqual(t, w.Duration(), 90.0)
	}
}

func TestWindowOverlapsHalfOpen(t *testing.T) {
	a := Window{Start: 10, End: 20}
	assert.True(t, a.Overlaps(Window{Start: 15, End: 25}))
	assert.True(t, a.Overlaps(Window{Start: 5, End: 11}))
	assert.False(t, a.Overlaps(Window{Start: 20, End: 30}))
	assert.False(t, a.Overlaps(Window{Start: 0, End: 10}))
}
