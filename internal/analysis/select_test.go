package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(start, end, composite, confidence float64) Candidate {
	return Candidate{
		Window:   Window{Start: start, End: end},
		Analysis: RetentionAnalysis{Composite: composite, Confidence: confidence},
	}
}

func TestSelectTopNNonOverlapping(t *testing.T) {
	candidates := []Candidate{
		candidate(0, 30, 0.9, 0.8),
		candidate(10, 40, 0.95, 0.8), // best, knocks out both neighbors
		candidate(20, 50, 0.85, 0.8),
		candidate(60, 90, 0.7, 0.8),
		candidate(100, 130, 0.6, 0.8),
	}

	selected := SelectTopN(candidates, 8)
	require.Len(t, selected, 3)
	assert.Equal(t, 10.0, selected[0].Window.Start)
	assert.Equal(t, 60.0, selected[1].Window.Start)
	assert.Equal(t, 100.0, selected[2].Window.Start)

	for i := range selected {
		for j := i + 1; j < len(selected); j++ {
			assert.False(t, selected[i].Window.Overlaps(selected[j].Window))
		}
	}
}

func TestSelectTopNHonorsLimit(t *testing.T) {
	var candidates []Candidate
	for i := 0; i < 20; i++ {
		start := float64(i * 100)
		candidates = append(candidates, candidate(start, start+30, 0.5, 0.5))
	}
	assert.Len(t, SelectTopN(candidates, 5), 5)
	assert.Len(t, SelectTopN(candidates, 8), 8)
}

func TestSelectTopNConfidenceBreaksTies(t *testing.T) {
	candidates := []Candidate{
		candidate(0, 30, 0.8, 0.6),
		candidate(10, 40, 0.8, 0.9),
	}
	selected := SelectTopN(candidates, 1)
	require.Len(t, selected, 1)
	assert.Equal(t, 10.0, selected[0].Window.Start)
}

func TestSelectTopNDeterministic(t *testing.T) {
	candidates := []Candidate{
		candidate(0, 30, 0.8, 0.7),
		candidate(40, 70, 0.8, 0.7),
		candidate(80, 110, 0.8, 0.7),
	}
	first := SelectTopN(candidates, 2)
	second := SelectTopN(candidates, 2)
	assert.Equal(t, first, second)
}

func TestSelectTopNEmpty(t *testing.T) {
	assert.Nil(t, SelectTopN(nil, 8))
	assert.Nil(t, SelectTopN([]Candidate{candidate(0, 30, 0.5, 0.5)}, 0))
}
