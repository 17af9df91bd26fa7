package analysis

import "sort"

// Candidate is a scored window awaiting selection.
type Candidate struct {
	Window   Window
	Analysis RetentionAnalysis
	Signals  Signals
}

// SelectTopN ranks candidates by composite score (confidence breaking ties)
// and greedily picks up to n pairwise non-overlapping windows.
func SelectTopN(candidates []Candidate, n int) []Candidate {
	if n <= 0 || len(candidates) == 0 {
		return nil
	}

	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Analysis.Composite != ranked[j].Analysis.Composite {
			return ranked[i].Analysis.Composite > ranked[j].Analysis.Composite
		}
		return ranked[i].Analysis.Confidence > ranked[j].Analysis.Confidence
	})

	var selected []Candidate
	for _, c := range ranked {
		if len(selected) == n {
			break
		}
		overlaps := false
		for _, s := range selected {
			if c.Window.Overlaps(s.Window) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			selected = append(selected, c)
		}
	}

	sort.Slice(selected, func(i, j int) bool {
		return selected[i].Window.Start < selected[j].Window.Start
	})
	return selected
}
