package windows

import (
	"fmt"
	"math"

	"clipforge/internal/transcript"
)

// TimeRange is a half-open [Start, End) interval on the source timeline.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the range length in seconds.
func (r TimeRange) Duration() float64 {
	return r.End - r.Start
}

// Contains reports whether t lies within the range.
func (r TimeRange) Contains(t float64) bool {
	return t >= r.Start && t < r.End
}

// Window is a candidate clip region with the scene cuts and sentences it covers.
type Window struct {
	ID              string                `json:"id"`
	Range           TimeRange             `json:"range"`
	SceneCutsInside []float64             `json:"scene_cuts_inside"`
	Segments        []transcript.Sentence `json:"segments"`
}

// Text returns the window's concatenated sentence text.
func (w Window) Text() string {
	return transcript.Text(w.Segments)
}

// WordCount returns the number of transcript words inside the window.
func (w Window) WordCount() int {
	return transcript.WordCount(w.Segments)
}

// Params controls candidate window generation.
type Params struct {
	WindowDuration float64
	Stride         float64
	SnapThreshold  float64
	MinRatio       float64
}

// DefaultParams mirrors the standard 90s/15s sliding configuration.
func DefaultParams() Params {
	return Params{
		WindowDuration: 90,
		Stride:         15,
		SnapThreshold:  5,
		MinRatio:       0.8,
	}
}

// Generate produces overlapping candidate windows over a video of duration d,
// snapping boundaries to nearby scene cuts and attaching the sentences that
// mostly overlap each window. Windows come out in strictly increasing start
// order. Deterministic for identical inputs.
func Generate(d float64, cuts []float64, sentences []transcript.Sentence, params Params) []Window {
	if d <= 0 {
		return nil
	}
	if params.WindowDuration <= 0 || params.Stride <= 0 {
		defaults := DefaultParams()
		if params.WindowDuration <= 0 {
			params.WindowDuration = defaults.WindowDuration
		}
		if params.Stride <= 0 {
			params.Stride = defaults.Stride
		}
	}

	if d <= params.WindowDuration {
		return []Window{build(0, TimeRange{Start: 0, End: d}, cuts, sentences)}
	}

	var out []Window
	index := 0
	for t := 0.0; t < d-params.WindowDuration; t += params.Stride {
		r := snapRange(t, cuts, params)
		if r.End > d {
			r.End = d
		}
		out = append(out, build(index, r, cuts, sentences))
		index++
	}
	return out
}

// snapRange snaps both boundaries of [t, t+window] to the nearest scene cut
// within the snap threshold. When snapping would shrink the window below
// MinRatio of the nominal duration, both boundaries revert to the unsnapped
// candidate so the intended duration is preserved. Snapping never stretches
// a window past the nominal duration.
func snapRange(t float64, cuts []float64, params Params) TimeRange {
	start := snap(t, cuts, params.SnapThreshold)
	end := snap(t+params.WindowDuration, cuts, params.SnapThreshold)
	if end-start < params.WindowDuration*params.MinRatio {
		return TimeRange{Start: t, End: t + params.WindowDuration}
	}
	if end-start > params.WindowDuration {
		end = start + params.WindowDuration
	}
	return TimeRange{Start: start, End: end}
}

// snap returns the cut nearest to t when it lies within threshold, else t.
// On equal distance the earlier cut wins, which also makes a cut exactly at
// t snap to itself.
func snap(t float64, cuts []float64, threshold float64) float64 {
	if len(cuts) == 0 || threshold < 0 {
		return t
	}
	best := t
	bestDist := math.Inf(1)
	for _, cut := range cuts {
		dist := math.Abs(cut - t)
		if dist < bestDist {
			best = cut
			bestDist = dist
		}
	}
	if bestDist <= threshold {
		return best
	}
	return t
}

func build(index int, r TimeRange, cuts []float64, sentences []transcript.Sentence) Window {
	return Window{
		ID:              fmt.Sprintf("window_%03d", index),
		Range:           r,
		SceneCutsInside: cutsInside(r, cuts),
		Segments:        attach(r, sentences),
	}
}

func cutsInside(r TimeRange, cuts []float64) []float64 {
	inside := make([]float64, 0, len(cuts))
	for _, cut := range cuts {
		if cut > r.Start && cut < r.End {
			inside = append(inside, cut)
		}
	}
	return inside
}

// attach keeps the sentences whose overlap with r exceeds half their own
// duration. Zero-duration sentences attach when their instant lies inside.
func attach(r TimeRange, sentences []transcript.Sentence) []transcript.Sentence {
	var kept []transcript.Sentence
	for _, sentence := range sentences {
		overlap := math.Min(sentence.End, r.End) - math.Max(sentence.Start, r.Start)
		duration := sentence.Duration()
		if duration <= 0 {
			if r.Contains(sentence.Start) {
				kept = append(kept, sentence)
			}
			continue
		}
		if overlap > 0.5*duration {
			kept = append(kept, sentence)
		}
	}
	return kept
}
