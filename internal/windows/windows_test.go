package windows

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"clipforge/internal/transcript"
)

func TestGenerateZeroDuration(t *testing.T) {
	if got := Generate(0, nil, nil, DefaultParams()); len(got) != 0 {
		t.Fatalf("expected no windows, got %d", len(got))
	}
}

func TestGenerateShortVideoSingleWindow(t *testing.T) {
	got := Generate(45, []float64{20}, nil, DefaultParams())
	if len(got) != 1 {
		t.Fatalf("expected 1 window, got %d", len(got))
	}
	w := got[0]
	if w.Range.Start != 0 || w.Range.End != 45 {
		t.Fatalf("expected [0,45], got [%v,%v]", w.Range.Start, w.Range.End)
	}
	if w.ID != "window_000" {
		t.Fatalf("unexpected id %q", w.ID)
	}
}

func TestGenerateExactWindowDuration(t *testing.T) {
	got := Generate(90, nil, nil, DefaultParams())
	if len(got) != 1 {
		t.Fatalf("expected exactly one window, got %d", len(got))
	}
	if got[0].Range.Start != 0 || got[0].Range.End != 90 {
		t.Fatalf("expected [0,90], got %+v", got[0].Range)
	}
}

func TestGenerateMinimalScenario(t *testing.T) {
	sentence := transcript.Sentence{
		Text:  "Hello world.",
		Start: 10,
		End:   12,
		Words: []transcript.WordToken{
			{Text: "Hello", Start: 10, End: 11},
			{Text: "world.", Start: 11, End: 12},
		},
	}
	got := Generate(120, nil, []transcript.Sentence{sentence}, DefaultParams())
	if len(got) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(got))
	}
	if got[0].Range.Start != 0 || got[0].Range.End != 90 {
		t.Fatalf("unexpected first window %+v", got[0].Range)
	}
	if got[1].Range.Start != 15 || got[1].Range.End != 105 {
		t.Fatalf("unexpected second window %+v", got[1].Range)
	}
	if len(got[0].Segments) != 1 {
		t.Fatalf("first window should contain the sentence, got %d segments", len(got[0].Segments))
	}
	if len(got[1].Segments) != 0 {
		t.Fatalf("second window should not contain the sentence, got %d segments", len(got[1].Segments))
	}
}

func TestGenerateSnapScenario(t *testing.T) {
	cuts := []float64{28.0, 118.0}
	got := Generate(200, cuts, nil, DefaultParams())

	byStart := func(start float64) (Window, bool) {
		// Windows are emitted in stride order; index from the unsnapped start.
		idx := int(start / 15)
		if idx >= len(got) {
			return Window{}, false
		}
		return got[idx], true
	}

	w15, ok := byStart(15)
	if !ok {
		t.Fatal("missing window at t=15")
	}
	if w15.Range.Start != 15 || w15.Range.End != 105 {
		t.Fatalf("t=15 should not snap, got [%v,%v]", w15.Range.Start, w15.Range.End)
	}

	w30, ok := byStart(30)
	if !ok {
		t.Fatal("missing window at t=30")
	}
	if w30.Range.Start != 28.0 || w30.Range.End != 118.0 {
		t.Fatalf("t=30 should snap to [28,118], got [%v,%v]", w30.Range.Start, w30.Range.End)
	}
	if w30.Range.Duration() != 90.0 {
		t.Fatalf("expected duration 90, got %v", w30.Range.Duration())
	}
}

func TestSnapTieBreaksToExactCut(t *testing.T) {
	if got := snap(30, []float64{30}, 5); got != 30 {
		t.Fatalf("cut exactly at t must win, got %v", got)
	}
	// Equidistant cuts: earlier one wins.
	if got := snap(30, []float64{27, 33}, 5); got != 27 {
		t.Fatalf("expected earlier cut on tie, got %v", got)
	}
}

func TestSnapFallbackRevertsBothBoundaries(t *testing.T) {
	params := Params{WindowDuration: 90, Stride: 15, SnapThreshold: 15, MinRatio: 0.8}
	// Cuts pull start forward and end backward far enough to shrink the
	// window below 0.8 of the nominal duration.
	cuts := []float64{42.0, 108.0}
	r := snapRange(30, cuts, params)
	if r.Start != 30 || r.End != 120 {
		t.Fatalf("expected revert to [30,120], got [%v,%v]", r.Start, r.End)
	}
}

func TestSnapNeverStretchesPastNominalDuration(t *testing.T) {
	params := DefaultParams()
	// Start snaps back to 28 while no cut lies near the end candidate, so
	// the end clamps to preserve the nominal duration.
	r := snapRange(30, []float64{28.0}, params)
	if r.Start != 28 || r.End != 118 {
		t.Fatalf("expected [28,118], got [%v,%v]", r.Start, r.End)
	}
}

func TestGenerateInvariants(t *testing.T) {
	cuts := []float64{31, 62, 95, 140, 201, 250}
	sentences := []transcript.Sentence{
		{Text: "First point.", Start: 5, End: 9, Words: make([]transcript.WordToken, 2)},
		{Text: "Second point.", Start: 100, End: 104, Words: make([]transcript.WordToken, 2)},
		{Text: "Closing thought.", Start: 260, End: 266, Words: make([]transcript.WordToken, 2)},
	}
	params := DefaultParams()
	got := Generate(300, cuts, sentences, params)
	if len(got) == 0 {
		t.Fatal("expected windows")
	}
	prevStart := math.Inf(-1)
	for _, w := range got {
		if w.Range.Start >= w.Range.End {
			t.Fatalf("%s: start %v >= end %v", w.ID, w.Range.Start, w.Range.End)
		}
		if w.Range.Duration() > params.WindowDuration+1e-9 {
			t.Fatalf("%s: duration %v exceeds nominal", w.ID, w.Range.Duration())
		}
		if w.Range.Start <= prevStart {
			t.Fatalf("%s: starts not strictly increasing", w.ID)
		}
		prevStart = w.Range.Start
		for _, cut := range w.SceneCutsInside {
			if cut <= w.Range.Start || cut >= w.Range.End {
				t.Fatalf("%s: cut %v outside range %+v", w.ID, cut, w.Range)
			}
		}
		for _, s := range w.Segments {
			overlap := math.Min(s.End, w.Range.End) - math.Max(s.Start, w.Range.Start)
			if overlap <= 0.5*s.Duration() {
				t.Fatalf("%s: sentence %q attached with overlap %v", w.ID, s.Text, overlap)
			}
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cuts := []float64{28, 118}
	sentences := []transcript.Sentence{{Text: "Repeatable.", Start: 40, End: 44}}
	a := Generate(200, cuts, sentences, DefaultParams())
	b := Generate(200, cuts, sentences, DefaultParams())
	if !reflect.DeepEqual(a, b) {
		t.Fatal("expected identical output for identical inputs")
	}
}

func TestWindowJSONRoundTrip(t *testing.T) {
	w := Window{
		ID:              "window_002",
		Range:           TimeRange{Start: 30, End: 118},
		SceneCutsInside: []float64{62},
		Segments: []transcript.Sentence{{
			Text:  "A claim.",
			Start: 40,
			End:   43,
			Words: []transcript.WordToken{{Text: "A", Start: 40, End: 41}, {Text: "claim.", Start: 41, End: 43}},
		}},
	}
	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Window
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(w, decoded) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", w, decoded)
	}
}

func TestWindowTextHelpers(t *testing.T) {
	w := Window{Segments: []transcript.Sentence{
		{Text: "One two.", Words: make([]transcript.WordToken, 2)},
		{Text: "Three.", Words: make([]transcript.WordToken, 1)},
	}}
	if w.Text() != "One two. Three." {
		t.Fatalf("unexpected text %q", w.Text())
	}
	if w.WordCount() != 3 {
		t.Fatalf("unexpected word count %d", w.WordCount())
	}
}
