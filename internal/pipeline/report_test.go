package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipforge/internal/rank"
	"clipforge/internal/transcript"
	"clipforge/internal/windows"
)

func TestTextPreviewTruncation(t *testing.T) {
	short := "brief remark"
	if got := textPreview(short); got != short {
		t.Fatalf("short text must pass through, got %q", got)
	}

	long := strings.Repeat("é", 300)
	got := textPreview(long)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix: %q", got[len(got)-10:])
	}
	if n := len([]rune(got)); n != previewRunes+3 {
		t.Fatalf("expected %d runes, got %d", previewRunes+3, n)
	}
}

func TestNewClipEntryFeatures(t *testing.T) {
	clip := rank.RankedClip{
		Rank: 1,
		Window: windows.Window{
			ID:              "window_002",
			Range:           windows.TimeRange{Start: 30, End: 120},
			SceneCutsInside: []float64{45, 80},
			Segments: []transcript.Sentence{
				{
					Text:  "First point made here.",
					Start: 35,
					End:   50,
					Words: []transcript.WordToken{{Text: "First"}, {Text: "point"}, {Text: "made"}, {Text: "here."}},
				},
				{
					Text:  "Second point follows.",
					Start: 60,
					End:   75,
					Words: []transcript.WordToken{{Text: "Second"}, {Text: "point"}, {Text: "follows."}},
				},
			},
		},
		Scores: rank.ScoreBreakdown{Final: 0.42},
	}

	entry := newClipEntry(clip, "/out/clip.mp4")
	if entry.Rank != 1 || entry.WindowID != "window_002" {
		t.Fatalf("identity fields wrong: %+v", entry)
	}
	if entry.Duration != 90 {
		t.Fatalf("duration = %v", entry.Duration)
	}
	if entry.WordCount != 7 {
		t.Fatalf("word count = %d", entry.WordCount)
	}
	if entry.SceneCuts != 2 {
		t.Fatalf("scene cuts = %d", entry.SceneCuts)
	}
	// 15s + 15s of speech over a 90s window.
	if entry.SpeechDuration != 30 {
		t.Fatalf("speech duration = %v", entry.SpeechDuration)
	}
	if got := entry.SpeechRatio; got < 0.333 || got > 0.334 {
		t.Fatalf("speech ratio = %v", got)
	}
	// 7 words / 1.5 minutes.
	if got := entry.WordsPerMinute; got < 4.66 || got > 4.67 {
		t.Fatalf("words per minute = %v", got)
	}
	if entry.TextPreview != "First point made here. Second point follows." {
		t.Fatalf("unexpected preview %q", entry.TextPreview)
	}
}

func TestWriteReportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	report := &Report{
		RunID:    "run-1",
		VideoID:  "vid",
		Duration: 200,
		Windows:  8,
		Clips: []ClipEntry{
			{Rank: 1, WindowID: "window_000", FilePath: "/out/a.mp4"},
		},
	}
	if err := writeReport(path, report); err != nil {
		t.Fatalf("write report: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if decoded.VideoID != "vid" || len(decoded.Clips) != 1 || decoded.Clips[0].WindowID != "window_000" {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}

func TestWriteCSVQuotesEmbeddedCommas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.csv")
	entries := []ClipEntry{
		{
			Rank:        1,
			WindowID:    "window_000",
			TextPreview: "First, a claim; then, evidence.",
		},
	}
	if err := writeCSV(path, "vid", entries); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.Contains(string(data), `"First, a claim; then, evidence."`) {
		t.Fatalf("comma-bearing preview must be quoted:\n%s", data)
	}
}
