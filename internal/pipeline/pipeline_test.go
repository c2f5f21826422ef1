package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipforge/internal/config"
	"clipforge/internal/fetch"
	"clipforge/internal/logging"
	"clipforge/internal/media/probe"
	"clipforge/internal/media/scenes"
	"clipforge/internal/rank"
	"clipforge/internal/registry"
	"clipforge/internal/services"
	"clipforge/internal/services/asr"
	"clipforge/internal/services/grader"
)

type fakeFetcher struct {
	err error
}

func (f *fakeFetcher) Fetch(_ context.Context, sourceURL, destDir string) (fetch.Result, error) {
	if f.err != nil {
		return fetch.Result{}, f.err
	}
	videoPath := filepath.Join(destDir, "vid.mp4")
	audioPath := filepath.Join(destDir, "vid.wav")
	for _, path := range []string{videoPath, audioPath} {
		if err := os.WriteFile(path, []byte("stub"), 0o644); err != nil {
			return fetch.Result{}, err
		}
	}
	return fetch.Result{
		VideoPath: videoPath,
		AudioPath: audioPath,
		Meta:      fetch.Metadata{VideoID: "vid", SourceURL: sourceURL},
	}, nil
}

type fakeTranscriber struct{}

func (fakeTranscriber) Transcribe(context.Context, string) (asr.Transcription, error) {
	// Sentences spread across the first two minutes so several windows
	// attach text.
	var segments []asr.Segment
	for i := 0; i < 24; i++ {
		start := float64(i * 5)
		segments = append(segments, asr.Segment{
			ID:    i,
			Start: start,
			End:   start + 4,
			Text:  "the quantum sensor network measures entanglement decay rates.",
			Words: []asr.Word{
				{Word: "the", Start: start, End: start + 0.5, Probability: 0.99},
				{Word: "quantum", Start: start + 0.5, End: start + 1.2, Probability: 0.98},
				{Word: "sensor", Start: start + 1.2, End: start + 1.8, Probability: 0.97},
				{Word: "network", Start: start + 1.8, End: start + 2.4, Probability: 0.98},
				{Word: "measures", Start: start + 2.4, End: start + 3.0, Probability: 0.96},
				{Word: "entanglement", Start: start + 3.0, End: start + 3.6, Probability: 0.95},
				{Word: "decay", Start: start + 3.6, End: start + 3.9, Probability: 0.97},
				{Word: "rates.", Start: start + 3.9, End: start + 4.0, Probability: 0.98},
			},
		})
	}
	return asr.Transcription{Text: "stub", Language: "en", Duration: 200, Segments: segments}, nil
}

type fakeDetector struct {
	cuts []scenes.Cut
	err  error
}

func (f *fakeDetector) Detect(context.Context, string) ([]scenes.Cut, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cuts, nil
}

type fakeGrader struct{}

func (fakeGrader) Grade(context.Context, string) (grader.Result, error) {
	return grader.Result{
		Cogency:      4,
		Quotes:       []string{"entanglement decay rates"},
		SalientTerms: []string{"quantum", "sensor"},
	}, nil
}

type fakeRenderer struct {
	failWindow string
}

func (f *fakeRenderer) Render(_ context.Context, clip rank.RankedClip, _ probe.MediaInfo, outputPath string) error {
	if clip.Window.ID == f.failWindow {
		return services.NewRenderError(clip.Window.ID, errors.New("encoder crashed"))
	}
	return os.WriteFile(outputPath, []byte("clip"), 0o644)
}

func stubProbe(context.Context, string) (probe.MediaInfo, error) {
	return probe.MediaInfo{DurationSeconds: 200, Width: 1920, Height: 1080, VideoCodec: "h264", HasAudio: true}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.TempDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	return &cfg
}

func testPipeline(t *testing.T, cfg *config.Config, extra ...Option) *Pipeline {
	t.Helper()
	opts := []Option{
		WithFetcher(&fakeFetcher{}),
		WithTranscriber(fakeTranscriber{}),
		WithSceneDetector(&fakeDetector{cuts: []scenes.Cut{{Timestamp: 33, Score: 0.6}}}),
		WithGrader(fakeGrader{}),
		WithRenderer(&fakeRenderer{}),
		WithProbe(stubProbe),
	}
	opts = append(opts, extra...)
	return New(cfg, logging.NewNop(), opts...)
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	p := testPipeline(t, cfg)

	outcome, err := p.Run(context.Background(), "https://example.com/talk.mp4", 3)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Status != registry.StatusCompleted {
		t.Fatalf("expected completed, got %s", outcome.Status)
	}
	if outcome.Report.Rendered != 3 || len(outcome.Report.Clips) != 3 {
		t.Fatalf("expected 3 rendered clips, got %d / %d", outcome.Report.Rendered, len(outcome.Report.Clips))
	}
	if outcome.Report.VideoID != "vid" {
		t.Fatalf("unexpected video id %q", outcome.Report.VideoID)
	}

	for _, entry := range outcome.Report.Clips {
		if entry.FilePath == "" {
			t.Fatalf("rendered clip missing path: %+v", entry)
		}
		if _, err := os.Stat(entry.FilePath); err != nil {
			t.Fatalf("clip file missing: %v", err)
		}
		base := filepath.Base(entry.FilePath)
		want := fmt.Sprintf("vid_clip_%02d_%s.mp4", entry.Rank, entry.WindowID)
		if base != want {
			t.Fatalf("clip filename %q, want %q", base, want)
		}
	}

	if _, err := os.Stat(outcome.ReportPath); err != nil {
		t.Fatalf("report missing: %v", err)
	}
	if _, err := os.Stat(outcome.CSVPath); err != nil {
		t.Fatalf("csv missing: %v", err)
	}
}

func TestRunCSVShape(t *testing.T) {
	cfg := testConfig(t)
	p := testPipeline(t, cfg)

	outcome, err := p.Run(context.Background(), "https://example.com/talk.mp4", 2)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	file, err := os.Open(outcome.CSVPath)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(csvHeader, ",") {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "vid" || rows[1][1] != "1" {
		t.Fatalf("unexpected first row prefix: %v", rows[1][:3])
	}
	if rows[1][11] != "4" {
		t.Fatalf("cogency_raw column should carry the 1-5 verdict, got %q", rows[1][11])
	}
}

func TestRunPartialOnRenderFailure(t *testing.T) {
	cfg := testConfig(t)
	store, err := registry.OpenPath(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	defer store.Close()

	// The highest-scoring window renders first; failing rank 1's window
	// exercises the sibling-isolation rule.
	p := testPipeline(t, cfg, WithStore(store))
	probeOutcome, err := p.Run(context.Background(), "https://example.com/talk.mp4", 3)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	failID := probeOutcome.Report.Clips[0].WindowID

	cfg2 := testConfig(t)
	p2 := testPipeline(t, cfg2, WithStore(store), WithRenderer(&fakeRenderer{failWindow: failID}))
	outcome, err := p2.Run(context.Background(), "https://example.com/talk.mp4", 3)
	if err != nil {
		t.Fatalf("partial run: %v", err)
	}
	if outcome.Status != registry.StatusPartial {
		t.Fatalf("expected partial, got %s", outcome.Status)
	}
	if len(outcome.FailedWindows) != 1 || outcome.FailedWindows[0] != failID {
		t.Fatalf("unexpected failed windows: %v", outcome.FailedWindows)
	}
	if outcome.Report.Rendered != 2 || len(outcome.Report.Clips) != 2 {
		t.Fatalf("expected 2 surviving clips, got %d / %d", outcome.Report.Rendered, len(outcome.Report.Clips))
	}
	for _, entry := range outcome.Report.Clips {
		if entry.WindowID == failID {
			t.Fatal("failed window must be omitted from the report")
		}
	}

	run, err := store.GetRun(context.Background(), outcome.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.Status != registry.StatusPartial || run.ClipsRendered != 2 {
		t.Fatalf("registry run not updated: %+v", run)
	}
	clips, err := store.ClipsForRun(context.Background(), outcome.RunID)
	if err != nil {
		t.Fatalf("clips for run: %v", err)
	}
	if len(clips) != 2 {
		t.Fatalf("expected 2 registry clips, got %d", len(clips))
	}
}

func TestRunFetchFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	fetchErr := services.Wrap(services.ErrSourceUnavailable, "fetch", "download", "404", nil)
	p := testPipeline(t, cfg, WithFetcher(&fakeFetcher{err: fetchErr}))

	_, err := p.Run(context.Background(), "https://example.com/gone.mp4", 3)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected source-unavailable marker, got %v", err)
	}
}

func TestRunSceneFailureDegrades(t *testing.T) {
	cfg := testConfig(t)
	detectErr := services.Wrap(services.ErrSceneDetection, "scenes", "detect", "ffmpeg exploded", nil)
	p := testPipeline(t, cfg, WithSceneDetector(&fakeDetector{err: detectErr}))

	outcome, err := p.Run(context.Background(), "https://example.com/talk.mp4", 2)
	if err != nil {
		t.Fatalf("run must survive scene failure: %v", err)
	}
	if outcome.Status != registry.StatusCompleted {
		t.Fatalf("expected completed, got %s", outcome.Status)
	}
	if len(outcome.Report.Warnings) == 0 {
		t.Fatal("expected a degradation warning in the report")
	}
	if outcome.Report.SceneCuts != 0 {
		t.Fatalf("expected no scene cuts, got %d", outcome.Report.SceneCuts)
	}
}

func TestRunAllRendersFailedIsFatal(t *testing.T) {
	cfg := testConfig(t)
	p := testPipeline(t, cfg, WithRenderer(&failAllRenderer{}))

	_, err := p.Run(context.Background(), "https://example.com/talk.mp4", 2)
	if err == nil {
		t.Fatal("expected error when every render fails")
	}
}

type failAllRenderer struct{}

func (failAllRenderer) Render(_ context.Context, clip rank.RankedClip, _ probe.MediaInfo, _ string) error {
	return services.NewRenderError(clip.Window.ID, errors.New("no encoder"))
}
