package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"clipforge/internal/analysis/density"
	"clipforge/internal/config"
	"clipforge/internal/fetch"
	"clipforge/internal/logging"
	"clipforge/internal/media/probe"
	"clipforge/internal/media/scenes"
	"clipforge/internal/rank"
	"clipforge/internal/registry"
	"clipforge/internal/render"
	"clipforge/internal/services"
	"clipforge/internal/services/asr"
	"clipforge/internal/services/grader"
	"clipforge/internal/transcript"
	"clipforge/internal/windows"
)

const defaultRenderConcurrency = 2

// Transcriber produces a word-level transcription for an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (asr.Transcription, error)
}

// SceneDetector finds visual cut points in a video file.
type SceneDetector interface {
	Detect(ctx context.Context, path string) ([]scenes.Cut, error)
}

// ClipRenderer produces the final clip file for one ranked window.
type ClipRenderer interface {
	Render(ctx context.Context, clip rank.RankedClip, source probe.MediaInfo, outputPath string) error
}

// ProbeFunc inspects a media file.
type ProbeFunc func(ctx context.Context, path string) (probe.MediaInfo, error)

// Outcome summarizes a finished run.
type Outcome struct {
	RunID      string
	Status     registry.RunStatus
	Report     *Report
	ReportPath string
	CSVPath    string
	// FailedWindows lists window ids whose render failed.
	FailedWindows []string
}

// Pipeline coordinates one video through fetch, analysis, ranking, and
// rendering.
type Pipeline struct {
	cfg         *config.Config
	logger      *slog.Logger
	fetcher     fetch.Fetcher
	transcriber Transcriber
	detector    SceneDetector
	grader      rank.Grader
	renderer    ClipRenderer
	probe       ProbeFunc
	store       *registry.Store
}

// Option customizes pipeline construction, mainly for tests.
type Option func(*Pipeline)

// WithFetcher replaces the yt-dlp fetcher.
func WithFetcher(f fetch.Fetcher) Option { return func(p *Pipeline) { p.fetcher = f } }

// WithTranscriber replaces the ASR client.
func WithTranscriber(t Transcriber) Option { return func(p *Pipeline) { p.transcriber = t } }

// WithSceneDetector replaces the ffmpeg scene detector.
func WithSceneDetector(d SceneDetector) Option { return func(p *Pipeline) { p.detector = d } }

// WithGrader replaces the cogency grader client.
func WithGrader(g rank.Grader) Option { return func(p *Pipeline) { p.grader = g } }

// WithRenderer replaces the per-run ffmpeg renderer.
func WithRenderer(r ClipRenderer) Option { return func(p *Pipeline) { p.renderer = r } }

// WithProbe replaces the ffprobe inspector.
func WithProbe(fn ProbeFunc) Option { return func(p *Pipeline) { p.probe = fn } }

// WithStore attaches a run registry.
func WithStore(s *registry.Store) Option { return func(p *Pipeline) { p.store = s } }

// New wires a pipeline from config. Options override individual
// collaborators.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.fetcher == nil {
		p.fetcher = fetch.NewCommandFetcher(cfg.FetcherBinary(), cfg.FFmpegBinary(), logger)
	}
	if p.transcriber == nil {
		p.transcriber = asr.NewClient(asr.Config{
			BaseURL:        cfg.ASR.BaseURL,
			Model:          cfg.ASR.Model,
			TimeoutSeconds: cfg.ASR.TimeoutSeconds,
		})
	}
	if p.detector == nil {
		p.detector = scenes.NewDetector(cfg.FFmpegBinary(), cfg.Scenes.ContentThreshold)
	}
	if p.grader == nil {
		p.grader = grader.NewClient(grader.Config{
			BaseURL:        cfg.Grader.BaseURL,
			Model:          cfg.Grader.Model,
			APIKey:         cfg.Grader.APIKey,
			TimeoutSeconds: cfg.Grader.TimeoutSeconds,
		})
	}
	if p.probe == nil {
		p.probe = func(ctx context.Context, path string) (probe.MediaInfo, error) {
			return probe.InspectMedia(ctx, cfg.FFprobeBinary(), path)
		}
	}
	return p
}

// Run processes one source URL end to end and returns the run outcome.
// Fatal stage errors abort the run; per-window scoring and render failures
// degrade it to a partial result.
func (p *Pipeline) Run(ctx context.Context, sourceURL string, k int) (*Outcome, error) {
	if k <= 0 {
		k = p.cfg.Ranker.TopK
	}
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := p.logger.With(logging.String(logging.FieldRunID, runID))

	if err := p.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "prepare", "", err)
	}

	lock := flock.New(filepath.Join(p.cfg.Paths.OutputDir, ".clipforge.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "lock output dir", p.cfg.Paths.OutputDir, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "lock output dir",
			"another run owns "+p.cfg.Paths.OutputDir, nil)
	}
	defer func() { _ = lock.Unlock() }()

	runTempDir := filepath.Join(p.cfg.Paths.TempDir, "run_"+shortID(runID))
	if err := os.MkdirAll(runTempDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "create temp dir", runTempDir, err)
	}
	defer func() { _ = os.RemoveAll(runTempDir) }()

	logger.Info("run started", logging.String("url", sourceURL), logging.Int("k", k))
	started := time.Now()

	outcome, err := p.run(ctx, logger, runID, runTempDir, sourceURL, k)
	if err != nil {
		p.finishRun(runID, registry.StatusFailed, 0, err.Error())
		logger.Error("run failed", logging.Error(err), logging.Duration("elapsed", time.Since(started)))
		return nil, err
	}

	logger.Info("run finished",
		logging.String("status", string(outcome.Status)),
		logging.Int("rendered", outcome.Report.Rendered),
		logging.Int("requested", outcome.Report.Requested),
		logging.Duration("elapsed", time.Since(started)))
	return outcome, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, runID, runTempDir, sourceURL string, k int) (*Outcome, error) {
	var warnings []string

	fetched, err := p.fetcher.Fetch(ctx, sourceURL, runTempDir)
	if err != nil {
		return nil, err
	}
	videoID := fetched.Meta.VideoID
	logger = logger.With(logging.String(logging.FieldVideoID, videoID))

	p.startRun(runID, videoID, sourceURL, k)

	p.setStatus(runID, registry.StatusProbing)
	source, err := p.probe(ctx, fetched.VideoPath)
	if err != nil {
		return nil, err
	}
	logger.Info("media probed",
		logging.Float64("duration", source.DurationSeconds),
		logging.Int("width", source.Width),
		logging.Int("height", source.Height))

	// Scene detection and transcription hit independent resources and run
	// in parallel. Scene failure degrades; transcription failure is fatal.
	p.setStatus(runID, registry.StatusTranscribing)
	var (
		cuts          []scenes.Cut
		transcription asr.Transcription
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		detected, err := p.detector.Detect(groupCtx, fetched.VideoPath)
		if err != nil {
			logger.Warn("scene detection degraded", logging.Error(err))
			return nil
		}
		cuts = detected
		return nil
	})
	group.Go(func() error {
		tx, err := p.transcriber.Transcribe(groupCtx, fetched.AudioPath)
		if err != nil {
			return err
		}
		transcription = tx
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if cuts == nil {
		warnings = append(warnings, "scene detection unavailable; windows use nominal boundaries")
	}

	sentences := transcript.Align(transcription.Words())
	wins := windows.Generate(source.DurationSeconds, scenes.Timestamps(cuts), sentences, windows.Params{
		WindowDuration: p.cfg.Windows.DurationSeconds,
		Stride:         p.cfg.Windows.StrideSeconds,
		SnapThreshold:  p.cfg.Windows.SnapThreshold,
		MinRatio:       p.cfg.Windows.MinRatio,
	})
	logger.Info("candidates generated",
		logging.Int("windows", len(wins)),
		logging.Int("scene_cuts", len(cuts)),
		logging.Int("sentences", len(sentences)))

	p.setStatus(runID, registry.StatusRanking)
	docs := make([]string, len(wins))
	for i, win := range wins {
		docs[i] = win.Text()
	}
	model := density.Fit(docs)
	ranker := rank.New(p.grader, model, p.logger, rank.WithGraderConcurrency(p.cfg.Grader.MaxConcurrent))
	scored, err := ranker.ScoreAll(ctx, wins)
	if err != nil {
		return nil, err
	}
	ranked := rank.TopK(scored, k)

	p.setStatus(runID, registry.StatusRendering)
	entries, failed := p.renderAll(ctx, logger, runTempDir, videoID, source, ranked)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	rendered := len(ranked) - len(failed)
	report := &Report{
		RunID:       runID,
		VideoID:     videoID,
		SourceURL:   sourceURL,
		GeneratedAt: time.Now().UTC(),
		Duration:    source.DurationSeconds,
		Width:       source.Width,
		Height:      source.Height,
		SceneCuts:   len(cuts),
		Sentences:   len(sentences),
		Windows:     len(wins),
		Requested:   k,
		Rendered:    rendered,
		Warnings:    warnings,
	}
	for _, entry := range entries {
		if entry.FilePath != "" {
			report.Clips = append(report.Clips, entry)
		}
	}

	reportPath := filepath.Join(p.cfg.Paths.OutputDir, videoID+"_report.json")
	csvPath := filepath.Join(p.cfg.Paths.OutputDir, videoID+"_scores.csv")
	if err := writeReport(reportPath, report); err != nil {
		return nil, err
	}
	if err := writeCSV(csvPath, videoID, entries); err != nil {
		return nil, err
	}

	if len(ranked) > 0 && rendered == 0 {
		// Run's failure path records the terminal state.
		return nil, services.Wrap(services.ErrExternalTool, "render", "batch", "all renders failed", nil)
	}

	status := registry.StatusCompleted
	var failNote string
	if len(failed) > 0 {
		status = registry.StatusPartial
		failNote = fmt.Sprintf("%d of %d windows failed to render", len(failed), len(ranked))
	}
	p.recordClips(runID, report)
	p.finishRun(runID, status, rendered, failNote)

	return &Outcome{
		RunID:         runID,
		Status:        status,
		Report:        report,
		ReportPath:    reportPath,
		CSVPath:       csvPath,
		FailedWindows: failed,
	}, nil
}

// renderAll renders the top-K concurrently under the render cap. Entries
// come back in rank order; failed windows keep their row with an empty
// file path.
func (p *Pipeline) renderAll(ctx context.Context, logger *slog.Logger, runTempDir, videoID string, source probe.MediaInfo, ranked []rank.RankedClip) ([]ClipEntry, []string) {
	renderer := p.renderer
	if renderer == nil {
		renderer = render.New(render.Options{
			FFmpegBinary:   p.cfg.FFmpegBinary(),
			Quality:        p.cfg.Render.Quality,
			TempDir:        runTempDir,
			ExtractTimeout: time.Duration(p.cfg.Render.ExtractTimeoutSeconds) * time.Second,
			CaptionTimeout: time.Duration(p.cfg.Render.CaptionTimeoutSeconds) * time.Second,
		}, p.logger)
	}

	limit := p.cfg.Render.MaxConcurrent
	if limit <= 0 {
		limit = defaultRenderConcurrency
	}

	entries := make([]ClipEntry, len(ranked))
	var (
		mu     sync.Mutex
		failed []string
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for i, clip := range ranked {
		i, clip := i, clip
		group.Go(func() error {
			outPath := filepath.Join(p.cfg.Paths.OutputDir,
				fmt.Sprintf("%s_clip_%02d_%s.mp4", videoID, clip.Rank, clip.Window.ID))
			err := renderer.Render(groupCtx, clip, source, outPath)
			if err != nil {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}
				logger.Warn("render failed",
					logging.String(logging.FieldWindowID, clip.Window.ID),
					logging.Error(err))
				mu.Lock()
				failed = append(failed, clip.Window.ID)
				mu.Unlock()
				outPath = ""
			}
			entries[i] = newClipEntry(clip, outPath)
			return nil
		})
	}
	// Render errors never propagate; only cancellation ends the wait early.
	_ = group.Wait()

	sort.Strings(failed)
	return entries, failed
}

func (p *Pipeline) startRun(runID, videoID, sourceURL string, k int) {
	if p.store == nil {
		return
	}
	if _, err := p.store.StartRun(context.Background(), runID, videoID, sourceURL, k); err != nil {
		p.logger.Warn("registry start failed", logging.Error(err))
	}
}

func (p *Pipeline) setStatus(runID string, status registry.RunStatus) {
	if p.store == nil {
		return
	}
	if err := p.store.SetStatus(context.Background(), runID, status); err != nil {
		p.logger.Warn("registry status update failed", logging.Error(err))
	}
}

func (p *Pipeline) finishRun(runID string, status registry.RunStatus, rendered int, note string) {
	if p.store == nil {
		return
	}
	if err := p.store.FinishRun(context.Background(), runID, status, rendered, note); err != nil {
		p.logger.Warn("registry finish failed", logging.Error(err))
	}
}

func (p *Pipeline) recordClips(runID string, report *Report) {
	if p.store == nil {
		return
	}
	for _, entry := range report.Clips {
		_, err := p.store.RecordClip(context.Background(), registry.Clip{
			RunID:      runID,
			VideoID:    report.VideoID,
			Rank:       entry.Rank,
			WindowID:   entry.WindowID,
			StartTime:  entry.Start,
			EndTime:    entry.End,
			FinalScore: entry.Scores.Final,
			FilePath:   entry.FilePath,
		})
		if err != nil {
			p.logger.Warn("registry clip record failed",
				logging.String(logging.FieldWindowID, entry.WindowID),
				logging.Error(err))
		}
	}
}

func shortID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}
