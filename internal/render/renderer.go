package render

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"clipforge/internal/logging"
	"clipforge/internal/media/probe"
	"clipforge/internal/rank"
	"clipforge/internal/services"
)

const (
	targetAspect    = 9.0 / 16.0
	aspectTolerance = 0.01
	outputWidth     = 1080
	outputHeight    = 1920

	subtitleStyle = "FontName=Arial,FontSize=48,PrimaryColour=&HFFFFFF,BackColour=&H80000000,BorderStyle=4,Bold=1,Alignment=2,MarginV=60"

	defaultExtractTimeout = 5 * time.Minute
	defaultCaptionTimeout = 10 * time.Minute
)

// qualityParams maps a quality preset to encoder arguments.
type qualityParams struct {
	preset string
	value  string
}

var qualityTable = map[string]qualityParams{
	"high":   {preset: "slow", value: "18"},
	"medium": {preset: "medium", value: "23"},
	"fast":   {preset: "fast", value: "28"},
}

// Options configures the renderer.
type Options struct {
	FFmpegBinary   string
	Quality        string
	TempDir        string
	ExtractTimeout time.Duration
	CaptionTimeout time.Duration
	// ForceSoftware skips hardware encoder detection.
	ForceSoftware bool
}

// Renderer extracts, reframes, and captions winning windows.
type Renderer struct {
	opts   Options
	logger *slog.Logger
}

// New builds a renderer. Unset options fall back to software defaults.
func New(opts Options, logger *slog.Logger) *Renderer {
	if strings.TrimSpace(opts.FFmpegBinary) == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if _, ok := qualityTable[opts.Quality]; !ok {
		opts.Quality = "high"
	}
	if opts.ExtractTimeout <= 0 {
		opts.ExtractTimeout = defaultExtractTimeout
	}
	if opts.CaptionTimeout <= 0 {
		opts.CaptionTimeout = defaultCaptionTimeout
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	return &Renderer{opts: opts, logger: logging.NewComponentLogger(logger, "render")}
}

// Render produces the final captioned vertical clip for one ranked window.
// The intermediate extract lives under the temp directory and is removed
// after a successful caption pass. Failures come back as per-window render
// errors so sibling renders continue.
func (r *Renderer) Render(ctx context.Context, clip rank.RankedClip, source probe.MediaInfo, outputPath string) error {
	windowID := clip.Window.ID
	duration := clip.Window.Range.Duration()
	if duration <= 0 {
		return services.NewRenderError(windowID, fmt.Errorf("non-positive duration %v", duration))
	}

	tempClip := filepath.Join(r.opts.TempDir, fmt.Sprintf("%s_extract.mp4", windowID))
	tempSRT := filepath.Join(r.opts.TempDir, fmt.Sprintf("%s.srt", windowID))
	defer r.cleanup(tempClip, tempSRT)

	useHW := !r.opts.ForceSoftware && hardwareEncoderAvailable(ctx, r.opts.FFmpegBinary)

	if err := r.runFFmpeg(ctx, r.opts.ExtractTimeout,
		extractArgs(source, clip.Window.Range.Start, duration, r.opts.Quality, useHW, tempClip)); err != nil {
		return services.NewRenderError(windowID, fmt.Errorf("extract: %w", err))
	}

	captions := rebaseCaptions(clip.Window.Segments, clip.Window.Range.Start, duration)
	if err := os.WriteFile(tempSRT, []byte(formatSRT(captions)), 0o644); err != nil {
		return services.NewRenderError(windowID, fmt.Errorf("write subtitles: %w", err))
	}

	if err := r.runFFmpeg(ctx, r.opts.CaptionTimeout,
		captionArgs(tempClip, tempSRT, r.opts.Quality, useHW, outputPath)); err != nil {
		return services.NewRenderError(windowID, fmt.Errorf("caption: %w", err))
	}

	r.logger.Info("rendered clip",
		logging.String(logging.FieldWindowID, windowID),
		logging.String("output", outputPath),
		logging.Bool("hardware", useHW))
	return nil
}

// extractArgs builds the first-pass argument list: seek, reframe to 9:16,
// encode video, and re-encode audio to AAC.
func extractArgs(source probe.MediaInfo, start, duration float64, quality string, useHW bool, outPath string) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(duration),
		"-i", source.Path,
		"-vf", reframeFilter(source.Width, source.Height),
	}
	args = append(args, encoderArgs(quality, useHW)...)
	args = append(args,
		"-c:a", "aac",
		"-b:a", "128k",
		"-y", outPath,
	)
	return args
}

// captionArgs builds the second-pass argument list: burn subtitles and copy
// audio.
func captionArgs(inPath, srtPath, quality string, useHW bool, outPath string) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", inPath,
		"-vf", fmt.Sprintf("subtitles=%s:force_style='%s'", escapeFilterPath(srtPath), subtitleStyle),
	}
	args = append(args, encoderArgs(quality, useHW)...)
	args = append(args,
		"-c:a", "copy",
		"-y", outPath,
	)
	return args
}

// reframeFilter centers a crop to 9:16 when the source aspect differs, then
// scales to 1080x1920.
func reframeFilter(width, height int) string {
	scale := fmt.Sprintf("scale=%d:%d", outputWidth, outputHeight)
	if width <= 0 || height <= 0 {
		return scale
	}
	aspect := float64(width) / float64(height)
	if math.Abs(aspect-targetAspect) <= aspectTolerance {
		return scale
	}
	var crop string
	if aspect > targetAspect {
		// Wider than 9:16: crop width, keep height.
		cropWidth := even(int(math.Round(float64(height) * targetAspect)))
		crop = fmt.Sprintf("crop=%d:%d:(iw-%d)/2:0", cropWidth, height, cropWidth)
	} else {
		// Taller than 9:16: crop height, keep width.
		cropHeight := even(int(math.Round(float64(width) / targetAspect)))
		crop = fmt.Sprintf("crop=%d:%d:0:(ih-%d)/2", width, cropHeight, cropHeight)
	}
	return crop + "," + scale
}

// encoderArgs selects the video encoder and quality parameters.
func encoderArgs(quality string, useHW bool) []string {
	params := qualityTable[quality]
	if useHW {
		return []string{
			"-c:v", hardwareEncoder,
			"-preset", params.preset,
			"-cq", params.value,
		}
	}
	return []string{
		"-c:v", "libx264",
		"-preset", params.preset,
		"-crf", params.value,
	}
}

func (r *Renderer) runFFmpeg(ctx context.Context, timeout time.Duration, args []string) error {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.opts.FFmpegBinary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			return err
		}
		return fmt.Errorf("%w: %s", err, tail(detail, 400))
	}
	return nil
}

func (r *Renderer) cleanup(paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("temp cleanup failed",
				logging.String("path", path),
				logging.Error(err))
		}
	}
}

// escapeFilterPath escapes the characters the subtitles filter treats as
// option separators.
func escapeFilterPath(path string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`:`, `\:`,
		`'`, `\'`,
		`[`, `\[`,
		`]`, `\]`,
		`,`, `\,`,
		`;`, `\;`,
	)
	return replacer.Replace(path)
}

func formatSeconds(value float64) string {
	return fmt.Sprintf("%.3f", value)
}

func even(value int) int {
	if value%2 != 0 {
		return value - 1
	}
	return value
}

func tail(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return "..." + value[len(value)-limit:]
}
