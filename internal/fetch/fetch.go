package fetch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"clipforge/internal/logging"
	"clipforge/internal/services"
)

// Metadata describes a fetched source video.
type Metadata struct {
	VideoID   string `json:"video_id"`
	SourceURL string `json:"source_url"`
}

// Result holds the local artifacts produced for one source URL.
type Result struct {
	VideoPath string   `json:"video_path"`
	AudioPath string   `json:"audio_path"`
	Meta      Metadata `json:"meta"`
}

// Fetcher retrieves a source video and its mono 16 kHz audio track.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL, destDir string) (Result, error)
}

// CommandFetcher shells out to a downloader binary and ffmpeg.
type CommandFetcher struct {
	downloader string
	ffmpeg     string
	logger     *slog.Logger
}

// NewCommandFetcher builds a fetcher around the given downloader and ffmpeg
// binaries.
func NewCommandFetcher(downloader, ffmpeg string, logger *slog.Logger) *CommandFetcher {
	if strings.TrimSpace(downloader) == "" {
		downloader = "yt-dlp"
	}
	if strings.TrimSpace(ffmpeg) == "" {
		ffmpeg = "ffmpeg"
	}
	return &CommandFetcher{
		downloader: downloader,
		ffmpeg:     ffmpeg,
		logger:     logging.NewComponentLogger(logger, "fetch"),
	}
}

// Fetch downloads the source video into destDir and extracts its audio as
// 16 kHz mono PCM WAV. Failures are fatal for the run.
func (f *CommandFetcher) Fetch(ctx context.Context, sourceURL, destDir string) (Result, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return Result{}, services.Wrap(services.ErrSourceUnavailable, "fetch", "download", "empty url", nil)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrSourceUnavailable, "fetch", "download", destDir, err)
	}

	videoID := ExtractVideoID(sourceURL)
	videoPath := filepath.Join(destDir, videoID+".mp4")
	audioPath := filepath.Join(destDir, videoID+".wav")

	f.logger.Info("downloading source",
		logging.String(logging.FieldVideoID, videoID),
		logging.String("url", sourceURL))

	if err := f.run(ctx, f.downloader, downloadArgs(sourceURL, videoPath)); err != nil {
		return Result{}, services.Wrap(services.ErrSourceUnavailable, "fetch", "download", sourceURL, err)
	}
	if err := f.run(ctx, f.ffmpeg, audioExtractArgs(videoPath, audioPath)); err != nil {
		return Result{}, services.Wrap(services.ErrSourceUnavailable, "fetch", "extract audio", videoPath, err)
	}

	return Result{
		VideoPath: videoPath,
		AudioPath: audioPath,
		Meta:      Metadata{VideoID: videoID, SourceURL: sourceURL},
	}, nil
}

func (f *CommandFetcher) run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if detail != "" {
			return fmt.Errorf("%w: %s", err, lastLines(detail, 3))
		}
		return err
	}
	return nil
}

func downloadArgs(sourceURL, videoPath string) []string {
	return []string{
		"--no-playlist",
		"--no-progress",
		"-f", "bv*[height<=1080]+ba/b[height<=1080]/b",
		"--merge-output-format", "mp4",
		"-o", videoPath,
		sourceURL,
	}
}

// audioExtractArgs produces the 16 kHz mono PCM track the transcription
// back-end expects.
func audioExtractArgs(videoPath, audioPath string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		"-y", audioPath,
	}
}

var (
	watchPattern  = regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`)
	shortPatterns = regexp.MustCompile(`(?:youtu\.be/|/shorts/|/embed/|/live/)([A-Za-z0-9_-]{11})`)
	tokenPattern  = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
)

// ExtractVideoID derives a stable identifier from a source URL. YouTube
// URLs yield the 11-character video id; other URLs fall back to a
// sanitized final path segment, then to a URL digest.
func ExtractVideoID(sourceURL string) string {
	if m := watchPattern.FindStringSubmatch(sourceURL); m != nil {
		return m[1]
	}
	if m := shortPatterns.FindStringSubmatch(sourceURL); m != nil {
		return m[1]
	}
	if parsed, err := url.Parse(sourceURL); err == nil {
		segment := strings.Trim(path.Base(parsed.Path), "/")
		segment = strings.TrimSuffix(segment, filepath.Ext(segment))
		segment = tokenPattern.ReplaceAllString(segment, "_")
		segment = strings.Trim(segment, "_-")
		if segment != "" && segment != "." {
			return segment
		}
	}
	digest := sha1.Sum([]byte(sourceURL))
	return "video_" + hex.EncodeToString(digest[:4])
}

func lastLines(value string, n int) string {
	lines := strings.Split(value, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
