package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"clipforge/internal/services"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
	raw     []byte
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Duration     string `json:"duration"`
	BitRate      string `json:"bit_rate"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	SampleRate   string `json:"sample_rate"`
	Channels     int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// MediaInfo summarizes the properties downstream stages need.
type MediaInfo struct {
	Path            string  `json:"path"`
	DurationSeconds float64 `json:"duration_seconds"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	FPS             float64 `json:"fps"`
	VideoCodec      string  `json:"video_codec"`
	HasAudio        bool    `json:"has_audio"`
	SizeBytes       int64   `json:"size_bytes"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	result.raw = append([]byte(nil), output...)
	return result, nil
}

// InspectMedia probes path and distills the result into a MediaInfo. A media
// file without a readable video stream or a positive duration is rejected.
func InspectMedia(ctx context.Context, binary string, path string) (MediaInfo, error) {
	result, err := Inspect(ctx, binary, path)
	if err != nil {
		return MediaInfo{}, services.Wrap(services.ErrMediaInvalid, "probe", "inspect", path, err)
	}
	info, err := result.MediaInfo()
	if err != nil {
		return MediaInfo{}, services.Wrap(services.ErrMediaInvalid, "probe", "inspect", path, err)
	}
	info.Path = path
	return info, nil
}

// MediaInfo distills the probe result into the summary downstream stages use.
func (r Result) MediaInfo() (MediaInfo, error) {
	video, ok := r.videoStream()
	if !ok {
		return MediaInfo{}, errors.New("no video stream")
	}
	duration := r.DurationSeconds()
	if math.IsNaN(duration) || duration <= 0 {
		duration = parseFloat(video.Duration)
	}
	if math.IsNaN(duration) || duration <= 0 {
		return MediaInfo{}, errors.New("no usable duration")
	}
	return MediaInfo{
		DurationSeconds: duration,
		Width:           video.Width,
		Height:          video.Height,
		FPS:             video.frameRate(),
		VideoCodec:      video.CodecName,
		HasAudio:        r.AudioStreamCount() > 0,
		SizeBytes:       r.SizeBytes(),
	}, nil
}

// RawJSON returns the raw ffprobe JSON payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

func (r Result) videoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			count++
		}
	}
	return count
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

// frameRate parses the stream frame rate expressed as a rational like "30000/1001".
func (s Stream) frameRate() float64 {
	for _, value := range []string{s.AvgFrameRate, s.RFrameRate} {
		if rate := parseRational(value); rate > 0 {
			return rate
		}
	}
	return 0
}

func parseRational(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" || value == "0/0" {
		return 0
	}
	num, den, ok := strings.Cut(value, "/")
	if !ok {
		parsed := parseFloat(num)
		if math.IsNaN(parsed) {
			return 0
		}
		return parsed
	}
	n := parseFloat(num)
	d := parseFloat(den)
	if math.IsNaN(n) || math.IsNaN(d) || d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
