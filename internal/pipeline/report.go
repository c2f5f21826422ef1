package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"clipforge/internal/rank"
)

const previewRunes = 200

// ClipEntry is one top-K candidate in the report: its window, speech
// features, score breakdown, and output path. FilePath is empty when the
// render failed.
type ClipEntry struct {
	Rank           int                 `json:"rank"`
	WindowID       string              `json:"window_id"`
	Start          float64             `json:"start_time"`
	End            float64             `json:"end_time"`
	Duration       float64             `json:"duration"`
	WordCount      int                 `json:"words"`
	SceneCuts      int                 `json:"scene_cuts"`
	SpeechDuration float64             `json:"speech_duration"`
	SpeechRatio    float64             `json:"speech_ratio"`
	WordsPerMinute float64             `json:"words_per_minute"`
	Scores         rank.ScoreBreakdown `json:"scores"`
	FilePath       string              `json:"file_path"`
	TextPreview    string              `json:"text_preview"`
}

// Report is the structured run document written alongside the clips.
type Report struct {
	RunID       string      `json:"run_id"`
	VideoID     string      `json:"video_id"`
	SourceURL   string      `json:"source_url"`
	GeneratedAt time.Time   `json:"generated_at"`
	Duration    float64     `json:"duration"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	SceneCuts   int         `json:"scene_cuts"`
	Sentences   int         `json:"sentences"`
	Windows     int         `json:"windows"`
	Requested   int         `json:"clips_requested"`
	Rendered    int         `json:"clips_rendered"`
	Warnings    []string    `json:"warnings,omitempty"`
	Clips       []ClipEntry `json:"clips"`
}

// newClipEntry derives the per-window speech features the report carries.
func newClipEntry(clip rank.RankedClip, filePath string) ClipEntry {
	duration := clip.Window.Range.Duration()

	var speech float64
	for _, seg := range clip.Window.Segments {
		speech += seg.Duration()
	}

	words := clip.Window.WordCount()
	entry := ClipEntry{
		Rank:           clip.Rank,
		WindowID:       clip.Window.ID,
		Start:          clip.Window.Range.Start,
		End:            clip.Window.Range.End,
		Duration:       duration,
		WordCount:      words,
		SceneCuts:      len(clip.Window.SceneCutsInside),
		SpeechDuration: speech,
		Scores:         clip.Scores,
		FilePath:       filePath,
		TextPreview:    textPreview(clip.Window.Text()),
	}
	if duration > 0 {
		entry.SpeechRatio = speech / duration
		entry.WordsPerMinute = float64(words) / (duration / 60)
	}
	return entry
}

// textPreview truncates text to 200 runes, marking the cut with an ellipsis.
func textPreview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "..."
}

func writeReport(path string, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

var csvHeader = []string{
	"video_id", "rank", "window_id", "start_time", "end_time", "duration",
	"words", "keyphrases", "keyphrase_score", "density_score",
	"cogency_score", "cogency_raw", "quotes", "quote_count",
	"salient_terms", "scene_cuts", "scene_penalty", "filler_penalty",
	"final_score", "file_path", "text_preview",
}

// writeCSV emits one row per top-K candidate, rendered or not.
func writeCSV(path, videoID string, entries []ClipEntry) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, entry := range entries {
		verdict := entry.Scores.Components.Grader
		phrases := make([]string, 0, len(entry.Scores.Components.Keyphrases))
		for _, phrase := range entry.Scores.Components.Keyphrases {
			phrases = append(phrases, phrase.Text)
		}
		row := []string{
			videoID,
			strconv.Itoa(entry.Rank),
			entry.WindowID,
			formatTime(entry.Start),
			formatTime(entry.End),
			formatTime(entry.Duration),
			strconv.Itoa(entry.WordCount),
			strings.Join(phrases, "; "),
			formatScore(entry.Scores.Keyphrase),
			formatScore(entry.Scores.Density),
			formatScore(entry.Scores.Cogency),
			strconv.Itoa(verdict.Cogency),
			strings.Join(verdict.Quotes, "; "),
			strconv.Itoa(len(verdict.Quotes)),
			strings.Join(verdict.SalientTerms, "; "),
			strconv.Itoa(entry.SceneCuts),
			formatScore(entry.Scores.ScenePenalty),
			formatScore(entry.Scores.FillerPenalty),
			formatScore(entry.Scores.Final),
			entry.FilePath,
			entry.TextPreview,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatTime(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}

func formatScore(value float64) string {
	return strconv.FormatFloat(value, 'f', 4, 64)
}
