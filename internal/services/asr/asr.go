package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipforge/internal/services"
	"clipforge/internal/transcript"
)

const (
	defaultHTTPTimeout = 10 * time.Minute
	transcriptionsPath = "/v1/audio/transcriptions"
	healthPath         = "/health"
)

// Config captures the runtime settings required to talk to the
// transcription back-end.
type Config struct {
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Transcription is the verbose response of the transcription back-end.
type Transcription struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
}

// Segment is one recognized span with word-level timestamps.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words"`
}

// Word is a single recognized word.
type Word struct {
	Word        string  `json:"word"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Probability float64 `json:"probability"`
}

// Words flattens all segments into the word-token stream the sentence
// aligner consumes.
func (t Transcription) Words() []transcript.WordToken {
	var tokens []transcript.WordToken
	for _, segment := range t.Segments {
		for _, word := range segment.Words {
			tokens = append(tokens, transcript.WordToken{
				Text:       strings.TrimSpace(word.Word),
				Start:      word.Start,
				End:        word.End,
				Confidence: word.Probability,
			})
		}
	}
	return tokens
}

// Client wraps the transcription back-end.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a transcription client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Transcribe uploads the audio file and returns the parsed verbose
// transcription. Failures are fatal for the run.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (Transcription, error) {
	transcription, err := c.transcribe(ctx, audioPath)
	if err != nil {
		return Transcription{}, services.Wrap(services.ErrTranscriptionFailed, "transcribe", "request", audioPath, err)
	}
	return transcription, nil
}

func (c *Client) transcribe(ctx context.Context, audioPath string) (Transcription, error) {
	var transcription Transcription

	file, err := os.Open(audioPath)
	if err != nil {
		return transcription, fmt.Errorf("open audio: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("model", c.cfg.Model); err != nil {
		return transcription, fmt.Errorf("write model field: %w", err)
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return transcription, fmt.Errorf("write response_format field: %w", err)
	}
	for _, granularity := range []string{"word", "segment"} {
		if err := writer.WriteField("timestamp_granularities[]", granularity); err != nil {
			return transcription, fmt.Errorf("write granularity field: %w", err)
		}
	}
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return transcription, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return transcription, fmt.Errorf("copy audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return transcription, fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+transcriptionsPath, &buf)
	if err != nil {
		return transcription, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transcription, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transcription, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return transcription, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, &transcription); err != nil {
		return transcription, fmt.Errorf("decode response: %w", err)
	}
	return transcription, nil
}

// Health checks the transcription back-end's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("asr health: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("asr health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("asr health: http %d", resp.StatusCode)
	}
	return nil
}
