package grader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clipforge/internal/services"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	completionsPath    = "/v1/chat/completions"
	healthPath         = "/health"

	requestTemperature = 0.1
	requestMaxTokens   = 500

	maxQuotes       = 3
	maxSalientTerms = 8
)

const gradingPrompt = `You grade a 90-second transcript chunk for a short-form clip.
Criteria: a clear claim followed by a brief reason and one concrete example; minimal dangling pronouns; quote-worthiness.
Respond with a JSON object of the shape {"cogency": <integer 1-5>, "quotes": [<up to 3 verbatim quotes>], "salient_terms": [<up to 8 terms>]}.
TEXT:
<<<%s>>>`

// Config captures the runtime settings required to talk to the grader.
type Config struct {
	BaseURL        string
	Model          string
	APIKey         string
	TimeoutSeconds int
}

// Result is the parsed grading verdict for one window. Degraded marks a
// verdict substituted after an unreachable back-end or malformed payload.
type Result struct {
	Cogency      int      `json:"cogency"`
	Quotes       []string `json:"quotes"`
	SalientTerms []string `json:"salient_terms"`
	Degraded     bool     `json:"degraded"`
	Raw          string   `json:"-"`
}

// DefaultResult is the verdict used when grading degrades.
func DefaultResult() Result {
	return Result{Cogency: 1, Quotes: []string{}, SalientTerms: []string{}, Degraded: true}
}

// Client wraps the chat-completions grading back-end.
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

// NewClient constructs a grader client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Grade asks the back-end to grade text and parses the verdict. Any
// transport failure, non-200 status, or unparseable payload degrades to
// DefaultResult alongside a grading-degraded error; the caller logs the
// error and keeps scoring with the substituted verdict. No retries.
func (c *Client) Grade(ctx context.Context, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultResult(), services.Wrap(services.ErrGradingDegraded, "grade", "request", "empty text", nil)
	}

	payload := chatCompletionRequest{
		Model:          c.cfg.Model,
		Messages:       []chatMessage{{Role: "user", Content: fmt.Sprintf(gradingPrompt, text)}},
		Temperature:    requestTemperature,
		MaxTokens:      requestMaxTokens,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	content, err := c.sendChatRequest(ctx, payload)
	if err != nil {
		return DefaultResult(), services.Wrap(services.ErrGradingDegraded, "grade", "request", "", err)
	}

	result, err := parseVerdict(content)
	if err != nil {
		return DefaultResult(), services.Wrap(services.ErrGradingDegraded, "grade", "parse", "", err)
	}
	result.Raw = content
	return result, nil
}

// Health checks the grading back-end's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("grader health: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("grader health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("grader health: http %d", resp.StatusCode)
	}
	return nil
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) sendChatRequest(ctx context.Context, payload chatCompletionRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("grader request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+completionsPath, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("grader request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("grader request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("grader request: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("grader request: http %d: %s", resp.StatusCode, summarizeSnippet(string(body)))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("grader request: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("grader request: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("grader request: empty choices")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("grader request: empty content")
	}
	return content, nil
}

// verdict mirrors the grader's JSON shape with loose field types so that
// integer-shaped strings and stray value kinds still parse.
type verdict struct {
	Cogency      any   `json:"cogency"`
	Quotes       []any `json:"quotes"`
	SalientTerms []any `json:"salient_terms"`
}

func parseVerdict(content string) (Result, error) {
	var parsed verdict
	if err := decodeJSON(content, &parsed); err != nil {
		return Result{}, err
	}
	return Result{
		Cogency:      clampCogency(coerceInt(parsed.Cogency, 1)),
		Quotes:       coerceStrings(parsed.Quotes, maxQuotes),
		SalientTerms: coerceStrings(parsed.SalientTerms, maxSalientTerms),
	}, nil
}

func clampCogency(value int) int {
	if value < 1 {
		return 1
	}
	if value > 5 {
		return 5
	}
	return value
}

func coerceInt(value any, fallback int) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return int(parsed)
		}
	}
	return fallback
}

func coerceStrings(values []any, limit int) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		str, ok := value.(string)
		if !ok {
			continue
		}
		str = strings.TrimSpace(str)
		if str == "" {
			continue
		}
		out = append(out, str)
		if len(out) == limit {
			break
		}
	}
	return out
}

// decodeJSON decodes a model response, tolerating code fences and prose
// around the JSON object.
func decodeJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, summarizeSnippet(trimmed))
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("%w (sanitized payload snippet: %s)", err, summarizeSnippet(sanitized))
	}
	return nil
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFence(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func summarizeSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := strings.Join(strings.Fields(replacer.Replace(trimmed)), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
