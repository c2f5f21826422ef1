package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceUnavailable marks fetcher failures. Fatal for the run.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrMediaInvalid marks media the prober could not read. Fatal.
	ErrMediaInvalid = errors.New("media invalid")
	// ErrTranscriptionFailed marks transcription back-end failures after
	// retries are exhausted. Fatal.
	ErrTranscriptionFailed = errors.New("transcription failed")
	// ErrGradingDegraded marks an unreachable or malformed grader response.
	// Non-fatal; the window keeps a default grader result.
	ErrGradingDegraded = errors.New("grading degraded")
	// ErrSceneDetection marks a scene detection failure. Non-fatal; the cut
	// list stays empty and snapping is disabled.
	ErrSceneDetection = errors.New("scene detection failed")
	// ErrConfiguration marks invalid or missing configuration. Fatal.
	ErrConfiguration = errors.New("configuration error")
	// ErrExternalTool marks subprocess failures outside the categories above.
	ErrExternalTool = errors.New("external tool error")
)

// RenderError records a per-window render failure. The affected clip is
// omitted from the report while sibling renders continue.
type RenderError struct {
	WindowID string
	Err      error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render failed for %s: %v", e.WindowID, e.Err)
	}
	return fmt.Sprintf("render failed for %s", e.WindowID)
}

func (e *RenderError) Unwrap() error { return e.Err }

// NewRenderError wraps err with the failing window identifier.
func NewRenderError(windowID string, err error) error {
	return &RenderError{WindowID: windowID, Err: err}
}

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err must abort the run. Grading, scene detection,
// and per-window render failures degrade instead of aborting.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var renderErr *RenderError
	switch {
	case errors.Is(err, ErrGradingDegraded), errors.Is(err, ErrSceneDetection):
		return false
	case errors.As(err, &renderErr):
		return false
	default:
		return true
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
