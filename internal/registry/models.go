package registry

import "time"

// RunStatus tracks a run through its stages to a terminal state.
type RunStatus string

const (
	StatusFetching     RunStatus = "fetching"
	StatusProbing      RunStatus = "probing"
	StatusTranscribing RunStatus = "transcribing"
	StatusRanking      RunStatus = "ranking"
	StatusRendering    RunStatus = "rendering"
	StatusCompleted    RunStatus = "completed"
	StatusPartial      RunStatus = "partial"
	StatusFailed       RunStatus = "failed"
)

// Terminal reports whether the status ends a run.
func (s RunStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusPartial, StatusFailed:
		return true
	}
	return false
}

// Run records one pipeline invocation.
type Run struct {
	ID             string
	VideoID        string
	SourceURL      string
	Status         RunStatus
	ClipsRequested int
	ClipsRendered  int
	ErrorMessage   string
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// Clip records one rendered clip belonging to a run.
type Clip struct {
	ID         int64
	RunID      string
	VideoID    string
	Rank       int
	WindowID   string
	StartTime  float64
	EndTime    float64
	FinalScore float64
	FilePath   string
	CreatedAt  time.Time
}
