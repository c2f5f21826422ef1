package rank

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"clipforge/internal/analysis/density"
	"clipforge/internal/analysis/keyphrase"
	"clipforge/internal/logging"
	"clipforge/internal/services/grader"
	"clipforge/internal/textproc"
	"clipforge/internal/windows"
)

const defaultGraderConcurrency = 4

// Grader grades a window's transcript text.
type Grader interface {
	Grade(ctx context.Context, text string) (grader.Result, error)
}

// Scored pairs a window with its score breakdown.
type Scored struct {
	Window windows.Window `json:"window"`
	Scores ScoreBreakdown `json:"scores"`
}

// RankedClip is a top-K selection with its 1-based rank.
type RankedClip struct {
	Window windows.Window `json:"window"`
	Scores ScoreBreakdown `json:"scores"`
	Rank   int            `json:"rank"`
}

// Ranker scores candidate windows and selects the top K.
type Ranker struct {
	grader         Grader
	model          *density.Model
	logger         *slog.Logger
	graderParallel int64
}

// Option customizes the ranker.
type Option func(*Ranker)

// WithGraderConcurrency caps concurrent grader calls.
func WithGraderConcurrency(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.graderParallel = int64(n)
		}
	}
}

// New builds a ranker around a fitted density model and a grader client.
func New(g Grader, model *density.Model, logger *slog.Logger, opts ...Option) *Ranker {
	ranker := &Ranker{
		grader:         g,
		model:          model,
		logger:         logging.NewComponentLogger(logger, "ranker"),
		graderParallel: defaultGraderConcurrency,
	}
	for _, opt := range opts {
		opt(ranker)
	}
	return ranker
}

// ScoreAll scores every window concurrently. Grader calls are capped by the
// grader concurrency limit; grading failures degrade the affected window
// instead of failing the batch. Results come back in input order.
func (r *Ranker) ScoreAll(ctx context.Context, wins []windows.Window) ([]Scored, error) {
	out := make([]Scored, len(wins))
	sem := semaphore.NewWeighted(r.graderParallel)

	group, groupCtx := errgroup.WithContext(ctx)
	for i, win := range wins {
		i, win := i, win
		group.Go(func() error {
			scored, err := r.scoreOne(groupCtx, win, sem)
			if err != nil {
				return err
			}
			out[i] = scored
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// scoreOne computes one window's breakdown. Only context cancellation is
// returned as an error.
func (r *Ranker) scoreOne(ctx context.Context, win windows.Window, sem *semaphore.Weighted) (Scored, error) {
	text := win.Text()
	breakdown := ScoreBreakdown{}

	if strings.TrimSpace(text) == "" {
		// Nothing to grade or analyze; the window scores zero.
		return Scored{Window: win, Scores: breakdown}, nil
	}

	tokens := textproc.Tokenize(text)
	phrases := keyphrase.Extract(text)
	stats := r.model.Analyze(text)

	breakdown.Components.Keyphrases = phrases
	breakdown.Components.Density = stats
	breakdown.Components.WordCount = len(tokens)

	breakdown.Keyphrase = keyphraseScore(tokens, phrases)
	breakdown.Density = densityScore(stats)

	verdict, err := r.gradeWithCap(ctx, sem, text)
	if err != nil {
		if ctx.Err() != nil {
			return Scored{}, ctx.Err()
		}
		r.logger.Warn("grading degraded",
			logging.String(logging.FieldWindowID, win.ID),
			logging.Error(err))
		breakdown.Components.Errors = append(breakdown.Components.Errors, err.Error())
	}
	breakdown.Components.Grader = verdict
	breakdown.Components.GraderDegraded = verdict.Degraded

	breakdown.Cogency = clamp01(float64(verdict.Cogency) / 5)
	breakdown.QuoteBonus = clamp01(0.1 * float64(len(verdict.Quotes)))
	breakdown.ScenePenalty = clamp01(0.1 * float64(len(win.SceneCutsInside)))

	fillerCount, fillerPenalty := fillerStats(text, len(tokens))
	breakdown.Components.FillerCount = fillerCount
	breakdown.FillerPenalty = fillerPenalty

	fuse(&breakdown)
	return Scored{Window: win, Scores: breakdown}, nil
}

func (r *Ranker) gradeWithCap(ctx context.Context, sem *semaphore.Weighted, text string) (grader.Result, error) {
	if err := sem.Acquire(ctx, 1); err != nil {
		return grader.DefaultResult(), err
	}
	defer sem.Release(1)
	return r.grader.Grade(ctx, text)
}

// TopK sorts scored windows by final score descending, breaking ties by
// start ascending then id ascending, and returns the first k with 1-based
// ranks assigned.
func TopK(scored []Scored, k int) []RankedClip {
	ordered := append([]Scored(nil), scored...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Scores.Final != b.Scores.Final {
			return a.Scores.Final > b.Scores.Final
		}
		if a.Window.Range.Start != b.Window.Range.Start {
			return a.Window.Range.Start < b.Window.Range.Start
		}
		return a.Window.ID < b.Window.ID
	})
	if k > 0 && len(ordered) > k {
		ordered = ordered[:k]
	}
	ranked := make([]RankedClip, len(ordered))
	for i, entry := range ordered {
		ranked[i] = RankedClip{Window: entry.Window, Scores: entry.Scores, Rank: i + 1}
	}
	return ranked
}
