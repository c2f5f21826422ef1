package rank

import (
	"regexp"

	"clipforge/internal/analysis/density"
	"clipforge/internal/analysis/keyphrase"
	"clipforge/internal/services/grader"
	"clipforge/internal/textproc"
)

// Fusion weights. Fixed by design; penalties subtract.
const (
	weightKeyphrase = 0.35
	weightDensity   = 0.20
	weightCogency   = 0.25
	weightQuotes    = 0.10
	weightScenePen  = 0.05
	weightFillerPen = 0.05
)

// fillerPatterns matches hedges and disfluencies that lower a window's
// score. Multi-word fillers count once per occurrence.
var fillerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bum\b`),
	regexp.MustCompile(`\buh\b`),
	regexp.MustCompile(`\ber\b`),
	regexp.MustCompile(`\bah\b`),
	regexp.MustCompile(`\blike\b`),
	regexp.MustCompile(`\byou know\b`),
	regexp.MustCompile(`\bsort of\b`),
	regexp.MustCompile(`\bkind of\b`),
	regexp.MustCompile(`\bbasically\b`),
	regexp.MustCompile(`\bactually\b`),
	regexp.MustCompile(`\bliterally\b`),
	regexp.MustCompile(`\bobviously\b`),
	regexp.MustCompile(`\bi mean\b`),
	regexp.MustCompile(`\bi think\b`),
	regexp.MustCompile(`\bi guess\b`),
	regexp.MustCompile(`\bi suppose\b`),
}

// Components carries the detailed evidence behind a window's score for the
// report and the per-candidate log.
type Components struct {
	Keyphrases     []keyphrase.Phrase `json:"keyphrases"`
	Density        density.Stats      `json:"density"`
	Grader         grader.Result      `json:"grader"`
	FillerCount    int                `json:"filler_count"`
	WordCount      int                `json:"word_count"`
	GraderDegraded bool               `json:"grader_degraded"`
	Errors         []string           `json:"errors,omitempty"`
}

// ScoreBreakdown is the full scoring record of one window.
type ScoreBreakdown struct {
	Final         float64    `json:"final"`
	Keyphrase     float64    `json:"keyphrase"`
	Density       float64    `json:"density"`
	Cogency       float64    `json:"cogency"`
	QuoteBonus    float64    `json:"quote_bonus"`
	ScenePenalty  float64    `json:"scene_penalty"`
	FillerPenalty float64    `json:"filler_penalty"`
	Components    Components `json:"components"`
}

// keyphraseScore implements the occurrence-weighted coverage score: each
// phrase contributes its importance scaled by min(occurrences/3, 1), and
// the sum is averaged over the phrase count.
func keyphraseScore(tokens []string, phrases []keyphrase.Phrase) float64 {
	if len(phrases) == 0 {
		return 0
	}
	var sum float64
	for _, phrase := range phrases {
		occurrences := float64(keyphrase.CountOccurrences(tokens, phrase.Text))
		sum += phrase.Score * clamp01(occurrences/3)
	}
	return clamp01(sum / float64(len(phrases)))
}

// densityScore blends the lexical statistics into one sub-score.
func densityScore(stats density.Stats) float64 {
	return clamp01(0.30*clamp01(stats.Diversity) +
		0.20*clamp01(stats.Entropy/5) +
		0.20*clamp01(stats.TFIDFMean) +
		0.15*clamp01(stats.ContentRatio) +
		0.15*clamp01(stats.AvgWordLength/6))
}

// fillerStats counts filler matches in the folded text and derives the
// penalty min(2 * fillers / words, 1).
func fillerStats(text string, wordCount int) (count int, penalty float64) {
	folded := foldForMatch(text)
	for _, pattern := range fillerPatterns {
		count += len(pattern.FindAllStringIndex(folded, -1))
	}
	if wordCount <= 0 || count == 0 {
		return count, 0
	}
	return count, clamp01(2 * float64(count) / float64(wordCount))
}

func foldForMatch(text string) string {
	tokens := textproc.Tokenize(text)
	folded := ""
	for i, token := range tokens {
		if i > 0 {
			folded += " "
		}
		folded += token
	}
	return folded
}

// fuse combines the clamped sub-scores into the final scalar.
func fuse(breakdown *ScoreBreakdown) {
	final := weightKeyphrase*breakdown.Keyphrase +
		weightDensity*breakdown.Density +
		weightCogency*breakdown.Cogency +
		weightQuotes*breakdown.QuoteBonus -
		weightScenePen*breakdown.ScenePenalty -
		weightFillerPen*breakdown.FillerPenalty
	if final < 0 {
		final = 0
	}
	breakdown.Final = clamp01(final)
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
