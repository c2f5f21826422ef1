package keyphrase

import (
	"sort"
	"strings"

	"clipforge/internal/textproc"
)

const (
	contextRadius  = 5
	vectorTopN     = 15
	statisticalTop = 20
	statEpsilon    = 1e-6
	statOnlyWeight = 0.5
)

// Phrase is a salient phrase with its fused importance score.
type Phrase struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Extract scores salient 1- to 3-gram phrases within text. Two scorers are
// fused: a contextual-vector scorer that compares each candidate's
// co-occurrence vector against the document vector, and a statistical
// scorer driven by position, frequency, and dispersion. Phrases found by
// both keep the average of the two scores; statistical-only phrases are
// weighted down. Pure function; empty text yields an empty list.
func Extract(text string) []Phrase {
	tokens := textproc.Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	candidates := collectCandidates(tokens)
	if len(candidates) == 0 {
		return nil
	}

	vectorScores := topN(scoreByContext(tokens, candidates), vectorTopN)
	statScores := topN(scoreStatistically(tokens, candidates), statisticalTop)

	fused := make(map[string]float64, len(vectorScores)+len(statScores))
	for phrase, score := range vectorScores {
		fused[phrase] = score
	}
	for phrase, score := range statScores {
		if existing, ok := fused[phrase]; ok {
			fused[phrase] = (existing + score) / 2
		} else {
			fused[phrase] = score * statOnlyWeight
		}
	}

	out := make([]Phrase, 0, len(fused))
	for phrase, score := range fused {
		out = append(out, Phrase{Text: phrase, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Text < out[j].Text
	})
	return out
}

// CountOccurrences counts non-overlapping occurrences of phrase in the
// token stream.
func CountOccurrences(tokens []string, phrase string) int {
	parts := strings.Fields(phrase)
	if len(parts) == 0 {
		return 0
	}
	count := 0
	for i := 0; i+len(parts) <= len(tokens); i++ {
		if matchAt(tokens, parts, i) {
			count++
			i += len(parts) - 1
		}
	}
	return count
}

// candidate tracks where a phrase occurs in the token stream.
type candidate struct {
	positions []int
	length    int
}

func collectCandidates(tokens []string) map[string]*candidate {
	candidates := make(map[string]*candidate)
	for n := 1; n <= 3; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			gram := tokens[i : i+n]
			if hasStopWord(gram) {
				continue
			}
			phrase := strings.Join(gram, " ")
			entry, ok := candidates[phrase]
			if !ok {
				entry = &candidate{length: n}
				candidates[phrase] = entry
			}
			entry.positions = append(entry.positions, i)
		}
	}
	return candidates
}

func hasStopWord(gram []string) bool {
	for _, token := range gram {
		if textproc.IsStopWord(token) {
			return true
		}
	}
	return false
}

// scoreByContext scores each candidate by cosine similarity between the
// term-frequency vector of its surrounding context windows and the
// document's term-frequency vector.
func scoreByContext(tokens []string, candidates map[string]*candidate) map[string]float64 {
	docTerms := contentTerms(tokens)
	docVector := textproc.NewFingerprint(docTerms)
	if docVector == nil {
		return nil
	}

	scores := make(map[string]float64, len(candidates))
	for phrase, entry := range candidates {
		var context []string
		for _, pos := range entry.positions {
			lo := pos - contextRadius
			if lo < 0 {
				lo = 0
			}
			hi := pos + entry.length + contextRadius
			if hi > len(tokens) {
				hi = len(tokens)
			}
			context = append(context, contentTerms(tokens[lo:hi])...)
		}
		scores[phrase] = textproc.CosineSimilarity(textproc.NewFingerprint(context), docVector)
	}
	return scores
}

// scoreStatistically implements an unsupervised position/frequency scorer
// where a lower raw score marks a better phrase; scores are inverted to
// descending-is-better and normalized to [0, 1] before fusion so they sit
// on the same scale as the contextual cosine scores.
func scoreStatistically(tokens []string, candidates map[string]*candidate) map[string]float64 {
	total := float64(len(tokens))
	scores := make(map[string]float64, len(candidates))
	var best float64
	for phrase, entry := range candidates {
		freq := float64(len(entry.positions))
		firstPos := float64(entry.positions[0]) / total
		spread := dispersion(entry.positions, total)
		// Early, frequent, well-dispersed phrases earn low raw scores.
		raw := (1 + firstPos) / (freq * (1 + spread))
		inverted := 1 / (raw + statEpsilon)
		scores[phrase] = inverted
		if inverted > best {
			best = inverted
		}
	}
	if best > 0 {
		for phrase := range scores {
			scores[phrase] /= best
		}
	}
	return scores
}

// dispersion measures how widely a phrase's occurrences span the document,
// normalized to [0, 1].
func dispersion(positions []int, total float64) float64 {
	if len(positions) < 2 || total <= 0 {
		return 0
	}
	span := float64(positions[len(positions)-1] - positions[0])
	return span / total
}

func contentTerms(tokens []string) []string {
	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if textproc.IsStopWord(token) {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

func topN(scores map[string]float64, n int) map[string]float64 {
	if len(scores) <= n {
		return scores
	}
	type scored struct {
		phrase string
		score  float64
	}
	ranked := make([]scored, 0, len(scores))
	for phrase, score := range scores {
		ranked = append(ranked, scored{phrase, score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].phrase < ranked[j].phrase
	})
	out := make(map[string]float64, n)
	for _, entry := range ranked[:n] {
		out[entry.phrase] = entry.score
	}
	return out
}

func matchAt(tokens, parts []string, i int) bool {
	for j, part := range parts {
		if tokens[i+j] != part {
			return false
		}
	}
	return true
}
