package density

import (
	"math"
	"sort"

	"clipforge/internal/textproc"
)

const maxFeatures = 1000

// Stats holds the lexical statistics computed for one window.
type Stats struct {
	Diversity     float64 `json:"lexical_diversity"`
	Entropy       float64 `json:"entropy"`
	TFIDFMean     float64 `json:"tfidf_mean"`
	TFIDFMax      float64 `json:"tfidf_max"`
	ContentRatio  float64 `json:"content_word_ratio"`
	AvgWordLength float64 `json:"avg_word_length"`
	WordCount     int     `json:"word_count"`
}

// Model is a TF-IDF model fitted once over all windows of a run and then
// read-only across concurrent scorers.
type Model struct {
	features map[string]float64
}

// Fit builds the TF-IDF vocabulary from every window text of the current
// run: 1-2 grams with stop words removed, capped at the most frequent 1000
// features. Call exactly once per run, before any Analyze call.
func Fit(docs []string) *Model {
	corpus := textproc.NewCorpus()
	totalFreq := make(map[string]int)
	for _, doc := range docs {
		grams := documentGrams(doc)
		if len(grams) == 0 {
			continue
		}
		corpus.Add(grams)
		for _, gram := range grams {
			totalFreq[gram]++
		}
	}

	idf := corpus.IDF()
	selected := selectFeatures(totalFreq, maxFeatures)

	features := make(map[string]float64, len(selected))
	for _, gram := range selected {
		features[gram] = idf[gram]
	}
	return &Model{features: features}
}

// Analyze computes the lexical statistics of text. TF-IDF statistics come
// from the fitted vocabulary; the remaining statistics depend only on the
// text itself. Empty text yields zeroed stats.
func (m *Model) Analyze(text string) Stats {
	tokens := textproc.Tokenize(text)
	if len(tokens) == 0 {
		return Stats{}
	}

	stats := Stats{WordCount: len(tokens)}
	total := float64(len(tokens))

	counts := make(map[string]int, len(tokens))
	var lengthSum int
	var contentCount int
	for _, token := range tokens {
		counts[token]++
		lengthSum += len([]rune(token))
		if !textproc.IsContentStopWord(token) {
			contentCount++
		}
	}

	stats.Diversity = float64(len(counts)) / total
	stats.ContentRatio = float64(contentCount) / total
	stats.AvgWordLength = float64(lengthSum) / total

	for _, count := range counts {
		p := float64(count) / total
		stats.Entropy -= p * math.Log2(p)
	}

	if m != nil {
		stats.TFIDFMean, stats.TFIDFMax = m.tfidf(text)
	}
	return stats
}

// FeatureCount returns the size of the fitted vocabulary.
func (m *Model) FeatureCount() int {
	if m == nil {
		return 0
	}
	return len(m.features)
}

// tfidf computes the l2-normalized TF-IDF vector of text over the fitted
// vocabulary and reports the mean and max of its non-zero entries.
func (m *Model) tfidf(text string) (mean, max float64) {
	grams := documentGrams(text)
	if len(grams) == 0 || len(m.features) == 0 {
		return 0, 0
	}

	tf := make(map[string]float64)
	for _, gram := range grams {
		if _, ok := m.features[gram]; ok {
			tf[gram]++
		}
	}
	if len(tf) == 0 {
		return 0, 0
	}

	var norm float64
	for gram, count := range tf {
		weighted := count * m.features[gram]
		tf[gram] = weighted
		norm += weighted * weighted
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return 0, 0
	}

	var sum float64
	for _, weighted := range tf {
		value := weighted / norm
		sum += value
		if value > max {
			max = value
		}
	}
	return sum / float64(len(tf)), max
}

func documentGrams(text string) []string {
	tokens := textproc.Tokenize(text)
	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if textproc.IsStopWord(token) {
			continue
		}
		filtered = append(filtered, token)
	}
	return textproc.NGrams(filtered, 1, 2)
}

// selectFeatures keeps the n most frequent grams, ties broken
// alphabetically for determinism.
func selectFeatures(totalFreq map[string]int, n int) []string {
	grams := make([]string, 0, len(totalFreq))
	for gram := range totalFreq {
		grams = append(grams, gram)
	}
	sort.Slice(grams, func(i, j int) bool {
		if totalFreq[grams[i]] != totalFreq[grams[j]] {
			return totalFreq[grams[i]] > totalFreq[grams[j]]
		}
		return grams[i] < grams[j]
	})
	if len(grams) > n {
		grams = grams[:n]
	}
	return grams
}
