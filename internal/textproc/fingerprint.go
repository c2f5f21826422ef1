package textproc

import "math"

// Fingerprint represents a term-frequency vector for text similarity
// comparison.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint creates a fingerprint from the provided tokens.
// Returns nil for an empty token stream.
func NewFingerprint(tokens []string) *Fingerprint {
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	return fromCounts(counts)
}

func fromCounts(counts map[string]float64) *Fingerprint {
	if len(counts) == 0 {
		return nil
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{tokens: counts, norm: math.Sqrt(norm)}
}

// TokenCount returns the number of unique tokens in the fingerprint.
func (f *Fingerprint) TokenCount() int {
	if f == nil {
		return 0
	}
	return len(f.tokens)
}

// Weight returns the stored weight for a token, zero when absent.
func (f *Fingerprint) Weight(token string) float64 {
	if f == nil {
		return 0
	}
	return f.tokens[token]
}

// CosineSimilarity computes the cosine similarity between two fingerprints.
// Returns 0 if either fingerprint is nil or has zero norm.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for token, count := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// Corpus collects document frequency statistics for IDF computation.
type Corpus struct {
	docCount int
	docFreq  map[string]int
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{docFreq: make(map[string]int)}
}

// Add registers a document's unique terms in the corpus.
func (c *Corpus) Add(terms []string) {
	if c == nil || len(terms) == 0 {
		return
	}
	c.docCount++
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		c.docFreq[term]++
	}
}

// DocCount returns the number of documents registered.
func (c *Corpus) DocCount() int {
	if c == nil {
		return 0
	}
	return c.docCount
}

// DocFreq returns the number of documents containing term.
func (c *Corpus) DocFreq(term string) int {
	if c == nil {
		return 0
	}
	return c.docFreq[term]
}

// IDF computes inverse document frequency weights: log((N+1)/(1+df)) + 1
// for each term, the smoothed form that keeps ubiquitous terms positive.
func (c *Corpus) IDF() map[string]float64 {
	if c == nil || c.docCount == 0 {
		return nil
	}
	idf := make(map[string]float64, len(c.docFreq))
	n := float64(c.docCount)
	for term, df := range c.docFreq {
		idf[term] = math.Log((n+1)/(1+float64(df))) + 1
	}
	return idf
}
