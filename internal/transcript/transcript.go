package transcript

import (
	"strings"
)

// WordToken is a single recognized word with source-timeline timestamps.
type WordToken struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Sentence is a maximal run of words terminated by sentence-final
// punctuation. Start and End mirror the first and last word timestamps.
type Sentence struct {
	Text  string      `json:"text"`
	Start float64     `json:"start"`
	End   float64     `json:"end"`
	Words []WordToken `json:"words"`
}

// Duration returns the sentence duration in seconds.
func (s Sentence) Duration() float64 {
	return s.End - s.Start
}

// Align groups a word stream into sentences. A sentence ends at any word
// whose text ends with '.', '!', or '?'. Trailing words without terminal
// punctuation form a final sentence. Pure and deterministic.
func Align(words []WordToken) []Sentence {
	var sentences []Sentence
	var buffer []WordToken

	for _, word := range words {
		if strings.TrimSpace(word.Text) == "" {
			continue
		}
		buffer = append(buffer, word)
		if endsSentence(word.Text) {
			sentences = append(sentences, flush(buffer))
			buffer = nil
		}
	}
	if len(buffer) > 0 {
		sentences = append(sentences, flush(buffer))
	}
	return sentences
}

// Text concatenates sentence texts with single spaces.
func Text(sentences []Sentence) string {
	parts := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		if sentence.Text != "" {
			parts = append(parts, sentence.Text)
		}
	}
	return strings.Join(parts, " ")
}

// WordCount returns the total number of words across sentences.
func WordCount(sentences []Sentence) int {
	total := 0
	for _, sentence := range sentences {
		total += len(sentence.Words)
	}
	return total
}

func flush(words []WordToken) Sentence {
	parts := make([]string, len(words))
	for i, word := range words {
		parts[i] = strings.TrimSpace(word.Text)
	}
	return Sentence{
		Text:  strings.Join(parts, " "),
		Start: words[0].Start,
		End:   words[len(words)-1].End,
		Words: append([]WordToken(nil), words...),
	}
}

func endsSentence(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?':
		return true
	default:
		return false
	}
}
