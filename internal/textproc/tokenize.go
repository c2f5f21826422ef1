package textproc

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// tokenSplitPattern matches non-word character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^\p{L}\p{N}']+`)

var folder = cases.Fold()

// Tokenize splits text into case-folded word tokens. Apostrophes inside
// words survive so contractions stay intact.
func Tokenize(text string) []string {
	folded := folder.String(text)
	raw := tokenSplitPattern.Split(folded, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.Trim(token, "'")
		if token == "" {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// NGrams returns all contiguous n-grams of the token stream joined by a
// single space, for n in [minN, maxN].
func NGrams(tokens []string, minN, maxN int) []string {
	if minN < 1 {
		minN = 1
	}
	if maxN < minN {
		maxN = minN
	}
	var grams []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return grams
}
