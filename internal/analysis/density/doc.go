// Package density computes per-window lexical statistics: diversity,
// entropy, TF-IDF weight against the run's own window corpus, content-word
// ratio, and average word length.
package density
