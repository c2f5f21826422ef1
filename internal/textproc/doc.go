// Package textproc provides the tokenization, stop-word filtering, and
// term-frequency vector primitives shared by the keyphrase extractor and
// the density analyzer.
package textproc
