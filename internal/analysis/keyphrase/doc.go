// Package keyphrase scores salient phrases within a candidate window's
// transcript text by fusing a contextual-vector scorer with an
// unsupervised statistical scorer.
package keyphrase
