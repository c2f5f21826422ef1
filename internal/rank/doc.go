// Package rank fuses keyphrase coverage, lexical density, graded cogency,
// and visual/linguistic penalties into a single clip-worthiness score and
// selects the top-K candidate windows.
package rank
