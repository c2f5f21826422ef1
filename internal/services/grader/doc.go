// Package grader calls the external chat back-end that assigns each
// candidate window a cogency verdict. Failures never abort a run: the
// client substitutes a default verdict and reports the degradation.
package grader
