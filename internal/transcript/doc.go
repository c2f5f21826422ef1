// Package transcript turns word-level recognition output into
// sentence-grouped segments with source-timeline boundary times.
package transcript
