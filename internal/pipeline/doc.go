// Package pipeline coordinates a full clip run: fetch, probe, scene
// detection and transcription in parallel, window generation, ranking,
// bounded-concurrency rendering, and report plus CSV emission.
//
// Scoring and render failures are per-window and never abort siblings;
// fetch, probe, and transcription failures are fatal for the run. The
// output directory is locked for the duration of a run so no two runs
// share writable paths.
package pipeline
