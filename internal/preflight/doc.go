// Package preflight provides readiness checks for the external services,
// binaries, and directories a clip run depends on.
//
// The pipeline calls RunAll before any stage starts; a failed check stops
// the run before hours of download and transcription work are wasted. The
// CLI health-check command uses the same functions to display readiness.
package preflight
