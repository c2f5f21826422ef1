// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run, video, stage, and window identifiers
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     as fatal (abort the run) or degradable (log and continue).
//
// Use these helpers when wiring new stage logic so operational behaviour
// stays uniform across the pipeline.
package services
