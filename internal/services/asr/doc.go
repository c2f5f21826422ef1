// Package asr uploads extracted audio to the transcription back-end and
// returns word- and segment-level timestamps for sentence alignment.
package asr
