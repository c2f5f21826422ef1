// Package fetch retrieves source videos by URL and extracts the mono
// 16 kHz audio track the transcription back-end consumes.
package fetch
