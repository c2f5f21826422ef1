// Package render turns winning windows into vertical 1080x1920 clip files:
// a seek-and-reframe extract pass followed by a subtitle burn-in pass, with
// hardware H.264 encoding when ffmpeg exposes NVENC.
package render
