// Package scenes detects visual scene changes with ffmpeg's select filter.
// Cut timestamps feed window boundary snapping; detection failures degrade
// to an empty cut list instead of aborting a run.
package scenes
