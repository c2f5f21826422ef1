// Package probe wraps ffprobe invocations used to validate downloaded media
// and extract the duration, dimensions, and stream layout that the window
// generator and renderer depend on.
package probe
