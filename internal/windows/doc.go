// Package windows generates overlapping candidate clip regions over a
// source video, snapping boundaries to nearby scene cuts and attaching
// the transcript sentences each region mostly covers.
package windows
