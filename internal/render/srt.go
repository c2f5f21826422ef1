package render

import (
	"fmt"
	"strings"

	"clipforge/internal/transcript"
)

// caption is one subtitle entry with window-local times.
type caption struct {
	start float64
	end   float64
	text  string
}

// rebaseCaptions converts sentence times from the source timeline to
// window-local times, clamping into [0, duration] and dropping entries
// whose clamped duration is not positive.
func rebaseCaptions(segments []transcript.Sentence, windowStart, duration float64) []caption {
	var captions []caption
	for _, segment := range segments {
		start := clampTime(segment.Start-windowStart, duration)
		end := clampTime(segment.End-windowStart, duration)
		if end-start <= 0 {
			continue
		}
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		captions = append(captions, caption{start: start, end: end, text: text})
	}
	return captions
}

// formatSRT renders captions in the classic timed-text format.
func formatSRT(captions []caption) string {
	var b strings.Builder
	for i, c := range captions {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, srtTime(c.start), srtTime(c.end), c.text)
	}
	return b.String()
}

// srtTime formats seconds as HH:MM:SS,mmm.
func srtTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int(seconds*1000 + 0.5)
	h := millis / 3600000
	millis -= h * 3600000
	m := millis / 60000
	millis -= m * 60000
	s := millis / 1000
	millis -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, millis)
}

func clampTime(value, limit float64) float64 {
	if value < 0 {
		return 0
	}
	if value > limit {
		return limit
	}
	return value
}
