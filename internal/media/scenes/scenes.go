package scenes

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"clipforge/internal/services"
)

// Cut marks a detected scene change.
type Cut struct {
	Timestamp float64 `json:"timestamp"`
	Score     float64 `json:"score"`
}

// Detector finds visual scene changes with ffmpeg's select filter.
type Detector struct {
	binary string
	// threshold is the content detection threshold on a 0-100 scale.
	threshold float64
}

// NewDetector builds a detector for the given ffmpeg binary and content
// threshold. Threshold values at or below zero fall back to 30.
func NewDetector(binary string, threshold float64) *Detector {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if threshold <= 0 {
		threshold = 30
	}
	return &Detector{binary: binary, threshold: threshold}
}

// Detect runs scene detection over the media at path and returns cut
// timestamps sorted ascending. Failures are wrapped as degradable scene
// detection errors; callers keep an empty cut list and continue.
func (d *Detector) Detect(ctx context.Context, path string) ([]Cut, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrSceneDetection, "scenes", "detect", "empty path", nil)
	}

	// ffmpeg's scene score lives on a 0-1 scale.
	filter := fmt.Sprintf("select='gt(scene,%g)',metadata=print:file=-", d.threshold/100)
	cmd := exec.CommandContext(ctx, d.binary,
		"-hide_banner",
		"-nostats",
		"-i", path,
		"-vf", filter,
		"-an",
		"-f", "null",
		"-",
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, services.Wrap(services.ErrSceneDetection, "scenes", "detect",
			strings.TrimSpace(lastLine(output)), err)
	}

	return parseCuts(string(output)), nil
}

// parseCuts extracts pts_time/score pairs from metadata filter print output.
// Lines look like:
//
//	frame:12  pts:36036 pts_time:1.5015
//	lavfi.scene_score=0.415
//
// but combined single-line forms with pts_time: and score: fields appear too.
func parseCuts(output string) []Cut {
	var cuts []Cut
	pending := -1.0
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if ts, ok := fieldValue(line, "pts_time:"); ok {
			if pending >= 0 {
				cuts = append(cuts, Cut{Timestamp: pending})
			}
			pending = ts
			if score, ok := fieldValue(line, "score:"); ok {
				cuts = append(cuts, Cut{Timestamp: pending, Score: score})
				pending = -1
			}
			continue
		}
		if score, ok := sceneScore(line); ok && pending >= 0 {
			cuts = append(cuts, Cut{Timestamp: pending, Score: score})
			pending = -1
		}
	}
	if pending >= 0 {
		cuts = append(cuts, Cut{Timestamp: pending})
	}

	sort.Slice(cuts, func(i, j int) bool { return cuts[i].Timestamp < cuts[j].Timestamp })
	return dedupe(cuts)
}

// Timestamps projects cuts onto their timestamps.
func Timestamps(cuts []Cut) []float64 {
	out := make([]float64, len(cuts))
	for i, cut := range cuts {
		out[i] = cut.Timestamp
	}
	return out
}

func fieldValue(line, prefix string) (float64, bool) {
	for _, field := range strings.Fields(line) {
		if strings.HasPrefix(field, prefix) {
			value, err := strconv.ParseFloat(strings.TrimPrefix(field, prefix), 64)
			if err != nil {
				return 0, false
			}
			return value, true
		}
	}
	return 0, false
}

func sceneScore(line string) (float64, bool) {
	const key = "lavfi.scene_score="
	idx := strings.Index(line, key)
	if idx < 0 {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(line[idx+len(key):]), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func dedupe(cuts []Cut) []Cut {
	if len(cuts) < 2 {
		return cuts
	}
	out := cuts[:1]
	for _, cut := range cuts[1:] {
		if cut.Timestamp != out[len(out)-1].Timestamp {
			out = append(out, cut)
		}
	}
	return out
}

func lastLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
