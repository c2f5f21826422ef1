package render

import (
	"context"
	"os/exec"
	"strings"
	"sync"
)

const hardwareEncoder = "h264_nvenc"

var (
	hwOnce      sync.Once
	hwAvailable bool
)

// hardwareEncoderAvailable reports whether ffmpeg exposes the NVENC H.264
// encoder. The probe runs once per process and is cached.
func hardwareEncoderAvailable(ctx context.Context, binary string) bool {
	hwOnce.Do(func() {
		cmd := exec.CommandContext(ctx, binary, "-hide_banner", "-encoders")
		output, err := cmd.Output()
		if err != nil {
			return
		}
		hwAvailable = strings.Contains(string(output), hardwareEncoder)
	})
	return hwAvailable
}
