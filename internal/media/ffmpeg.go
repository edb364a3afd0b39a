package media

import (
	"context"
	"fmt"
	"os/exec"
)

// transcodeToMP3 converts an audio file to mp3 at the given bitrate
// using the local ffmpeg binary.
func transcodeToMP3(ctx context.Context, inputPath, outputPath string, bitrateKbps int) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found: install ffmpeg to enable mp3 conversion")
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputPath,
		"-vn",
		"-codec:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", bitrateKbps),
		"-y",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg conversion failed: %w (output: %s)", err, tail(output, 512))
	}
	return nil
}

func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[len(b)-n:])
}
