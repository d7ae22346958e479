package media

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

func transcodeArgs(input, output string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-vn", // no video
		"-ar", SampleRate,
		"-ac", Channels,
		"-b:a", AudioBitrate,
		"-y", // overwrite
		output,
	}
}

// Transcode normalizes any audio or video input into the fixed mp3 encoding.
func (t *Tools) Transcode(ctx context.Context, input, output string) error {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.ffmpegBinary, transcodeArgs(input, output)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}
