package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// probeOutput is the part of ffprobe's -print_format json output that is read.
type probeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecName  string `json:"codec_name"`
		CodecType  string `json:"codec_type"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

// MediaInfo summarizes a file's container and first audio stream.
type MediaInfo struct {
	Format     string
	Duration   float64
	AudioCodec string
	SampleRate int
	Channels   int
}

// HasAudio reports whether an audio stream was found.
func (m *MediaInfo) HasAudio() bool {
	return m.AudioCodec != ""
}

func (t *Tools) Probe(ctx context.Context, filePath string) (*MediaInfo, error) {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.ffprobeBinary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbe(output)
}

func parseProbe(output []byte) (*MediaInfo, error) {
	var result probeOutput
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("parsing ffprobe json response: %w", err)
	}

	info := &MediaInfo{Format: result.Format.FormatName}
	if result.Format.Duration != "" {
		if d, err := strconv.ParseFloat(result.Format.Duration, 64); err == nil {
			info.Duration = d
		}
	}

	for _, s := range result.Streams {
		if s.CodecType != "audio" || info.AudioCodec != "" {
			continue
		}
		info.AudioCodec = s.CodecName
		info.Channels = s.Channels
		info.SampleRate, _ = strconv.Atoi(s.SampleRate)
	}

	return info, nil
}
