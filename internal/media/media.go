package media

import (
	"context"
	"time"
)

const (
	DefaultYTDLPBinary   = "yt-dlp"
	DefaultFFmpegBinary  = "ffmpeg"
	DefaultFFprobeBinary = "ffprobe"
)

// Normalized output of every transcode: 44.1kHz stereo mp3 at 128kbps
const (
	SampleRate   = "44100"
	Channels     = "2"
	AudioBitrate = "128k"
)

type Option func(*Tools)

// Tools runs the external download, transcode and probe utilities.
type Tools struct {
	ytdlpBinary    string
	ffmpegBinary   string
	ffprobeBinary  string
	commandTimeout time.Duration
}

func WithYTDLPBinary(bin string) Option {
	return func(t *Tools) {
		t.ytdlpBinary = bin
	}
}

func WithFFmpegBinary(bin string) Option {
	return func(t *Tools) {
		t.ffmpegBinary = bin
	}
}

func WithFFprobeBinary(bin string) Option {
	return func(t *Tools) {
		t.ffprobeBinary = bin
	}
}

// WithCommandTimeout bounds each external command. Zero means the caller's
// context is the only limit.
func WithCommandTimeout(timeout time.Duration) Option {
	return func(t *Tools) {
		t.commandTimeout = timeout
	}
}

func NewTools(options ...Option) *Tools {
	t := &Tools{
		ytdlpBinary:   DefaultYTDLPBinary,
		ffmpegBinary:  DefaultFFmpegBinary,
		ffprobeBinary: DefaultFFprobeBinary,
	}
	for _, option := range options {
		option(t)
	}
	return t
}

func (t *Tools) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.commandTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, t.commandTimeout)
}
