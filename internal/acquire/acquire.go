package acquire

import (
	"context"
	"fmt"
	"os"

	"github.com/linkpi14/transcript-v11/internal/job"
	"github.com/linkpi14/transcript-v11/internal/media"
)

// Tools is the external tooling the YouTube strategies need. *media.Tools
// implements it; tests substitute a fake.
type Tools interface {
	StreamAudio(ctx context.Context, url, output string) error
	Download(ctx context.Context, url, dir string) (string, error)
	Transcode(ctx context.Context, input, output string) error
	Probe(ctx context.Context, filePath string) (*media.MediaInfo, error)
}

var _ Tools = (*media.Tools)(nil)

var (
	_ job.Acquirer = (*YouTubeStream)(nil)
	_ job.Acquirer = (*YouTubeDownload)(nil)
	_ job.Acquirer = Instagram{}
	_ job.Acquirer = Upload{}
	_ job.Acquirer = Skip{}
)

// artifactAt describes a file written by acquisition.
func artifactAt(path, mime string) (*job.Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return &job.Artifact{Path: path}, &job.AcquisitionError{Err: fmt.Errorf("stat artifact: %w", err)}
	}
	return &job.Artifact{Path: path, Size: info.Size(), MIME: mime}, nil
}
