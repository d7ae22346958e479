package acquire

import (
	"context"
	"fmt"
	"os"

	"github.com/linkpi14/transcript-v11/internal/job"
)

// Upload uses the already received file as the artifact, untouched.
type Upload struct{}

func (Upload) Acquire(_ context.Context, req *job.Request) (*job.Artifact, error) {
	if req.Upload == nil || req.Upload.Path == "" {
		return nil, &job.NoFileProvidedError{}
	}

	info, err := os.Stat(req.Upload.Path)
	if err != nil {
		return nil, &job.AcquisitionError{Err: fmt.Errorf("stat upload: %w", err)}
	}
	return &job.Artifact{Path: req.Upload.Path, Size: info.Size(), MIME: req.Upload.MIME}, nil
}
