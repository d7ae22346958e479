package acquire

import (
	"context"

	"github.com/linkpi14/transcript-v11/internal/job"
)

// Instagram does not download anything yet: it returns a placeholder
// artifact, which transcription answers with the simulated Instagram text.
//
// TODO: real extraction of Reels, IGTV and post media.
type Instagram struct{}

func (Instagram) Acquire(_ context.Context, req *job.Request) (*job.Artifact, error) {
	if !IsWellFormedURL(req.URL) {
		return nil, &job.InvalidInputError{Msg: MsgInvalidInstagramURL}
	}
	return &job.Artifact{Placeholder: true}, nil
}

// Skip stands in for a real acquirer when only the simulated engine is
// active and acquisition was disabled for demos.
type Skip struct{}

func (Skip) Acquire(context.Context, *job.Request) (*job.Artifact, error) {
	return &job.Artifact{Placeholder: true}, nil
}
