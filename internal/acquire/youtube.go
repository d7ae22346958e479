package acquire

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/linkpi14/transcript-v11/internal/job"
	"github.com/linkpi14/transcript-v11/internal/logging"
	"github.com/linkpi14/transcript-v11/internal/storage"
)

const mimeMP3 = "audio/mpeg"

// YouTubeStream pipes the audio-only stream into the encoder, writing one
// mp3 in the workspace.
type YouTubeStream struct {
	ws    *storage.Workspace
	tools Tools
	log   *zap.Logger
}

func NewYouTubeStream(ws *storage.Workspace, tools Tools, log *zap.Logger) *YouTubeStream {
	return &YouTubeStream{ws: ws, tools: tools, log: log.Named("youtube-stream")}
}

func (a *YouTubeStream) Acquire(ctx context.Context, req *job.Request) (*job.Artifact, error) {
	if !IsYouTubeURL(req.URL) {
		return nil, &job.InvalidInputError{Msg: MsgInvalidYouTubeURL}
	}

	out := a.ws.NewPath("youtube", ".mp3")
	logging.FromContext(ctx, a.log).Info("streaming audio", zap.String("url", req.URL), zap.String("output", out))

	if err := a.tools.StreamAudio(ctx, req.URL, out); err != nil {
		// the runner removes whatever was written
		return &job.Artifact{Path: out}, &job.AcquisitionError{Err: err}
	}
	return artifactAt(out, mimeMP3)
}

// YouTubeDownload downloads into a scoped directory, then transcodes the
// result into the normalized mp3.
type YouTubeDownload struct {
	ws    *storage.Workspace
	tools Tools
	log   *zap.Logger
}

func NewYouTubeDownload(ws *storage.Workspace, tools Tools, log *zap.Logger) *YouTubeDownload {
	return &YouTubeDownload{ws: ws, tools: tools, log: log.Named("youtube-download")}
}

func (a *YouTubeDownload) Acquire(ctx context.Context, req *job.Request) (*job.Artifact, error) {
	if !IsYouTubeURL(req.URL) {
		return nil, &job.InvalidInputError{Msg: MsgInvalidYouTubeURL}
	}
	log := logging.FromContext(ctx, a.log)

	scratch, err := a.ws.ScratchDir("youtube")
	if err != nil {
		return nil, &job.AcquisitionError{Err: fmt.Errorf("create scratch dir: %w", err)}
	}
	defer a.discard(log, scratch)

	log.Info("downloading audio", zap.String("url", req.URL), zap.String("dir", scratch))
	input, err := a.tools.Download(ctx, req.URL, scratch)
	if err != nil {
		return nil, &job.AcquisitionError{Err: err}
	}

	out := a.ws.NewPath("youtube", ".mp3")
	if err := a.tools.Transcode(ctx, input, out); err != nil {
		return &job.Artifact{Path: out}, &job.AcquisitionError{Err: err}
	}

	info, err := a.tools.Probe(ctx, out)
	if err != nil {
		return &job.Artifact{Path: out}, &job.AcquisitionError{Err: err}
	}
	if !info.HasAudio() {
		return &job.Artifact{Path: out}, &job.AcquisitionError{Err: errors.New("converted file has no audio stream")}
	}
	log.Debug("audio ready", zap.Float64("duration", info.Duration), zap.String("codec", info.AudioCodec))

	return artifactAt(out, mimeMP3)
}

// Export runs the download strategy and moves the converted audio into
// destDir, where it outlives the request.
func (a *YouTubeDownload) Export(ctx context.Context, url, destDir string) (string, error) {
	log := logging.FromContext(ctx, a.log)

	art, err := a.Acquire(ctx, &job.Request{Kind: job.KindYouTube, URL: url})
	if err != nil {
		if art != nil {
			a.discard(log, art.Path)
		}
		return "", err
	}

	dest, err := storage.MoveInto(art.Path, destDir, "audio", ".mp3")
	if err != nil {
		a.discard(log, art.Path)
		return "", &job.AcquisitionError{Err: err}
	}
	log.Info("audio exported", zap.String("path", dest))
	return dest, nil
}

func (a *YouTubeDownload) discard(log *zap.Logger, path string) {
	if err := a.ws.Remove(path); err != nil {
		log.Warn("cleanup failed", zap.Error(&job.CleanupError{Path: path, Err: err}))
	}
}
