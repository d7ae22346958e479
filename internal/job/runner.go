package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/linkpi14/transcript-v11/internal/logging"
)

const (
	DefaultAcquireTimeout    = 10 * time.Minute
	DefaultTranscribeTimeout = 10 * time.Minute
)

// Runner drives one request through acquisition, transcription and cleanup.
// It holds no per-request state and is safe for concurrent use.
type Runner struct {
	acquirers         map[SourceKind]Acquirer
	transcriber       Transcriber
	log               *zap.Logger
	acquireTimeout    time.Duration
	transcribeTimeout time.Duration
	remove            func(path string) error
}

type RunnerOption func(*Runner)

func WithLogger(log *zap.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = log.Named("job")
	}
}

func WithTimeouts(acquire, transcribe time.Duration) RunnerOption {
	return func(r *Runner) {
		r.acquireTimeout = acquire
		r.transcribeTimeout = transcribe
	}
}

// WithRemover replaces the function used to delete artifacts.
func WithRemover(remove func(path string) error) RunnerOption {
	return func(r *Runner) {
		r.remove = remove
	}
}

func NewRunner(acquirers map[SourceKind]Acquirer, transcriber Transcriber, options ...RunnerOption) *Runner {
	r := &Runner{
		acquirers:         acquirers,
		transcriber:       transcriber,
		log:               zap.NewNop(),
		acquireTimeout:    DefaultAcquireTimeout,
		transcribeTimeout: DefaultTranscribeTimeout,
		remove:            os.RemoveAll,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Run executes the request. Every file owned by the request, including a
// received upload, is removed before Run returns, whatever the outcome.
func (r *Runner) Run(ctx context.Context, req *Request) (*Result, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	j := &Job{ID: req.ID, Kind: req.Kind, State: StateReceived, CreatedAt: time.Now()}

	ctx = logging.WithFields(ctx, zap.String("job_id", j.ID), zap.String("kind", string(j.Kind)))
	log := logging.FromContext(ctx, r.log)
	log.Debug("request received", zap.String("reference", req.Reference()))

	var owned []string
	if req.Upload != nil && req.Upload.Path != "" {
		owned = append(owned, req.Upload.Path)
	}

	var (
		result *Result
		err    error
	)
	defer func() {
		r.cleanup(log, j, owned)
		r.transition(log, j, StateResponded)
		if err != nil {
			log.Warn("request failed", zap.Duration("elapsed", time.Since(j.CreatedAt)), zap.Error(err))
			return
		}
		log.Info("request completed",
			zap.Duration("elapsed", time.Since(j.CreatedAt)),
			zap.String("source", string(result.Source)),
			zap.Int("chars", len(result.Text)))
	}()

	acquirer, ok := r.acquirers[req.Kind]
	if !ok {
		err = &AcquisitionError{Err: fmt.Errorf("no acquirer for source %q", req.Kind)}
		return nil, err
	}

	r.transition(log, j, StateAcquiring)
	var art *Artifact
	art, err = r.acquire(ctx, acquirer, req)
	if art != nil && art.Path != "" {
		owned = append(owned, art.Path)
	}
	if err != nil {
		return nil, err
	}

	r.transition(log, j, StateTranscribing)
	result, err = r.transcribe(ctx, req, art)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Runner) acquire(ctx context.Context, acquirer Acquirer, req *Request) (*Artifact, error) {
	ctx, cancel := context.WithTimeout(ctx, r.acquireTimeout)
	defer cancel()

	art, err := acquirer.Acquire(ctx, req)
	if err != nil {
		var invalid *InvalidInputError
		var acqErr *AcquisitionError
		if errors.As(err, &invalid) || errors.As(err, &acqErr) {
			return art, err
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", r.acquireTimeout, err)
		}
		return art, &AcquisitionError{Err: err}
	}
	if art == nil {
		return nil, &AcquisitionError{Err: errors.New("no artifact produced")}
	}
	return art, nil
}

func (r *Runner) transcribe(ctx context.Context, req *Request, art *Artifact) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.transcribeTimeout)
	defer cancel()

	result, err := r.transcriber.Transcribe(ctx, req, art)
	if err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			return nil, err
		}
		return nil, &ProviderError{Provider: r.transcriber.Name(), Msg: err.Error(), Err: err}
	}
	if result == nil {
		return nil, &ProviderError{Provider: r.transcriber.Name(), Msg: "no result produced"}
	}
	return result, nil
}

// cleanup removes each owned path once. Failures are logged only.
func (r *Runner) cleanup(log *zap.Logger, j *Job, paths []string) {
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		if err := r.remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("cleanup failed", zap.Error(&CleanupError{Path: p, Err: err}))
		}
	}
	r.transition(log, j, StateCleaned)
}

func (r *Runner) transition(log *zap.Logger, j *Job, to State) {
	log.Debug("state change", zap.String("from", string(j.State)), zap.String("to", string(to)))
	j.State = to
}
