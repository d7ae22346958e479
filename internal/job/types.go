package job

import (
	"context"
	"time"
)

// SourceKind identifies where the media of a request comes from
type SourceKind string

const (
	KindYouTube   SourceKind = "youtube"
	KindInstagram SourceKind = "instagram"
	KindUpload    SourceKind = "upload"
)

// State is the lifecycle position of a request
type State string

const (
	StateReceived     State = "received"
	StateAcquiring    State = "acquiring"
	StateTranscribing State = "transcribing"
	StateCleaned      State = "cleaned"
	StateResponded    State = "responded"
)

// ResultSource tells whether text came from the provider or the fallback
type ResultSource string

const (
	SourceProvider  ResultSource = "provider"
	SourceSimulated ResultSource = "simulated"
)

// Upload describes a file already received from the client
type Upload struct {
	Path string // location in the working directory
	Name string // original client filename
	Size int64
	MIME string
}

// Request is one inbound conversion call. It is discarded after the response.
type Request struct {
	ID     string
	Kind   SourceKind
	URL    string  // YouTube and Instagram
	Upload *Upload // upload only
}

// Reference returns the URL or original filename used in messages.
func (r *Request) Reference() string {
	if r.Upload != nil {
		return r.Upload.Name
	}
	return r.URL
}

// Artifact is the local audio produced by acquisition. It belongs to exactly
// one request and must be removed before that request's handler returns.
type Artifact struct {
	Path        string
	Size        int64
	MIME        string
	Placeholder bool // no file behind it (Instagram stub)
}

// Result is the outcome of a successful transcription
type Result struct {
	Text   string       `json:"transcription"`
	Source ResultSource `json:"-"`
}

// Job tracks the lifecycle of a single request for logging
type Job struct {
	ID        string
	Kind      SourceKind
	State     State
	CreatedAt time.Time
}

// Acquirer obtains a local audio artifact for a request
type Acquirer interface {
	Acquire(ctx context.Context, req *Request) (*Artifact, error)
}

// Transcriber converts an artifact into text
type Transcriber interface {
	Transcribe(ctx context.Context, req *Request, art *Artifact) (*Result, error)
	// Name returns the engine name
	Name() string
}
