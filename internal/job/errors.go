package job

import (
	"errors"
	"fmt"
	"net/http"
)

// InvalidInputError is a malformed or missing URL, file or body.
type InvalidInputError struct {
	Msg string
	Err error
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

// NoFileProvidedError is an upload request without the file field.
type NoFileProvidedError struct{}

func (e *NoFileProvidedError) Error() string { return "no file provided" }

// PayloadTooLargeError is an upload beyond the configured ceiling.
type PayloadTooLargeError struct {
	Limit int64
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload exceeds %d bytes", e.Limit)
}

// AcquisitionError is a download, transcode or external tool failure.
type AcquisitionError struct {
	Err error
}

func (e *AcquisitionError) Error() string { return "acquire audio: " + e.Err.Error() }
func (e *AcquisitionError) Unwrap() error { return e.Err }

// ProviderError is a speech-to-text call failure. Msg carries the
// provider's own message.
type ProviderError struct {
	Provider string
	Msg      string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Msg)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// CleanupError is a failed artifact removal. It is logged, never returned to
// the caller.
type CleanupError struct {
	Path string
	Err  error
}

func (e *CleanupError) Error() string { return fmt.Sprintf("remove %s: %v", e.Path, e.Err) }
func (e *CleanupError) Unwrap() error { return e.Err }

// StatusCode maps an error of the taxonomy to an HTTP status.
func StatusCode(err error) int {
	var (
		invalid  *InvalidInputError
		noFile   *NoFileProvidedError
		tooLarge *PayloadTooLargeError
	)
	switch {
	case errors.As(err, &invalid), errors.As(err, &noFile):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
