package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/linkpi14/transcript-v11/internal/acquire"
	"github.com/linkpi14/transcript-v11/internal/job"
	"github.com/linkpi14/transcript-v11/internal/logging"
	"github.com/linkpi14/transcript-v11/internal/storage"
	"github.com/linkpi14/transcript-v11/internal/transcribe"
)

// UploadField is the multipart field carrying the media file.
const UploadField = "video"

// multipartOverhead is the slack allowed on top of the file ceiling for
// boundaries and part headers.
const multipartOverhead = 1 << 20

const (
	msgNoFile          = "Nenhum arquivo enviado"
	msgDownloadDone    = "Download e conversão concluídos"
	msgDownloadFailed  = "Falha ao processar vídeo do YouTube"
	prefixYouTubeErr   = "Erro ao processar vídeo do YouTube: "
	prefixInstagramErr = "Erro ao processar vídeo do Instagram: "
	prefixFileErr      = "Erro ao processar arquivo: "
)

// Runner executes one transcription request end to end.
type Runner interface {
	Run(ctx context.Context, req *job.Request) (*job.Result, error)
}

// Exporter downloads YouTube audio into a directory where it is kept.
type Exporter interface {
	Export(ctx context.Context, url, destDir string) (string, error)
}

type TranscribeHandler struct {
	runner      Runner
	exporter    Exporter
	ws          *storage.Workspace
	maxUpload   int64
	downloadDir string
	log         *zap.Logger
}

func NewTranscribeHandler(runner Runner, exporter Exporter, ws *storage.Workspace, maxUpload int64, downloadDir string, log *zap.Logger) *TranscribeHandler {
	return &TranscribeHandler{
		runner:      runner,
		exporter:    exporter,
		ws:          ws,
		maxUpload:   maxUpload,
		downloadDir: downloadDir,
		log:         log.Named("transcribe"),
	}
}

type urlRequest struct {
	URL string `json:"url"`
}

// decodeURL returns the trimmed url field; an unreadable body yields "".
func decodeURL(r *http.Request) string {
	var req urlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ""
	}
	return strings.TrimSpace(req.URL)
}

func requestContext(r *http.Request) context.Context {
	return logging.WithFields(r.Context(), zap.String("request_id", chimw.GetReqID(r.Context())))
}

// YouTube transcribes the audio of a YouTube video
func (h *TranscribeHandler) YouTube(w http.ResponseWriter, r *http.Request) {
	url := decodeURL(r)
	if !acquire.IsYouTubeURL(url) {
		jsonError(w, acquire.MsgInvalidYouTubeURL, http.StatusBadRequest)
		return
	}
	h.run(w, r, &job.Request{Kind: job.KindYouTube, URL: url}, prefixYouTubeErr)
}

// Instagram answers with a placeholder transcription; real extraction is
// not implemented.
func (h *TranscribeHandler) Instagram(w http.ResponseWriter, r *http.Request) {
	url := decodeURL(r)
	if !acquire.IsWellFormedURL(url) {
		jsonError(w, acquire.MsgInvalidInstagramURL, http.StatusBadRequest)
		return
	}
	h.run(w, r, &job.Request{Kind: job.KindInstagram, URL: url}, prefixInstagramErr)
}

// File transcribes an uploaded audio or video file
func (h *TranscribeHandler) File(w http.ResponseWriter, r *http.Request) {
	upload, err := h.receiveUpload(w, r)
	if err != nil {
		h.fail(w, r, err, prefixFileErr)
		return
	}
	logging.FromContext(requestContext(r), h.log).Info("file received",
		zap.String("name", upload.Name), zap.Int64("size", upload.Size), zap.String("mime", upload.MIME))

	h.run(w, r, &job.Request{Kind: job.KindUpload, Upload: upload}, prefixFileErr)
}

// YouTubeDownload converts a video's audio to mp3 and keeps it on disk
func (h *TranscribeHandler) YouTubeDownload(w http.ResponseWriter, r *http.Request) {
	url := decodeURL(r)
	if url == "" {
		jsonError(w, acquire.MsgMissingURL, http.StatusBadRequest)
		return
	}
	if !acquire.IsYouTubeURL(url) {
		jsonError(w, acquire.MsgInvalidYouTubeURL, http.StatusBadRequest)
		return
	}

	ctx := requestContext(r)
	path, err := h.exporter.Export(ctx, url, h.downloadDir)
	if err != nil {
		logging.FromContext(ctx, h.log).Error("youtube download failed", zap.String("url", url), zap.Error(err))
		jsonError(w, msgDownloadFailed, http.StatusInternalServerError)
		return
	}

	jsonResponse(w, map[string]string{
		"message": msgDownloadDone,
		"path":    path,
	}, http.StatusOK)
}

func (h *TranscribeHandler) run(w http.ResponseWriter, r *http.Request, req *job.Request, errPrefix string) {
	result, err := h.runner.Run(requestContext(r), req)
	if err != nil {
		h.fail(w, r, err, errPrefix)
		return
	}
	jsonResponse(w, result, http.StatusOK)
}

func (h *TranscribeHandler) fail(w http.ResponseWriter, r *http.Request, err error, errPrefix string) {
	status := job.StatusCode(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(requestContext(r), h.log).Error("transcription failed", zap.Error(err))
	}
	jsonError(w, h.errorMessage(err, errPrefix), status)
}

func (h *TranscribeHandler) errorMessage(err error, errPrefix string) string {
	var (
		invalid  *job.InvalidInputError
		noFile   *job.NoFileProvidedError
		tooLarge *job.PayloadTooLargeError
		provErr  *job.ProviderError
		acqErr   *job.AcquisitionError
	)
	switch {
	case errors.As(err, &invalid):
		return invalid.Msg
	case errors.As(err, &noFile):
		return msgNoFile
	case errors.As(err, &tooLarge):
		return "Arquivo excede o limite de " + limitText(tooLarge.Limit)
	case errors.As(err, &provErr):
		return errPrefix + provErr.Msg
	case errors.As(err, &acqErr):
		return errPrefix + acqErr.Err.Error()
	default:
		return errPrefix + err.Error()
	}
}

// limitText renders an upload ceiling as "100MB", "1.50MB" or, below one
// MiB, "1000 bytes".
func limitText(limit int64) string {
	switch {
	case limit < 1<<20:
		return fmt.Sprintf("%d bytes", limit)
	case limit%(1<<20) == 0:
		return fmt.Sprintf("%dMB", limit>>20)
	default:
		return transcribe.FormatMB(limit) + "MB"
	}
}

// receiveUpload streams the upload field to the workspace without buffering
// it in memory. Anything written is removed again on failure.
func (h *TranscribeHandler) receiveUpload(w http.ResponseWriter, r *http.Request) (*job.Upload, error) {
	if r.ContentLength > h.maxUpload+multipartOverhead {
		return nil, &job.PayloadTooLargeError{Limit: h.maxUpload}
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, &job.NoFileProvidedError{}
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, &job.NoFileProvidedError{}
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, &job.PayloadTooLargeError{Limit: h.maxUpload}
			}
			return nil, &job.InvalidInputError{Msg: "Corpo multipart inválido", Err: err}
		}

		if part.FormName() != UploadField || part.FileName() == "" {
			part.Close()
			continue
		}

		name := part.FileName()
		path := h.ws.UploadPath(name)
		n, err := h.ws.Receive(part, path, h.maxUpload)
		part.Close()
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.Is(err, storage.ErrLimitReached) || errors.As(err, &maxErr) {
				return nil, &job.PayloadTooLargeError{Limit: h.maxUpload}
			}
			return nil, &job.InvalidInputError{Msg: "Falha ao receber arquivo", Err: err}
		}

		mime := part.Header.Get("Content-Type")
		if mime == "" {
			mime = "application/octet-stream"
		}
		return &job.Upload{Path: path, Name: name, Size: n, MIME: mime}, nil
	}
}
