package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/linkpi14/transcript-v11/internal/acquire"
	"github.com/linkpi14/transcript-v11/internal/job"
	"github.com/linkpi14/transcript-v11/internal/storage"
	"github.com/linkpi14/transcript-v11/internal/transcribe"
)

const youtubeURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

// fakeYouTube writes a small artifact into the workspace, like the real
// acquirers do.
type fakeYouTube struct {
	ws    *storage.Workspace
	calls atomic.Int32
}

func (f *fakeYouTube) Acquire(_ context.Context, _ *job.Request) (*job.Artifact, error) {
	f.calls.Add(1)
	p := f.ws.NewPath("youtube", ".mp3")
	if err := os.WriteFile(p, []byte("mp3"), 0644); err != nil {
		return nil, err
	}
	return &job.Artifact{Path: p, Size: 3, MIME: "audio/mpeg"}, nil
}

type countingTranscriber struct {
	inner job.Transcriber
	err   error
	calls atomic.Int32
}

func (c *countingTranscriber) Name() string { return "counting" }

func (c *countingTranscriber) Transcribe(ctx context.Context, req *job.Request, art *job.Artifact) (*job.Result, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.Transcribe(ctx, req, art)
}

type fakeExporter struct {
	path string
	err  error
}

func (f *fakeExporter) Export(context.Context, string, string) (string, error) {
	return f.path, f.err
}

type fixture struct {
	ws          *storage.Workspace
	youtube     *fakeYouTube
	transcriber *countingTranscriber
	handler     *TranscribeHandler
}

func newFixture(t *testing.T, maxUpload int64, providerErr error) *fixture {
	t.Helper()
	ws, err := storage.NewWorkspace(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatal(err)
	}
	yt := &fakeYouTube{ws: ws}
	tr := &countingTranscriber{inner: transcribe.NewSimulated(), err: providerErr}
	runner := job.NewRunner(map[job.SourceKind]job.Acquirer{
		job.KindYouTube:   yt,
		job.KindInstagram: acquire.Instagram{},
		job.KindUpload:    acquire.Upload{},
	}, tr, job.WithRemover(ws.Remove))

	return &fixture{
		ws:          ws,
		youtube:     yt,
		transcriber: tr,
		handler:     NewTranscribeHandler(runner, &fakeExporter{path: "/data/downloads/audio_1.mp3"}, ws, maxUpload, "downloads", zap.NewNop()),
	}
}

func (f *fixture) residual(t *testing.T) int {
	t.Helper()
	entries, err := f.ws.List()
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(b)
}

func uploadRequest(t *testing.T, field, name, mime string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name)}
		h["Content-Type"] = []string{mime}
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(data)
	} else {
		mw.WriteField("note", "sem arquivo")
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/transcribe/file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestYouTubeInvalidURL(t *testing.T) {
	f := newFixture(t, 100<<20, nil)

	for _, body := range []string{`{"url":"not-a-url"}`, `{}`, `garbage`} {
		rec := httptest.NewRecorder()
		f.handler.YouTube(rec, httptest.NewRequest(http.MethodPost, "/transcribe/youtube", strings.NewReader(body)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", body, rec.Code)
		}
		if got := decode(t, rec)["error"]; got != acquire.MsgInvalidYouTubeURL {
			t.Errorf("%s: error %q", body, got)
		}
	}
	if f.youtube.calls.Load() != 0 {
		t.Error("acquirer must not run for invalid URLs")
	}
	if n := f.residual(t); n != 0 {
		t.Errorf("%d files written", n)
	}
}

func TestYouTubeSuccessCleansArtifact(t *testing.T) {
	f := newFixture(t, 100<<20, nil)

	rec := httptest.NewRecorder()
	f.handler.YouTube(rec, httptest.NewRequest(http.MethodPost, "/transcribe/youtube", jsonBody(t, map[string]string{"url": youtubeURL})))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(decode(t, rec)["transcription"], youtubeURL) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
	if n := f.residual(t); n != 0 {
		t.Errorf("%d files left behind", n)
	}
}

func TestYouTubeProviderFailure(t *testing.T) {
	f := newFixture(t, 100<<20, errors.New("Incorrect API key provided"))

	rec := httptest.NewRecorder()
	f.handler.YouTube(rec, httptest.NewRequest(http.MethodPost, "/transcribe/youtube", jsonBody(t, map[string]string{"url": youtubeURL})))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", rec.Code)
	}
	want := "Erro ao processar vídeo do YouTube: Incorrect API key provided"
	if got := decode(t, rec)["error"]; got != want {
		t.Errorf("error: got %q, want %q", got, want)
	}
	if n := f.residual(t); n != 0 {
		t.Errorf("%d files left behind", n)
	}
}

func TestInstagram(t *testing.T) {
	f := newFixture(t, 100<<20, nil)

	rec := httptest.NewRecorder()
	url := "https://www.instagram.com/reel/Cxyz123/"
	f.handler.Instagram(rec, httptest.NewRequest(http.MethodPost, "/transcribe/instagram", jsonBody(t, map[string]string{"url": url})))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(decode(t, rec)["transcription"], "Transcrição simulada do Instagram: "+url) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	f.handler.Instagram(rec, httptest.NewRequest(http.MethodPost, "/transcribe/instagram", jsonBody(t, map[string]string{"url": "nope"})))
	if rec.Code != http.StatusBadRequest || decode(t, rec)["error"] != acquire.MsgInvalidInstagramURL {
		t.Errorf("invalid url: %d %s", rec.Code, rec.Body.String())
	}
}

func TestFileSimulated(t *testing.T) {
	f := newFixture(t, 100<<20, nil)

	rec := httptest.NewRecorder()
	f.handler.File(rec, uploadRequest(t, UploadField, "aula.wav", "audio/wav", make([]byte, 2*1024*1024)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	text := decode(t, rec)["transcription"]
	for _, want := range []string{"- Nome: aula.wav", "- Tamanho: 2.00MB", "- Tipo: audio/wav"} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q:\n%s", want, text)
		}
	}
	if n := f.residual(t); n != 0 {
		t.Errorf("%d files left behind", n)
	}
}

func TestFileMissing(t *testing.T) {
	f := newFixture(t, 100<<20, nil)

	tests := map[string]*http.Request{
		"no file part":  uploadRequest(t, "", "", "", nil),
		"wrong field":   uploadRequest(t, "audio", "a.wav", "audio/wav", []byte("x")),
		"not multipart": httptest.NewRequest(http.MethodPost, "/transcribe/file", strings.NewReader(`{}`)),
	}
	for name, req := range tests {
		rec := httptest.NewRecorder()
		f.handler.File(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", name, rec.Code)
		}
		if got := decode(t, rec)["error"]; got != "Nenhum arquivo enviado" {
			t.Errorf("%s: error %q", name, got)
		}
	}
	if f.transcriber.calls.Load() != 0 {
		t.Error("engine must not be called without a file")
	}
}

func TestFileTooLarge(t *testing.T) {
	f := newFixture(t, 1<<20, nil)

	rec := httptest.NewRecorder()
	f.handler.File(rec, uploadRequest(t, UploadField, "big.mp4", "video/mp4", make([]byte, 1<<20+1)))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status %d, want 413", rec.Code)
	}
	if got := decode(t, rec)["error"]; got != "Arquivo excede o limite de 1MB" {
		t.Errorf("error %q", got)
	}
	if f.transcriber.calls.Load() != 0 {
		t.Error("engine must not be called for oversize uploads")
	}
	if n := f.residual(t); n != 0 {
		t.Errorf("%d files left behind", n)
	}
}

func TestFileTooLargeSubMiBLimit(t *testing.T) {
	f := newFixture(t, 1000, nil)

	rec := httptest.NewRecorder()
	f.handler.File(rec, uploadRequest(t, UploadField, "a.wav", "audio/wav", make([]byte, 1001)))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status %d, want 413", rec.Code)
	}
	if got := decode(t, rec)["error"]; got != "Arquivo excede o limite de 1000 bytes" {
		t.Errorf("error %q", got)
	}
}

func TestLimitText(t *testing.T) {
	tests := map[int64]string{
		100 << 20: "100MB",
		1000:      "1000 bytes",
		3 << 19:   "1.50MB",
		1<<20 + 1: "1.00MB",
	}
	for in, want := range tests {
		if got := limitText(in); got != want {
			t.Errorf("limitText(%d): got %q, want %q", in, got, want)
		}
	}
}

func TestFileTooLargeByContentLength(t *testing.T) {
	f := newFixture(t, 1024, nil)

	req := httptest.NewRequest(http.MethodPost, "/transcribe/file", strings.NewReader("x"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	req.ContentLength = 10 << 20

	rec := httptest.NewRecorder()
	f.handler.File(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status %d, want 413", rec.Code)
	}
}

func TestFileProviderFailure(t *testing.T) {
	f := newFixture(t, 100<<20, &job.ProviderError{Provider: "openai", Msg: "Invalid file format."})

	rec := httptest.NewRecorder()
	f.handler.File(rec, uploadRequest(t, UploadField, "clip.wav", "audio/wav", make([]byte, 4096)))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", rec.Code)
	}
	if got := decode(t, rec)["error"]; got != "Erro ao processar arquivo: Invalid file format." {
		t.Errorf("error %q", got)
	}
	if n := f.residual(t); n != 0 {
		t.Errorf("%d files left behind", n)
	}
}

func TestFileConcurrentUploads(t *testing.T) {
	f := newFixture(t, 100<<20, nil)

	const n = 16
	reqs := make([]*http.Request, n)
	for i := range reqs {
		reqs[i] = uploadRequest(t, UploadField, fmt.Sprintf("clip-%d.wav", i), "audio/wav", make([]byte, 1024*(i+1)))
	}

	var wg sync.WaitGroup
	errs := make(chan string, n)
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req *http.Request) {
			defer wg.Done()
			name := fmt.Sprintf("clip-%d.wav", i)

			rec := httptest.NewRecorder()
			f.handler.File(rec, req)

			var body map[string]string
			json.Unmarshal(rec.Body.Bytes(), &body)
			if rec.Code != http.StatusOK || !strings.Contains(body["transcription"], "- Nome: "+name+"\n") {
				errs <- fmt.Sprintf("%s: %d %s", name, rec.Code, rec.Body.String())
			}
		}(i, req)
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Error(e)
	}
	if got := f.residual(t); got != 0 {
		t.Errorf("%d files left behind", got)
	}
}

func TestYouTubeDownload(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		exportErr  error
		wantStatus int
		wantKey    string
		wantValue  string
	}{
		{"missing url", `{}`, nil, http.StatusBadRequest, "error", acquire.MsgMissingURL},
		{"invalid url", `{"url":"https://vimeo.com/1"}`, nil, http.StatusBadRequest, "error", acquire.MsgInvalidYouTubeURL},
		{"export fails", `{"url":"` + youtubeURL + `"}`, errors.New("exit status 1"), http.StatusInternalServerError, "error", "Falha ao processar vídeo do YouTube"},
		{"success", `{"url":"` + youtubeURL + `"}`, nil, http.StatusOK, "message", "Download e conversão concluídos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 100<<20, nil)
			f.handler.exporter = &fakeExporter{path: "/data/downloads/audio_1.mp3", err: tt.exportErr}

			rec := httptest.NewRecorder()
			f.handler.YouTubeDownload(rec, httptest.NewRequest(http.MethodPost, "/transcribe/youtube-download", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decode(t, rec)
			if body[tt.wantKey] != tt.wantValue {
				t.Errorf("%s: got %q, want %q", tt.wantKey, body[tt.wantKey], tt.wantValue)
			}
			if tt.wantStatus == http.StatusOK && body["path"] != "/data/downloads/audio_1.mp3" {
				t.Errorf("path: got %q", body["path"])
			}
		})
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler("simulated").Get(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	body := decode(t, rec)
	if rec.Code != http.StatusOK || body["status"] != "ok" || body["provider"] != "simulated" {
		t.Errorf("unexpected health response %d %v", rec.Code, body)
	}
}

func TestStaticSPAFallback(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0644)
	os.MkdirAll(filepath.Join(dir, "assets"), 0755)
	os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0644)

	h := NewStaticHandler(dir)
	tests := map[string]string{
		"/assets/app.js":       "console.log(1)",
		"/historico":           "<html>app</html>",
		"/../../../etc/passwd": "<html>app</html>",
		"/assets/":             "<html>app</html>",
	}
	for path, want := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Errorf("%s: got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

func TestStaticMissingBuild(t *testing.T) {
	rec := httptest.NewRecorder()
	NewStaticHandler(t.TempDir()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}
