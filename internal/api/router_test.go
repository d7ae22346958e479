package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/linkpi14/transcript-v11/internal/acquire"
	"github.com/linkpi14/transcript-v11/internal/api/middleware"
	"github.com/linkpi14/transcript-v11/internal/config"
	"github.com/linkpi14/transcript-v11/internal/job"
	"github.com/linkpi14/transcript-v11/internal/storage"
	"github.com/linkpi14/transcript-v11/internal/transcribe"
)

type nopExporter struct{}

func (nopExporter) Export(context.Context, string, string) (string, error) {
	return "downloads/audio_1.mp3", nil
}

func newTestRouter(t *testing.T, limiter *middleware.RateLimiter) http.Handler {
	t.Helper()
	root := t.TempDir()
	ws, err := storage.NewWorkspace(filepath.Join(root, "uploads"))
	if err != nil {
		t.Fatal(err)
	}
	static := filepath.Join(root, "dist")
	os.MkdirAll(static, 0755)
	os.WriteFile(filepath.Join(static, "index.html"), []byte("<html>app</html>"), 0644)

	runner := job.NewRunner(map[job.SourceKind]job.Acquirer{
		job.KindYouTube:   acquire.Skip{},
		job.KindInstagram: acquire.Instagram{},
		job.KindUpload:    acquire.Upload{},
	}, transcribe.NewSimulated(), job.WithRemover(ws.Remove))

	cfg := &config.Config{
		MaxUploadBytes: 100 << 20,
		DownloadDir:    filepath.Join(root, "downloads"),
		StaticDir:      static,
		CORSOrigins:    []string{"*"},
	}
	return NewRouter(Deps{
		Config:      cfg,
		Log:         zap.NewNop(),
		Runner:      runner,
		Exporter:    nopExporter{},
		Workspace:   ws,
		Engine:      "simulated",
		RateLimiter: limiter,
	})
}

func TestRoutes(t *testing.T) {
	router := newTestRouter(t, nil)
	body := `{"url":"https://youtu.be/dQw4w9WgXcQ"}`

	tests := []struct {
		method, path, body string
		wantStatus         int
		wantContains       string
	}{
		{http.MethodGet, "/api/health", "", http.StatusOK, `"provider":"simulated"`},
		{http.MethodPost, "/transcribe/youtube", body, http.StatusOK, "Transcrição simulada do vídeo YouTube"},
		{http.MethodPost, "/api/transcribe-youtube", body, http.StatusOK, "Transcrição simulada do vídeo YouTube"},
		{http.MethodPost, "/transcribe/instagram", `{"url":"https://instagram.com/p/x"}`, http.StatusOK, "Instagram"},
		{http.MethodPost, "/transcribe/youtube-download", body, http.StatusOK, "audio_1.mp3"},
		{http.MethodPost, "/api/transcribe/youtube", `{}`, http.StatusBadRequest, "URL não fornecida"},
		{http.MethodPost, "/api/transcribe-file", "", http.StatusBadRequest, "Nenhum arquivo enviado"},
		{http.MethodGet, "/api/unknown", "", http.StatusNotFound, "not found"},
		{http.MethodGet, "/qualquer/rota", "", http.StatusOK, "<html>app</html>"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantContains) {
				t.Errorf("body %q missing %q", rec.Body.String(), tt.wantContains)
			}
		})
	}
}

func TestHealthNotRateLimited(t *testing.T) {
	router := newTestRouter(t, middleware.NewRateLimiter(1, time.Minute))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("health call %d: status %d", i, rec.Code)
		}
	}

	codes := make([]int, 2)
	for i := range codes {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transcribe/youtube", strings.NewReader(`{"url":"x"}`)))
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusBadRequest || codes[1] != http.StatusTooManyRequests {
		t.Errorf("got %v, want [400 429]", codes)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/transcribe/youtube", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin: got %q", got)
	}
}

func TestErrorResponsesAreJSON(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transcribe/youtube", strings.NewReader(`{"url":"nope"}`)))

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %q", rec.Body.String())
	}
	if body["error"] != acquire.MsgInvalidYouTubeURL {
		t.Errorf("error: got %q", body["error"])
	}
}
