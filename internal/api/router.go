package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/linkpi14/transcript-v11/internal/api/handlers"
	"github.com/linkpi14/transcript-v11/internal/api/middleware"
	"github.com/linkpi14/transcript-v11/internal/config"
	"github.com/linkpi14/transcript-v11/internal/storage"
)

// maxJSONBody caps the URL routes, which only carry {"url": "..."}.
const maxJSONBody = 1 << 20

type Deps struct {
	Config      *config.Config
	Log         *zap.Logger
	Runner      handlers.Runner
	Exporter    handlers.Exporter
	Workspace   *storage.Workspace
	Engine      string
	RateLimiter *middleware.RateLimiter // nil disables rate limiting
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(d.Log))
	r.Use(cors.Handler(middleware.CORSHandler(d.Config.CORSOrigins)))

	transcribeHandler := handlers.NewTranscribeHandler(d.Runner, d.Exporter, d.Workspace,
		d.Config.MaxUploadBytes, d.Config.DownloadDir, d.Log)
	healthHandler := handlers.NewHealthHandler(d.Engine)

	r.Get("/api/health", healthHandler.Get)

	routes := func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBodySize(maxJSONBody))
			r.Post("/youtube", transcribeHandler.YouTube)
			r.Post("/instagram", transcribeHandler.Instagram)
			r.Post("/youtube-download", transcribeHandler.YouTubeDownload)
		})
		r.Post("/file", transcribeHandler.File)
	}

	r.Group(func(r chi.Router) {
		if d.RateLimiter != nil {
			r.Use(d.RateLimiter.Handler)
		}
		r.Route("/transcribe", routes)

		// Paths used by earlier web clients
		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBodySize(maxJSONBody))
			r.Post("/api/transcribe-youtube", transcribeHandler.YouTube)
			r.Post("/api/transcribe-instagram", transcribeHandler.Instagram)
			r.Post("/api/transcribe/youtube", transcribeHandler.YouTubeDownload)
		})
		r.Post("/api/transcribe-file", transcribeHandler.File)
	})

	r.Handle("/api/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	}))
	r.Handle("/*", handlers.NewStaticHandler(d.Config.StaticDir))

	return r
}
