package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/linkpi14/transcript-v11/internal/acquire"
	"github.com/linkpi14/transcript-v11/internal/api"
	"github.com/linkpi14/transcript-v11/internal/api/middleware"
	"github.com/linkpi14/transcript-v11/internal/config"
	"github.com/linkpi14/transcript-v11/internal/job"
	"github.com/linkpi14/transcript-v11/internal/logging"
	"github.com/linkpi14/transcript-v11/internal/media"
	"github.com/linkpi14/transcript-v11/internal/storage"
	"github.com/linkpi14/transcript-v11/internal/transcribe"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ws, err := storage.NewWorkspace(cfg.WorkDir)
	if err != nil {
		return fmt.Errorf("work dir: %w", err)
	}
	// Leftovers from a previous crash
	if n, err := ws.Sweep(cfg.SweepAge); err != nil {
		log.Warn("sweeping work dir", zap.Error(err))
	} else if n > 0 {
		log.Info("removed stale files", zap.Int("count", n), zap.String("dir", ws.Dir()))
	}

	tools := media.NewTools(
		media.WithYTDLPBinary(cfg.YTDLPBinary),
		media.WithFFmpegBinary(cfg.FFmpegBinary),
		media.WithFFprobeBinary(cfg.FFprobeBinary),
		media.WithCommandTimeout(cfg.AcquireTimeout),
	)

	engine, avail := transcribe.New(cfg, log)

	exporter := acquire.NewYouTubeDownload(ws, tools, log)
	var youtube job.Acquirer = acquire.NewYouTubeStream(ws, tools, log)
	if cfg.YouTubeStrategy == config.StrategyDownload {
		youtube = exporter
	}
	if avail == transcribe.AvailabilitySimulated && cfg.SimulateSkipAcquire {
		log.Info("simulated engine active, skipping YouTube acquisition")
		youtube = acquire.Skip{}
	}

	runner := job.NewRunner(map[job.SourceKind]job.Acquirer{
		job.KindYouTube:   youtube,
		job.KindInstagram: acquire.Instagram{},
		job.KindUpload:    acquire.Upload{},
	}, engine,
		job.WithLogger(log),
		job.WithTimeouts(cfg.AcquireTimeout, cfg.ProviderTimeout),
		job.WithRemover(ws.Remove),
	)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
	}

	router := api.NewRouter(api.Deps{
		Config:      cfg,
		Log:         log,
		Runner:      runner,
		Exporter:    exporter,
		Workspace:   ws,
		Engine:      providerName(avail),
		RateLimiter: limiter,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server",
			zap.String("addr", srv.Addr),
			zap.String("engine", engine.Name()),
			zap.Stringer("availability", avail),
			zap.String("youtube_strategy", cfg.YouTubeStrategy),
			zap.String("work_dir", ws.Dir()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if limiter != nil {
		g.Go(func() error {
			return limiter.Run(gctx)
		})
	}

	return g.Wait()
}

// providerName is what the health endpoint reports.
func providerName(avail transcribe.Availability) string {
	if avail == transcribe.AvailabilityReal {
		return "openai"
	}
	return "simulated"
}
