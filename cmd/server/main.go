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

	"github.com/kitbuilder587/podcast-radar/internal/cache/memory"
	"github.com/kitbuilder587/podcast-radar/internal/config"
	"github.com/kitbuilder587/podcast-radar/internal/httpapi"
	"github.com/kitbuilder587/podcast-radar/internal/metrics"
	"github.com/kitbuilder587/podcast-radar/internal/ratelimit"
	"github.com/kitbuilder587/podcast-radar/internal/repository/postgres"
	"github.com/kitbuilder587/podcast-radar/internal/search/itunes"
	"github.com/kitbuilder587/podcast-radar/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.New()

	podcastRepo := postgres.NewPodcastRepo(db)
	jobRepo := postgres.NewJobRepo(db, cfg.Worker.JobMaxAttempts)

	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		OnWait:            m.RecordRateLimitWait,
	})
	responseCache := memory.New(memory.Config{
		TTL:           cfg.Cache.TTL,
		SweepInterval: cfg.Cache.SweepInterval,
	})
	defer responseCache.Stop()

	client := itunes.New(itunes.Config{
		BaseURL:             cfg.ITunes.BaseURL,
		Timeout:             cfg.ITunes.Timeout,
		RetryAttempts:       cfg.ITunes.RetryAttempts,
		RetryDelay:          cfg.ITunes.RetryDelay,
		RateLimitAttempts:   cfg.ITunes.RateLimitAttempts,
		RateLimitBaseDelay:  cfg.ITunes.RateLimitBaseDelay,
		RateLimitMultiplier: cfg.ITunes.RateLimitMultiplier,
		RateLimitMaxDelay:   cfg.ITunes.RateLimitMaxDelay,
	}, limiter, responseCache, logger, m)

	searchSvc := service.NewSearchService(service.SearchServiceDeps{
		Client:   client,
		Podcasts: podcastRepo,
		Jobs:     jobRepo,
		Logger:   logger,
		Metrics:  m,
	})
	podcastSvc := service.NewPodcastService(podcastRepo, logger)

	worker := service.NewWorker(jobRepo, podcastRepo, logger, m, service.WorkerConfig{
		PollInterval: cfg.Worker.PollInterval,
		BatchSize:    cfg.Worker.BatchSize,
	})
	worker.Start(ctx)
	defer worker.Stop()

	server := httpapi.NewServer(searchSvc, podcastSvc, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.HTTP.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
