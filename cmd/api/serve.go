package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"reelcast/internal/config"
	"reelcast/internal/handler"
	"reelcast/internal/instagram"
	"reelcast/internal/logging"
	"reelcast/internal/metrics"
	"reelcast/internal/observability"
	"reelcast/internal/replicate"
	"reelcast/internal/repository"
	"reelcast/internal/service"
	"reelcast/internal/session"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"go.opentelemetry.io/otel"
)

const shutdownTimeout = 15 * time.Second

func runServer(ctx context.Context, configPath, bindOverride string) error {
	cfg, resolvedPath, exists, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if bindOverride != "" {
		cfg.Server.Bind = bindOverride
	}

	logger, closer, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()
	if exists {
		logger.Info("configuration loaded", slog.String("path", resolvedPath))
	} else {
		logger.Info("no configuration file; using defaults and environment", slog.String("path", resolvedPath))
	}

	if err := os.MkdirAll(cfg.Server.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another reelcast instance is already running")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release instance lock", slog.String("error", err.Error()))
		}
	}()

	tracerProvider, shutdownTracing, err := observability.NewTracerProvider(cfg.Tracing, os.Stderr)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("failed to flush spans", slog.String("error", err.Error()))
		}
	}()
	otel.SetTracerProvider(tracerProvider)
	traced := service.WithTracerProvider(tracerProvider)

	// Initialize repository
	repo, err := repository.Open(cfg.History.Driver, cfg.History.DSN)
	if err != nil {
		return fmt.Errorf("open job history: %w", err)
	}
	defer repo.Close()

	// Initialize metrics
	metricsInstance := metrics.NewMetrics()

	// Initialize services
	store := session.NewStore()
	igClient := instagram.NewClient(instagram.Config{
		BaseURL: cfg.Instagram.BaseURL,
		Timeout: cfg.InstagramTimeout(),
	})
	connections := service.NewConnectionService(
		igClient,
		store,
		service.Credentials{Username: cfg.Instagram.Username, Password: cfg.Instagram.Password},
		metricsInstance,
		logging.Component(logger, "connection"),
		traced,
	)
	replicateClient, err := replicate.NewClient(replicate.Config{
		APIToken:     cfg.Replicate.APIToken,
		BaseURL:      cfg.Replicate.BaseURL,
		PollInterval: cfg.PollInterval(),
	})
	if err != nil {
		return fmt.Errorf("replicate client: %w", err)
	}
	videos := service.NewVideoService(replicateClient, cfg.Replicate, metricsInstance, logging.Component(logger, "video"), traced)
	posts := service.NewPublishService(
		connections,
		&service.HTTPDownloader{MaxBytes: cfg.Instagram.MaxVideoBytes},
		cfg.InstagramTimeout(),
		metricsInstance,
		logging.Component(logger, "publish"),
		traced,
	)

	var pipeline service.Pipeline = &service.DirectPipeline{Videos: videos, Posts: posts}
	if cfg.Scheduler.Pipeline == config.PipelineHTTP {
		pipeline = &service.HTTPPipeline{
			BaseURL: cfg.Server.BaseURL,
			Client:  &http.Client{Timeout: cfg.ReplicateTimeout() + cfg.InstagramTimeout()},
		}
	}
	scheduler := service.NewSchedulerService(
		pipeline,
		repo,
		metricsInstance,
		logging.Component(logger, "scheduler"),
		service.WithMaxConcurrent(cfg.Scheduler.MaxConcurrent),
	)
	defer scheduler.Close()
	if err := scheduler.Restore(ctx); err != nil {
		logger.Error("failed to restore job history", slog.String("error", err.Error()))
	}

	if cfg.HistorySweepEnabled() {
		sweeper, err := service.NewHistorySweeper(repo, scheduler, cfg.History.RetentionDays, cfg.History.SweepSchedule, logging.Component(logger, "history"))
		if err != nil {
			return fmt.Errorf("history sweeper: %w", err)
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	// Initialize handlers
	httpLogger := logging.Component(logger, "http")
	router := handler.NewRouter(handler.Handlers{
		Connections: handler.NewConnectionHandler(connections, httpLogger),
		Videos:      handler.NewVideoHandler(videos, posts, httpLogger),
		Jobs:        handler.NewJobHandler(scheduler, metricsInstance, httpLogger),
		CORSOrigin:  cfg.Server.CORSOrigin,
		Logger:      httpLogger,
	})

	server := &http.Server{
		Addr:              cfg.Server.Bind,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server starting",
			slog.String("bind", cfg.Server.Bind),
			slog.String("pipeline", cfg.Scheduler.Pipeline),
			slog.Bool("replicate_configured", replicateClient.Configured()),
			slog.Bool("instagram_credentials", cfg.HasAmbientCredentials()),
			slog.String("tracing", cfg.Tracing.Exporter),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error closing server", slog.String("error", err.Error()))
	}
	logger.Info("server stopped")
	return nil
}
