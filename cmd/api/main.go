package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/clipstream/internal/api/handler"
	"github.com/hszk-dev/clipstream/internal/api/middleware"
	"github.com/hszk-dev/clipstream/internal/config"
	"github.com/hszk-dev/clipstream/internal/domain/repository"
	"github.com/hszk-dev/clipstream/internal/infrastructure/cache"
	"github.com/hszk-dev/clipstream/internal/infrastructure/postgres"
	"github.com/hszk-dev/clipstream/internal/infrastructure/queue"
	"github.com/hszk-dev/clipstream/internal/infrastructure/store"
	"github.com/hszk-dev/clipstream/internal/transcoder"
	"github.com/hszk-dev/clipstream/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	artifactStore, err := buildArtifactStore(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("artifact store ready", slog.String("backend", cfg.Storage.Backend))

	if cfg.Cache.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Info("connected to Redis")

		artifactStore = usecase.NewCachedArtifactStore(
			artifactStore,
			cache.NewRedisArtifactCache(redisClient),
			usecase.CachedStoreConfig{CacheTTL: cfg.Cache.TTL},
		)
	}

	pgClient, err := postgres.NewClient(ctx, postgres.DefaultClientConfig(cfg.Database.DSN()))
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pgClient.Close()
	logger.Info("connected to PostgreSQL")

	queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()))
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

	ffmpegCfg := transcoder.DefaultFFmpegConfig()
	ffmpegCfg.FFmpegPath = cfg.Pipeline.FFmpegPath
	tc := transcoder.NewFFmpegTranscoder(ffmpegCfg)

	processSvc := usecase.NewProcessService(
		artifactStore,
		postgres.NewJobRepository(pgClient.Pool()),
		queueClient,
		tc,
		usecase.ProcessServiceConfig{
			TempDir:         cfg.Pipeline.TempDir,
			SegmentDuration: cfg.Pipeline.SegmentDuration,
			TargetWidth:     cfg.Pipeline.TargetWidth,
			TargetHeight:    cfg.Pipeline.TargetHeight,
			MaxConcurrent:   cfg.Pipeline.MaxConcurrent,
			MaxRetries:      cfg.Pipeline.MaxRetries,
		},
	)

	r := setupRouter(logger, processSvc, artifactStore)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func buildArtifactStore(ctx context.Context, cfg *config.Config) (repository.ArtifactStore, error) {
	switch cfg.Storage.Backend {
	case "fs":
		s, err := store.NewFSStore(cfg.Storage.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open filesystem store: %w", err)
		}
		return s, nil
	case "minio":
		s, err := store.NewMinioStore(ctx, store.MinioConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MinIO: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func setupRouter(logger *slog.Logger, svc usecase.ProcessService, artifactStore repository.ArtifactStore) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Get("/health", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	processHandler := handler.NewProcessHandler(svc)
	hlsHandler := handler.NewHLSHandler(artifactStore)
	storageHandler := handler.NewStorageHandler(artifactStore)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/videos/process", processHandler.Process)
		r.Post("/videos/enqueue", processHandler.Enqueue)
		r.Get("/jobs/{id}", processHandler.GetJob)

		r.Get("/hls/{videoID}/{filename}", hlsHandler.Serve)
		r.Options("/hls/{videoID}/{filename}", hlsHandler.Preflight)

		r.Get("/storage", storageHandler.Get)
		r.Delete("/storage", storageHandler.Delete)
	})

	return r
}
