package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

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

	// Ensure scratch directory exists
	if err := os.MkdirAll(cfg.Pipeline.TempDir, 0755); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}

	artifactStore, err := buildArtifactStore(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("artifact store ready", slog.String("backend", cfg.Storage.Backend))

	// The worker writes artifact sets, so it invalidates the delivery cache
	// that the API reads through.
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

	// Setup signal handling for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// WaitGroup to track in-flight tasks
	var wg sync.WaitGroup

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting worker, consuming process tasks")
		err := queueClient.ConsumeProcessTasks(ctx, func(task repository.ProcessTask) error {
			wg.Add(1)
			defer wg.Done()

			logger.Info("processing task",
				slog.String("job_id", task.JobID.String()),
				slog.String("file_name", task.FileName),
				slog.Int("retry_count", task.RetryCount),
			)

			if err := processSvc.HandleTask(ctx, task); err != nil {
				logger.Error("task processing failed",
					slog.String("job_id", task.JobID.String()),
					slog.Int("retry_count", task.RetryCount),
					slog.String("error", err.Error()),
				)
				return err
			}

			logger.Info("task completed",
				slog.String("job_id", task.JobID.String()),
			)
			return nil
		})
		if err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("consumer error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down worker", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	// Stop consuming new messages
	cancel()

	// Wait for in-flight tasks to complete (or timeout)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("all in-flight tasks completed")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, some tasks may not have completed")
	}

	logger.Info("worker stopped")
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
