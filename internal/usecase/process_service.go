package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/hszk-dev/clipstream/internal/domain/model"
	"github.com/hszk-dev/clipstream/internal/domain/repository"
	"github.com/hszk-dev/clipstream/internal/infrastructure/metrics"
	"github.com/hszk-dev/clipstream/internal/transcoder"
)

const (
	// DefaultMaxRetries is the default maximum number of retry attempts before marking a job as failed.
	DefaultMaxRetries = 3
	// DefaultMaxConcurrent is the default number of transcodes allowed to run at once.
	DefaultMaxConcurrent = 2
	// DefaultSegmentDuration is the default HLS segment length in seconds.
	DefaultSegmentDuration = 10
	// DefaultTargetWidth and DefaultTargetHeight define the output resolution.
	DefaultTargetWidth  = 640
	DefaultTargetHeight = 360
)

var (
	// ErrDownloadFailure indicates the source video could not be fetched.
	ErrDownloadFailure = errors.New("source download failed")
	// ErrStorageFailure indicates the produced artifacts could not be committed.
	ErrStorageFailure = errors.New("artifact storage failed")
)

// ProcessResult describes a completed pipeline run.
type ProcessResult struct {
	JobID   uuid.UUID
	VideoID string
	HLSPath string
}

// ProcessService defines the interface for the video processing pipeline.
type ProcessService interface {
	// Process runs the full pipeline synchronously: download the source,
	// transcode to HLS, and commit the artifact set. Returns the playback
	// path on success.
	Process(ctx context.Context, sourceURL, fileName string) (*ProcessResult, error)

	// Enqueue records a job and publishes it for asynchronous processing.
	Enqueue(ctx context.Context, sourceURL, fileName string) (*model.ProcessJob, error)

	// HandleTask processes a queued task. Returns nil on success or permanent
	// failure (max retries exceeded); returns an error for transient failures
	// that should trigger a retry.
	HandleTask(ctx context.Context, task repository.ProcessTask) error

	// GetJob retrieves a job record by ID.
	GetJob(ctx context.Context, id uuid.UUID) (*model.ProcessJob, error)
}

// ProcessServiceConfig holds configuration for ProcessService.
type ProcessServiceConfig struct {
	// TempDir is the base directory for per-job scratch directories.
	TempDir string
	// SegmentDuration is the HLS segment length in seconds.
	SegmentDuration int
	// TargetWidth and TargetHeight define the output resolution.
	TargetWidth  int
	TargetHeight int
	// MaxConcurrent bounds the number of transcodes running at once.
	MaxConcurrent int64
	// MaxRetries is the maximum number of retry attempts before marking a job as failed.
	MaxRetries int
}

// DefaultProcessServiceConfig returns the default configuration.
func DefaultProcessServiceConfig() ProcessServiceConfig {
	return ProcessServiceConfig{
		TempDir:         os.TempDir(),
		SegmentDuration: DefaultSegmentDuration,
		TargetWidth:     DefaultTargetWidth,
		TargetHeight:    DefaultTargetHeight,
		MaxConcurrent:   DefaultMaxConcurrent,
		MaxRetries:      DefaultMaxRetries,
	}
}

// httpDoer abstracts the HTTP client used to fetch source videos.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type processService struct {
	store      repository.ArtifactStore
	jobs       repository.JobRepository
	queue      repository.MessageQueue
	transcoder transcoder.Transcoder
	httpClient httpDoer

	// sem bounds concurrent transcodes across synchronous and queued runs.
	sem *semaphore.Weighted

	tempDir         string
	segmentDuration int
	targetWidth     int
	targetHeight    int
	maxRetries      int
}

// NewProcessService creates a new ProcessService instance.
func NewProcessService(
	store repository.ArtifactStore,
	jobs repository.JobRepository,
	queue repository.MessageQueue,
	tc transcoder.Transcoder,
	cfg ProcessServiceConfig,
) ProcessService {
	return newProcessService(store, jobs, queue, tc, &http.Client{Timeout: 10 * time.Minute}, cfg)
}

func newProcessService(
	store repository.ArtifactStore,
	jobs repository.JobRepository,
	queue repository.MessageQueue,
	tc transcoder.Transcoder,
	client httpDoer,
	cfg ProcessServiceConfig,
) *processService {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	return &processService{
		store:           store,
		jobs:            jobs,
		queue:           queue,
		transcoder:      tc,
		httpClient:      client,
		sem:             semaphore.NewWeighted(cfg.MaxConcurrent),
		tempDir:         cfg.TempDir,
		segmentDuration: cfg.SegmentDuration,
		targetWidth:     cfg.TargetWidth,
		targetHeight:    cfg.TargetHeight,
		maxRetries:      cfg.MaxRetries,
	}
}

// Process runs the full pipeline for a single source video.
func (s *processService) Process(ctx context.Context, sourceURL, fileName string) (*ProcessResult, error) {
	job, err := s.createJob(ctx, sourceURL, fileName)
	if err != nil {
		return nil, err
	}

	if err := s.run(ctx, job, true); err != nil {
		return nil, err
	}

	return &ProcessResult{
		JobID:   job.ID,
		VideoID: job.VideoID,
		HLSPath: job.HLSPath,
	}, nil
}

// Enqueue records a job and publishes a task for the worker to pick up.
func (s *processService) Enqueue(ctx context.Context, sourceURL, fileName string) (*model.ProcessJob, error) {
	job, err := s.createJob(ctx, sourceURL, fileName)
	if err != nil {
		return nil, err
	}

	task := repository.ProcessTask{
		JobID:     job.ID,
		SourceURL: job.SourceURL,
		FileName:  fileName,
	}
	if err := s.queue.PublishProcessTask(ctx, task); err != nil {
		return nil, fmt.Errorf("publish process task: %w", err)
	}

	return job, nil
}

// HandleTask processes a queued task.
func (s *processService) HandleTask(ctx context.Context, task repository.ProcessTask) error {
	job, err := s.jobs.GetByID(ctx, task.JobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			// Nothing to update; drop the task.
			slog.Error("task references unknown job", "job_id", task.JobID)
			return nil
		}
		return fmt.Errorf("get job: %w", err)
	}

	if job.Status.IsTerminal() {
		return nil
	}

	// Max retries exceeded - mark as failed and ack the message.
	if task.RetryCount >= s.maxRetries {
		if err := job.Fail("max retries exceeded"); err == nil {
			if err := s.jobs.Update(ctx, job); err != nil {
				slog.Error("failed to mark job as failed",
					"job_id", job.ID,
					"retry_count", task.RetryCount,
					"error", err,
				)
			}
		}
		return nil
	}

	// Retried tasks restart the pipeline from the top.
	if job.Status != model.JobPending {
		if err := job.Retry(); err != nil {
			return nil
		}
		if err := s.jobs.Update(ctx, job); err != nil {
			slog.Warn("failed to persist job retry", "job_id", job.ID, "error", err)
		}
	}

	final := task.RetryCount >= s.maxRetries-1
	return s.run(ctx, job, final)
}

// GetJob retrieves a job record by ID.
func (s *processService) GetJob(ctx context.Context, id uuid.UUID) (*model.ProcessJob, error) {
	return s.jobs.GetByID(ctx, id)
}

func (s *processService) createJob(ctx context.Context, sourceURL, fileName string) (*model.ProcessJob, error) {
	videoID, err := model.VideoIDFromFileName(fileName)
	if err != nil {
		return nil, err
	}

	job, err := model.NewProcessJob(videoID, sourceURL)
	if err != nil {
		return nil, err
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	return job, nil
}

// run executes download, transcode, and commit for a pending job. The scratch
// directory is removed unconditionally, success or failure. When final is
// false a failure leaves the job non-terminal so a retried task can pick it
// back up; when true a failure marks the job FAILED.
func (s *processService) run(ctx context.Context, job *model.ProcessJob, final bool) error {
	workDir, err := s.createWorkDir(job.VideoID)
	if err != nil {
		s.recordFailure(ctx, job, metrics.PipelineResultStorageFailed, err, final)
		return fmt.Errorf("create work directory: %w", err)
	}
	defer s.cleanup(workDir)

	// Download.
	s.recordTransition(ctx, job, model.JobDownloading)
	downloadStart := time.Now()
	inputPath, err := s.downloadSource(ctx, job.SourceURL, workDir)
	if err != nil {
		s.recordFailure(ctx, job, metrics.PipelineResultDownloadFailed, err, final)
		return fmt.Errorf("%w: %v", ErrDownloadFailure, err)
	}
	metrics.PipelineStageDuration.WithLabelValues(metrics.StageDownload).Observe(time.Since(downloadStart).Seconds())

	// Transcode, gated so only a bounded number run at once.
	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.recordFailure(ctx, job, metrics.PipelineResultTranscodeFailed, err, final)
		return fmt.Errorf("acquire transcode slot: %w", err)
	}
	s.recordTransition(ctx, job, model.JobTranscoding)
	transcodeStart := time.Now()
	outputDir := filepath.Join(workDir, "hls")
	output, err := func() (*transcoder.Output, error) {
		defer s.sem.Release(1)
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
		return s.transcoder.TranscodeToHLS(ctx, inputPath, outputDir, transcoder.Params{
			SegmentDuration: s.segmentDuration,
			Width:           s.targetWidth,
			Height:          s.targetHeight,
		})
	}()
	if err != nil {
		s.recordFailure(ctx, job, metrics.PipelineResultTranscodeFailed, err, final)
		return fmt.Errorf("transcode: %w", err)
	}
	metrics.PipelineStageDuration.WithLabelValues(metrics.StageTranscode).Observe(time.Since(transcodeStart).Seconds())

	// Commit the artifact set. Replaces any prior set for this video ID.
	s.recordTransition(ctx, job, model.JobCommitting)
	commitStart := time.Now()
	files, err := s.collectArtifacts(output)
	if err != nil {
		s.recordFailure(ctx, job, metrics.PipelineResultStorageFailed, err, final)
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if err := s.store.Put(ctx, job.VideoID, files); err != nil {
		s.recordFailure(ctx, job, metrics.PipelineResultStorageFailed, err, final)
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	metrics.PipelineStageDuration.WithLabelValues(metrics.StageCommit).Observe(time.Since(commitStart).Seconds())

	hlsPath := s.playbackPath(job.VideoID)
	if err := job.Complete(hlsPath); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		slog.Error("failed to record job completion", "job_id", job.ID, "error", err)
	}
	metrics.PipelineRunsTotal.WithLabelValues(metrics.PipelineResultDone).Inc()

	return nil
}

// createWorkDir creates a unique scratch directory for one pipeline run.
// Concurrent runs for the same video ID get distinct directories.
func (s *processService) createWorkDir(videoID string) (string, error) {
	workDir := filepath.Join(s.tempDir, "clipstream", videoID+"-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	return workDir, nil
}

// cleanup removes the scratch directory.
func (s *processService) cleanup(workDir string) {
	_ = os.RemoveAll(workDir)
}

// downloadSource fetches the source video over HTTP into the scratch directory.
func (s *processService) downloadSource(ctx context.Context, sourceURL, workDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch source: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch source: unexpected status %d", resp.StatusCode)
	}

	localPath := filepath.Join(workDir, "source.mp4")
	file, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create local file: %w", err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("copy to local file: %w", err)
	}

	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close local file: %w", err)
	}

	return localPath, nil
}

// collectArtifacts reads the transcoder output into an artifact set.
func (s *processService) collectArtifacts(output *transcoder.Output) ([]model.StoredFile, error) {
	paths := append([]string{output.PlaylistPath}, output.SegmentPaths...)

	files := make([]model.StoredFile, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read artifact %s: %w", filepath.Base(p), err)
		}
		name := filepath.Base(p)
		files = append(files, model.StoredFile{
			Filename:    name,
			Content:     content,
			ContentType: model.ContentTypeForFilename(name),
		})
	}

	return files, nil
}

// playbackPath builds the delivery path for a video's playlist.
func (s *processService) playbackPath(videoID string) string {
	return path.Join("/v1/hls", videoID, model.PlaylistFilename)
}

// recordTransition advances the job status and persists it. Persistence
// failures are logged; they don't abort the pipeline.
func (s *processService) recordTransition(ctx context.Context, job *model.ProcessJob, next model.JobStatus) {
	if err := job.TransitionTo(next); err != nil {
		slog.Error("invalid job transition", "job_id", job.ID, "from", job.Status, "to", next, "error", err)
		return
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		slog.Warn("failed to persist job status", "job_id", job.ID, "status", next, "error", err)
	}
}

// recordFailure records a failed run. The job is only marked FAILED when the
// failure is final; a retryable failure keeps the job non-terminal.
func (s *processService) recordFailure(ctx context.Context, job *model.ProcessJob, result string, cause error, final bool) {
	metrics.PipelineRunsTotal.WithLabelValues(result).Inc()

	if !final {
		slog.Warn("pipeline attempt failed, will retry",
			"job_id", job.ID,
			"result", result,
			"error", cause,
		)
		return
	}

	if err := job.Fail(cause.Error()); err != nil {
		slog.Error("failed to mark job as failed", "job_id", job.ID, "error", err)
		return
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		slog.Warn("failed to persist job failure", "job_id", job.ID, "error", err)
	}
}
