package usecase

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hszk-dev/clipstream/internal/domain/model"
	"github.com/hszk-dev/clipstream/internal/domain/repository"
	"github.com/hszk-dev/clipstream/internal/transcoder"
)

// mockArtifactStore provides a configurable mock for ArtifactStore.
type mockArtifactStore struct {
	putFn    func(ctx context.Context, videoID string, files []model.StoredFile) error
	getFn    func(ctx context.Context, videoID, filename string) (*model.StoredFile, error)
	existsFn func(ctx context.Context, videoID string) bool
	listFn   func(ctx context.Context, videoID string) []string
	deleteFn func(ctx context.Context, videoID string) error
	statsFn  func(ctx context.Context) model.StorageStats
}

func (m *mockArtifactStore) Put(ctx context.Context, videoID string, files []model.StoredFile) error {
	if m.putFn != nil {
		return m.putFn(ctx, videoID, files)
	}
	return nil
}

func (m *mockArtifactStore) Get(ctx context.Context, videoID, filename string) (*model.StoredFile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, videoID, filename)
	}
	return nil, repository.ErrArtifactNotFound
}

func (m *mockArtifactStore) Exists(ctx context.Context, videoID string) bool {
	if m.existsFn != nil {
		return m.existsFn(ctx, videoID)
	}
	return false
}

func (m *mockArtifactStore) List(ctx context.Context, videoID string) []string {
	if m.listFn != nil {
		return m.listFn(ctx, videoID)
	}
	return nil
}

func (m *mockArtifactStore) Delete(ctx context.Context, videoID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, videoID)
	}
	return nil
}

func (m *mockArtifactStore) Stats(ctx context.Context) model.StorageStats {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return model.StorageStats{}
}

// mockJobRepository provides a configurable mock for JobRepository.
type mockJobRepository struct {
	createFn  func(ctx context.Context, job *model.ProcessJob) error
	getByIDFn func(ctx context.Context, id uuid.UUID) (*model.ProcessJob, error)
	updateFn  func(ctx context.Context, job *model.ProcessJob) error
}

func (m *mockJobRepository) Create(ctx context.Context, job *model.ProcessJob) error {
	if m.createFn != nil {
		return m.createFn(ctx, job)
	}
	return nil
}

func (m *mockJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ProcessJob, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrJobNotFound
}

func (m *mockJobRepository) Update(ctx context.Context, job *model.ProcessJob) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, job)
	}
	return nil
}

// mockMessageQueue provides a configurable mock for MessageQueue.
type mockMessageQueue struct {
	publishProcessTaskFn  func(ctx context.Context, task repository.ProcessTask) error
	consumeProcessTasksFn func(ctx context.Context, handler func(task repository.ProcessTask) error) error
}

func (m *mockMessageQueue) PublishProcessTask(ctx context.Context, task repository.ProcessTask) error {
	if m.publishProcessTaskFn != nil {
		return m.publishProcessTaskFn(ctx, task)
	}
	return nil
}

func (m *mockMessageQueue) ConsumeProcessTasks(ctx context.Context, handler func(task repository.ProcessTask) error) error {
	if m.consumeProcessTasksFn != nil {
		return m.consumeProcessTasksFn(ctx, handler)
	}
	return nil
}

func (m *mockMessageQueue) Close() error {
	return nil
}

// mockTranscoder provides a configurable mock for Transcoder.
type mockTranscoder struct {
	transcodeToHLSFn func(ctx context.Context, inputPath, outputDir string, params transcoder.Params) (*transcoder.Output, error)
}

func (m *mockTranscoder) TranscodeToHLS(ctx context.Context, inputPath, outputDir string, params transcoder.Params) (*transcoder.Output, error) {
	if m.transcodeToHLSFn != nil {
		return m.transcodeToHLSFn(ctx, inputPath, outputDir, params)
	}
	return nil, nil
}

// mockArtifactCache provides a configurable mock for ArtifactCache.
type mockArtifactCache struct {
	getFn         func(ctx context.Context, videoID, filename string) (*model.StoredFile, error)
	setFn         func(ctx context.Context, videoID string, file *model.StoredFile, ttl time.Duration) error
	deleteVideoFn func(ctx context.Context, videoID string) error
}

func (m *mockArtifactCache) Get(ctx context.Context, videoID, filename string) (*model.StoredFile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, videoID, filename)
	}
	return nil, nil
}

func (m *mockArtifactCache) Set(ctx context.Context, videoID string, file *model.StoredFile, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, videoID, file, ttl)
	}
	return nil
}

func (m *mockArtifactCache) DeleteVideo(ctx context.Context, videoID string) error {
	if m.deleteVideoFn != nil {
		return m.deleteVideoFn(ctx, videoID)
	}
	return nil
}

// roundTripFunc adapts a function to http.RoundTripper for stubbing downloads.
type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
