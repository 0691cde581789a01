package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hszk-dev/clipstream/internal/domain/model"
	"github.com/hszk-dev/clipstream/internal/domain/repository"
	"github.com/hszk-dev/clipstream/internal/infrastructure/cache"
)

// CachedStoreConfig holds configuration for the caching store decorator.
type CachedStoreConfig struct {
	// CacheTTL is the TTL for cached artifact bytes.
	CacheTTL time.Duration
}

// DefaultCachedStoreConfig returns the default configuration.
func DefaultCachedStoreConfig() CachedStoreConfig {
	return CachedStoreConfig{
		CacheTTL: 5 * time.Minute,
	}
}

// cachedArtifactStore wraps an ArtifactStore with a read-through byte cache.
// Writes and deletes invalidate the cached namespace before delegating, so
// readers never see artifacts from a superseded set outlive the TTL of the
// replacement.
type cachedArtifactStore struct {
	delegate repository.ArtifactStore
	cache    cache.ArtifactCache
	sfGroup  singleflight.Group

	cacheTTL time.Duration
}

// NewCachedArtifactStore wraps store with caching on the Get path.
func NewCachedArtifactStore(
	store repository.ArtifactStore,
	artifactCache cache.ArtifactCache,
	cfg CachedStoreConfig,
) repository.ArtifactStore {
	return &cachedArtifactStore{
		delegate: store,
		cache:    artifactCache,
		cacheTTL: cfg.CacheTTL,
	}
}

// Put invalidates cached artifacts for the video before committing the new
// set, so stale bytes don't shadow the replacement.
func (s *cachedArtifactStore) Put(ctx context.Context, videoID string, files []model.StoredFile) error {
	if err := s.cache.DeleteVideo(ctx, videoID); err != nil {
		slog.Warn("failed to invalidate cache on put",
			"video_id", videoID,
			"error", err,
		)
	}

	return s.delegate.Put(ctx, videoID, files)
}

// Get retrieves an artifact, trying the cache first. Concurrent requests for
// the same artifact are coalesced with singleflight.
func (s *cachedArtifactStore) Get(ctx context.Context, videoID, filename string) (*model.StoredFile, error) {
	key := videoID + "/" + filename
	result, err, _ := s.sfGroup.Do(key, func() (any, error) {
		// The fetch is shared by every coalesced caller, so it must not die
		// with whichever caller happened to start it.
		return s.getWithCache(context.WithoutCancel(ctx), videoID, filename)
	})
	if err != nil {
		return nil, err
	}

	return result.(*model.StoredFile), nil
}

// getWithCache implements the cache-aside pattern.
func (s *cachedArtifactStore) getWithCache(ctx context.Context, videoID, filename string) (*model.StoredFile, error) {
	file, err := s.cache.Get(ctx, videoID, filename)
	if err != nil {
		slog.Warn("cache get failed, falling back to store",
			"video_id", videoID,
			"filename", filename,
			"error", err,
		)
	}
	if file != nil {
		return file, nil
	}

	file, err = s.delegate.Get(ctx, videoID, filename)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, videoID, file, s.cacheTTL); err != nil {
		slog.Warn("failed to cache artifact",
			"video_id", videoID,
			"filename", filename,
			"error", err,
		)
	}

	return file, nil
}

func (s *cachedArtifactStore) Exists(ctx context.Context, videoID string) bool {
	return s.delegate.Exists(ctx, videoID)
}

func (s *cachedArtifactStore) List(ctx context.Context, videoID string) []string {
	return s.delegate.List(ctx, videoID)
}

// Delete invalidates cached artifacts before removing the namespace.
func (s *cachedArtifactStore) Delete(ctx context.Context, videoID string) error {
	if err := s.cache.DeleteVideo(ctx, videoID); err != nil {
		slog.Warn("failed to invalidate cache on delete",
			"video_id", videoID,
			"error", err,
		)
	}

	return s.delegate.Delete(ctx, videoID)
}

func (s *cachedArtifactStore) Stats(ctx context.Context) model.StorageStats {
	return s.delegate.Stats(ctx)
}
