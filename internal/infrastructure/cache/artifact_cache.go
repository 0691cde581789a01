package cache

import (
	"context"
	"time"

	"github.com/hszk-dev/clipstream/internal/domain/model"
)

// ArtifactCache defines the interface for caching artifact bytes on the
// delivery path. Implementations handle serialization transparently.
type ArtifactCache interface {
	// Get retrieves an artifact from cache.
	// Returns nil, nil if the artifact is not cached (cache miss).
	Get(ctx context.Context, videoID, filename string) (*model.StoredFile, error)

	// Set stores an artifact in cache with the specified TTL.
	Set(ctx context.Context, videoID string, file *model.StoredFile, ttl time.Duration) error

	// DeleteVideo removes all cached artifacts for a video.
	DeleteVideo(ctx context.Context, videoID string) error
}
