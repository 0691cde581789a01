package repository

import (
	"context"

	"github.com/hszk-dev/clipstream/internal/domain/model"
)

// ArtifactStore defines the interface for persisting and serving HLS artifact
// sets, namespaced by video ID. Implementations are provided by the
// infrastructure layer (filesystem, in-memory, object storage).
//
// Read methods (Get, Exists, List, Stats) degrade on underlying I/O errors:
// they return not-found / false / empty / zero instead of propagating, so the
// delivery path stays resilient. Implementations should log the underlying
// cause. Put and Delete propagate errors.
type ArtifactStore interface {
	// Put commits a whole artifact set under videoID, replacing any prior set
	// (last write wins). A reader must never observe a playlist that
	// references a segment not yet written: implementations publish the
	// namespace only after all files are in place.
	Put(ctx context.Context, videoID string, files []model.StoredFile) error

	// Get retrieves a single artifact. Returns ErrArtifactNotFound if the
	// namespace or file does not exist, or if the content cannot be read.
	Get(ctx context.Context, videoID, filename string) (*model.StoredFile, error)

	// Exists reports whether the namespace exists and is non-empty.
	Exists(ctx context.Context, videoID string) bool

	// List returns the artifact filenames under videoID that match the
	// playlist/segment naming convention, in lexicographic order. Stray files
	// are filtered out. Unknown namespaces yield an empty slice.
	List(ctx context.Context, videoID string) []string

	// Delete removes the whole namespace. Deleting a nonexistent namespace is
	// a no-op, not an error.
	Delete(ctx context.Context, videoID string) error

	// Stats counts namespaces and convention-matching files across the
	// store. Counts may be transiently stale under concurrent mutation.
	Stats(ctx context.Context) model.StorageStats
}
