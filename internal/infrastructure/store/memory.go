package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/hszk-dev/clipstream/internal/domain/model"
	"github.com/hszk-dev/clipstream/internal/domain/repository"
)

// MemoryStore implements repository.ArtifactStore entirely in memory.
// Useful for tests and single-process deployments that accept losing
// artifacts on restart (the backing storage is ephemeral either way).
type MemoryStore struct {
	mu     sync.RWMutex
	videos map[string]map[string]model.StoredFile
}

// Compile-time verification that MemoryStore implements ArtifactStore.
var _ repository.ArtifactStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory artifact store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		videos: make(map[string]map[string]model.StoredFile),
	}
}

// Put commits an artifact set under videoID, replacing any prior set.
// The namespace map is built in full before being published under the lock.
func (s *MemoryStore) Put(ctx context.Context, videoID string, files []model.StoredFile) error {
	if err := model.ValidatePathComponent(videoID); err != nil {
		return fmt.Errorf("invalid video ID %q: %w", videoID, err)
	}
	if err := model.ValidateArtifactSet(files); err != nil {
		return fmt.Errorf("invalid artifact set: %w", err)
	}

	namespace := make(map[string]model.StoredFile, len(files))
	for _, f := range files {
		content := make([]byte, len(f.Content))
		copy(content, f.Content)
		namespace[f.Filename] = model.StoredFile{
			Filename:    f.Filename,
			Content:     content,
			ContentType: f.ContentType,
		}
	}

	s.mu.Lock()
	s.videos[videoID] = namespace
	s.mu.Unlock()
	return nil
}

// Get retrieves a single artifact.
func (s *MemoryStore) Get(ctx context.Context, videoID, filename string) (*model.StoredFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	namespace, ok := s.videos[videoID]
	if !ok {
		return nil, repository.ErrArtifactNotFound
	}
	f, ok := namespace[filename]
	if !ok {
		return nil, repository.ErrArtifactNotFound
	}

	content := make([]byte, len(f.Content))
	copy(content, f.Content)
	return &model.StoredFile{
		Filename:    f.Filename,
		Content:     content,
		ContentType: f.ContentType,
	}, nil
}

// Exists reports whether the namespace exists and is non-empty.
func (s *MemoryStore) Exists(ctx context.Context, videoID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.videos[videoID]) > 0
}

// List returns the convention-matching filenames under videoID.
func (s *MemoryStore) List(ctx context.Context, videoID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	namespace := s.videos[videoID]
	names := make([]string, 0, len(namespace))
	for name := range namespace {
		names = append(names, name)
	}
	return model.SortedArtifactNames(names)
}

// Delete removes the whole namespace. Idempotent.
func (s *MemoryStore) Delete(ctx context.Context, videoID string) error {
	s.mu.Lock()
	delete(s.videos, videoID)
	s.mu.Unlock()
	return nil
}

// Stats counts namespaces and convention-matching files.
func (s *MemoryStore) Stats(ctx context.Context) model.StorageStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats model.StorageStats
	for _, namespace := range s.videos {
		stats.TotalVideos++
		for name := range namespace {
			if model.IsArtifactFilename(name) {
				stats.TotalFiles++
			}
		}
	}
	return stats
}
