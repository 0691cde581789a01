// Package store provides ArtifactStore implementations: local filesystem,
// in-memory, and MinIO-backed object storage.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/hszk-dev/clipstream/internal/domain/model"
	"github.com/hszk-dev/clipstream/internal/domain/repository"
)

// stagingPrefix marks in-progress namespace directories. Staged directories
// are invisible to readers and skipped by Stats.
const stagingPrefix = ".staging-"

// FSStore implements repository.ArtifactStore on the local filesystem.
// One directory per video ID under baseDir.
//
// Put stages the whole artifact set in a hidden directory and publishes it
// with a single rename, so a reader can never observe a playlist whose
// segments are not yet written. Storage is ephemeral: baseDir typically lives
// under the OS temp directory and is cleared on restart.
type FSStore struct {
	baseDir string
}

// Compile-time verification that FSStore implements ArtifactStore.
var _ repository.ArtifactStore = (*FSStore)(nil)

// NewFSStore creates a filesystem-backed artifact store rooted at baseDir,
// creating the directory if needed.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}
	return &FSStore{baseDir: baseDir}, nil
}

// BaseDir returns the root directory of the store.
func (s *FSStore) BaseDir() string {
	return s.baseDir
}

// Put commits an artifact set under videoID, replacing any prior set.
func (s *FSStore) Put(ctx context.Context, videoID string, files []model.StoredFile) error {
	if err := model.ValidatePathComponent(videoID); err != nil {
		return fmt.Errorf("invalid video ID %q: %w", videoID, err)
	}
	if err := model.ValidateArtifactSet(files); err != nil {
		return fmt.Errorf("invalid artifact set: %w", err)
	}

	staging := filepath.Join(s.baseDir, stagingPrefix+videoID+"-"+uuid.NewString())
	if err := os.MkdirAll(staging, 0755); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	// Segments first, playlist last: even the staging directory never holds a
	// playlist pointing at absent segments.
	for _, f := range files {
		if f.Filename == model.PlaylistFilename {
			continue
		}
		if err := os.WriteFile(filepath.Join(staging, f.Filename), f.Content, 0644); err != nil {
			return fmt.Errorf("write %s: %w", f.Filename, err)
		}
	}
	for _, f := range files {
		if f.Filename != model.PlaylistFilename {
			continue
		}
		if err := os.WriteFile(filepath.Join(staging, f.Filename), f.Content, 0644); err != nil {
			return fmt.Errorf("write %s: %w", f.Filename, err)
		}
	}

	final := filepath.Join(s.baseDir, videoID)
	if err := os.RemoveAll(final); err != nil {
		return fmt.Errorf("remove prior namespace: %w", err)
	}
	if err := os.Rename(staging, final); err != nil {
		return fmt.Errorf("publish namespace: %w", err)
	}

	return nil
}

// Get retrieves a single artifact. Read errors degrade to ErrArtifactNotFound.
func (s *FSStore) Get(ctx context.Context, videoID, filename string) (*model.StoredFile, error) {
	if err := model.ValidatePathComponent(videoID); err != nil {
		return nil, repository.ErrArtifactNotFound
	}
	if err := model.ValidatePathComponent(filename); err != nil {
		return nil, repository.ErrArtifactNotFound
	}

	content, err := os.ReadFile(filepath.Join(s.baseDir, videoID, filename))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("artifact read failed",
				slog.String("video_id", videoID),
				slog.String("filename", filename),
				slog.String("error", err.Error()),
			)
		}
		return nil, repository.ErrArtifactNotFound
	}

	return &model.StoredFile{
		Filename:    filename,
		Content:     content,
		ContentType: model.ContentTypeForFilename(filename),
	}, nil
}

// Exists reports whether the namespace exists and is non-empty.
func (s *FSStore) Exists(ctx context.Context, videoID string) bool {
	if err := model.ValidatePathComponent(videoID); err != nil {
		return false
	}

	entries, err := os.ReadDir(filepath.Join(s.baseDir, videoID))
	if err != nil {
		return false
	}
	return len(entries) > 0
}

// List returns the convention-matching filenames under videoID.
func (s *FSStore) List(ctx context.Context, videoID string) []string {
	if err := model.ValidatePathComponent(videoID); err != nil {
		return []string{}
	}

	entries, err := os.ReadDir(filepath.Join(s.baseDir, videoID))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("artifact list failed",
				slog.String("video_id", videoID),
				slog.String("error", err.Error()),
			)
		}
		return []string{}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return model.SortedArtifactNames(names)
}

// Delete removes the whole namespace. Idempotent.
func (s *FSStore) Delete(ctx context.Context, videoID string) error {
	if err := model.ValidatePathComponent(videoID); err != nil {
		return fmt.Errorf("invalid video ID %q: %w", videoID, err)
	}

	if err := os.RemoveAll(filepath.Join(s.baseDir, videoID)); err != nil {
		return fmt.Errorf("delete namespace: %w", err)
	}
	return nil
}

// Stats counts namespaces and convention-matching files. Errors degrade to
// zero counts; staging directories are excluded.
func (s *FSStore) Stats(ctx context.Context) model.StorageStats {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		slog.Warn("storage stats failed", slog.String("error", err.Error()))
		return model.StorageStats{}
	}

	var stats model.StorageStats
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		stats.TotalVideos++
		stats.TotalFiles += len(s.List(ctx, entry.Name()))
	}
	return stats
}
