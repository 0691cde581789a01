package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hszk-dev/clipstream/internal/domain/model"
	"github.com/hszk-dev/clipstream/internal/domain/repository"
)

// minioClient defines the interface for MinIO operations.
// This abstraction allows for easier unit testing with mocks.
type minioClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// minioClientAdapter wraps *minio.Client to implement minioClient.
// Needed because *minio.Client.GetObject returns *minio.Object, while the
// interface returns io.ReadCloser for testability.
type minioClientAdapter struct {
	client *minio.Client
}

func (a *minioClientAdapter) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return a.client.BucketExists(ctx, bucketName)
}

func (a *minioClientAdapter) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return a.client.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}

func (a *minioClientAdapter) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return a.client.GetObject(ctx, bucketName, objectName, opts)
}

func (a *minioClientAdapter) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return a.client.RemoveObject(ctx, bucketName, objectName, opts)
}

func (a *minioClientAdapter) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	return a.client.ListObjects(ctx, bucketName, opts)
}

// MinioConfig holds configuration for the MinIO-backed store.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioStore implements repository.ArtifactStore on a MinIO (or S3-compatible)
// bucket, keyed as "{videoId}/{filename}". It trades the filesystem store's
// rename-based publish for object-level atomicity: segments are uploaded
// before the playlist, so a playlist never references a segment that is not
// yet stored.
type MinioStore struct {
	client minioClient
	bucket string
}

// Compile-time verification that MinioStore implements ArtifactStore.
var _ repository.ArtifactStore = (*MinioStore)(nil)

// NewMinioStore creates a MinIO-backed artifact store.
// It verifies the bucket exists during initialization to fail fast on
// misconfiguration.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return newMinioStoreWithClient(ctx, &minioClientAdapter{client: client}, cfg.Bucket)
}

// newMinioStoreWithClient creates a MinioStore with a given minioClient.
// This is used for dependency injection in tests.
func newMinioStoreWithClient(ctx context.Context, client minioClient, bucket string) (*MinioStore, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", repository.ErrBucketNotFound, bucket)
	}

	return &MinioStore{client: client, bucket: bucket}, nil
}

func (s *MinioStore) objectKey(videoID, filename string) string {
	return videoID + "/" + filename
}

// Put commits an artifact set under videoID: segments first, playlist last,
// then stale objects from any prior set are removed (last write wins).
func (s *MinioStore) Put(ctx context.Context, videoID string, files []model.StoredFile) error {
	if err := model.ValidatePathComponent(videoID); err != nil {
		return fmt.Errorf("invalid video ID %q: %w", videoID, err)
	}
	if err := model.ValidateArtifactSet(files); err != nil {
		return fmt.Errorf("invalid artifact set: %w", err)
	}

	for _, f := range files {
		if f.Filename == model.PlaylistFilename {
			continue
		}
		if err := s.upload(ctx, videoID, f); err != nil {
			return err
		}
	}
	for _, f := range files {
		if f.Filename != model.PlaylistFilename {
			continue
		}
		if err := s.upload(ctx, videoID, f); err != nil {
			return err
		}
	}

	return s.removeStale(ctx, videoID, files)
}

// removeStale drops objects left over from a prior, larger set so List
// reflects exactly the committed set. Runs after the playlist upload: the new
// playlist no longer references the stale segments, so readers never observe
// a dangling reference.
func (s *MinioStore) removeStale(ctx context.Context, videoID string, files []model.StoredFile) error {
	keep := make(map[string]bool, len(files))
	for _, f := range files {
		keep[f.Filename] = true
	}

	prefix := videoID + "/"
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return fmt.Errorf("failed to list stale objects: %w", obj.Err)
		}
		if keep[strings.TrimPrefix(obj.Key, prefix)] {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to delete stale object %s: %w", obj.Key, err)
		}
	}
	return nil
}

func (s *MinioStore) upload(ctx context.Context, videoID string, f model.StoredFile) error {
	contentType := f.ContentType
	if contentType == "" {
		contentType = model.ContentTypeForFilename(f.Filename)
	}

	_, err := s.client.PutObject(ctx, s.bucket, s.objectKey(videoID, f.Filename),
		bytes.NewReader(f.Content), int64(len(f.Content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", f.Filename, err)
	}
	return nil
}

// Get retrieves a single artifact. Read errors degrade to ErrArtifactNotFound.
func (s *MinioStore) Get(ctx context.Context, videoID, filename string) (*model.StoredFile, error) {
	if err := model.ValidatePathComponent(videoID); err != nil {
		return nil, repository.ErrArtifactNotFound
	}
	if err := model.ValidatePathComponent(filename); err != nil {
		return nil, repository.ErrArtifactNotFound
	}

	obj, err := s.client.GetObject(ctx, s.bucket, s.objectKey(videoID, filename), minio.GetObjectOptions{})
	if err != nil {
		return nil, repository.ErrArtifactNotFound
	}
	defer func() { _ = obj.Close() }()

	content, err := io.ReadAll(obj)
	if err != nil {
		// GetObject is lazy; missing keys surface here. A short read must not
		// be delivered, so any failure degrades to not-found.
		if minio.ToErrorResponse(err).Code != "NoSuchKey" {
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

// Exists reports whether any object is stored under the videoID prefix.
func (s *MinioStore) Exists(ctx context.Context, videoID string) bool {
	if err := model.ValidatePathComponent(videoID); err != nil {
		return false
	}

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: videoID + "/"}) {
		if obj.Err != nil {
			return false
		}
		return true
	}
	return false
}

// List returns the convention-matching filenames under videoID.
func (s *MinioStore) List(ctx context.Context, videoID string) []string {
	if err := model.ValidatePathComponent(videoID); err != nil {
		return []string{}
	}

	prefix := videoID + "/"
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			slog.Warn("artifact list failed",
				slog.String("video_id", videoID),
				slog.String("error", obj.Err.Error()),
			)
			return []string{}
		}
		names = append(names, strings.TrimPrefix(obj.Key, prefix))
	}
	return model.SortedArtifactNames(names)
}

// Delete removes every object under the videoID prefix. Idempotent.
func (s *MinioStore) Delete(ctx context.Context, videoID string) error {
	if err := model.ValidatePathComponent(videoID); err != nil {
		return fmt.Errorf("invalid video ID %q: %w", videoID, err)
	}

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: videoID + "/"}) {
		if obj.Err != nil {
			return fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to delete %s: %w", obj.Key, err)
		}
	}
	return nil
}

// Stats counts namespaces and convention-matching files across the bucket.
// Errors degrade to zero counts.
func (s *MinioStore) Stats(ctx context.Context) model.StorageStats {
	videos := make(map[string]bool)
	var files int

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			slog.Warn("storage stats failed", slog.String("error", obj.Err.Error()))
			return model.StorageStats{}
		}
		videoID, filename, found := strings.Cut(obj.Key, "/")
		if !found {
			continue
		}
		videos[videoID] = true
		if model.IsArtifactFilename(filename) {
			files++
		}
	}

	return model.StorageStats{TotalVideos: len(videos), TotalFiles: files}
}
