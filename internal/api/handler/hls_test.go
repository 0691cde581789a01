package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hszk-dev/clipstream/internal/domain/model"
	"github.com/hszk-dev/clipstream/internal/domain/repository"
)

// Mock ArtifactStore

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

func newHLSRouter(store repository.ArtifactStore) *chi.Mux {
	h := NewHLSHandler(store)
	r := chi.NewRouter()
	r.Get("/v1/hls/{videoID}/{filename}", h.Serve)
	r.Options("/v1/hls/{videoID}/{filename}", h.Preflight)
	return r
}

func TestHLSHandler_Serve(t *testing.T) {
	store := &mockArtifactStore{
		getFn: func(ctx context.Context, videoID, filename string) (*model.StoredFile, error) {
			if videoID == "clip" && filename == model.PlaylistFilename {
				return &model.StoredFile{
					Filename:    filename,
					Content:     []byte("#EXTM3U\n"),
					ContentType: model.ContentTypePlaylist,
				}, nil
			}
			return nil, repository.ErrArtifactNotFound
		},
	}
	r := newHLSRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/v1/hls/clip/playlist.m3u8", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "#EXTM3U\n" {
		t.Errorf("body = %q", got)
	}

	headers := map[string]string{
		"Content-Type":                 model.ContentTypePlaylist,
		"Cache-Control":                "no-cache",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "GET",
		"Access-Control-Allow-Headers": "Range",
	}
	for name, want := range headers {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
}

func TestHLSHandler_Serve_SegmentContentType(t *testing.T) {
	store := &mockArtifactStore{
		getFn: func(ctx context.Context, videoID, filename string) (*model.StoredFile, error) {
			return &model.StoredFile{
				Filename:    filename,
				Content:     []byte("ts-bytes"),
				ContentType: model.ContentTypeSegment,
			}, nil
		},
	}
	r := newHLSRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/v1/hls/clip/segment_000.ts", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Type"); got != model.ContentTypeSegment {
		t.Errorf("Content-Type = %q, want %q", got, model.ContentTypeSegment)
	}
}

func TestHLSHandler_Serve_NotFound(t *testing.T) {
	r := newHLSRouter(&mockArtifactStore{})

	req := httptest.NewRequest(http.MethodGet, "/v1/hls/missing/playlist.m3u8", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHLSHandler_Serve_PathSafety(t *testing.T) {
	getCalled := false
	store := &mockArtifactStore{
		getFn: func(ctx context.Context, videoID, filename string) (*model.StoredFile, error) {
			getCalled = true
			return nil, repository.ErrArtifactNotFound
		},
	}
	r := newHLSRouter(store)

	// chi decodes percent-encoded path params, so traversal sequences reach
	// the handler as literal dots and slashes.
	paths := []string{
		"/v1/hls/..%2F..%2Fetc/playlist.m3u8",
		"/v1/hls/clip/..%2Fsecret.txt",
		"/v1/hls/../playlist.m3u8",
		"/v1/hls/clip/played..m3u8",
	}
	for _, p := range paths {
		req := httptest.NewRequest(http.MethodGet, p, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		// Traversal attempts must never reach the store. The router itself
		// rejects some of these shapes before the handler runs.
		if rec.Code == http.StatusOK {
			t.Errorf("GET %s = %d, want an error status", p, rec.Code)
		}
	}
	if getCalled {
		t.Error("store should not be consulted for unsafe paths")
	}
}

func TestHLSHandler_Preflight(t *testing.T) {
	r := newHLSRouter(&mockArtifactStore{})

	req := httptest.NewRequest(http.MethodOptions, "/v1/hls/clip/playlist.m3u8", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
