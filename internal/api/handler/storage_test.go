package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hszk-dev/clipstream/internal/domain/model"
)

func TestStorageHandler_Get(t *testing.T) {
	store := &mockArtifactStore{
		statsFn: func(ctx context.Context) model.StorageStats {
			return model.StorageStats{TotalVideos: 2, TotalFiles: 7}
		},
		listFn: func(ctx context.Context, videoID string) []string {
			if videoID == "clip" {
				return []string{model.PlaylistFilename, "segment_000.ts"}
			}
			return nil
		},
		existsFn: func(ctx context.Context, videoID string) bool {
			return videoID == "clip"
		},
	}
	h := NewStorageHandler(store)

	tests := []struct {
		name           string
		query          string
		wantStatusCode int
		checkResponse  func(t *testing.T, body []byte)
	}{
		{
			name:           "stats",
			query:          "action=stats",
			wantStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, body []byte) {
				var resp model.StorageStats
				if err := json.Unmarshal(body, &resp); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if resp.TotalVideos != 2 || resp.TotalFiles != 7 {
					t.Errorf("stats = %+v", resp)
				}
			},
		},
		{
			name:           "list",
			query:          "action=list&videoId=clip",
			wantStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, body []byte) {
				var resp ListFilesResponse
				if err := json.Unmarshal(body, &resp); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if resp.VideoID != "clip" || len(resp.Files) != 2 {
					t.Errorf("list = %+v", resp)
				}
			},
		},
		{
			name:           "list unknown video returns empty array",
			query:          "action=list&videoId=missing",
			wantStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, body []byte) {
				var resp ListFilesResponse
				if err := json.Unmarshal(body, &resp); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if resp.Files == nil || len(resp.Files) != 0 {
					t.Errorf("Files = %#v, want empty array", resp.Files)
				}
			},
		},
		{
			name:           "exists true",
			query:          "action=exists&videoId=clip",
			wantStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, body []byte) {
				var resp ExistsResponse
				if err := json.Unmarshal(body, &resp); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if !resp.Exists {
					t.Error("Exists should be true")
				}
			},
		},
		{
			name:           "exists false",
			query:          "action=exists&videoId=missing",
			wantStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, body []byte) {
				var resp ExistsResponse
				if err := json.Unmarshal(body, &resp); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if resp.Exists {
					t.Error("Exists should be false")
				}
			},
		},
		{
			name:           "unknown action",
			query:          "action=purge",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing action",
			query:          "",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "list without videoId",
			query:          "action=list",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "unsafe videoId",
			query:          "action=list&videoId=..",
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/storage?"+tt.query, nil)
			rec := httptest.NewRecorder()

			h.Get(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Errorf("status = %d, want %d, body %s", rec.Code, tt.wantStatusCode, rec.Body.String())
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, rec.Body.Bytes())
			}
		})
	}
}

func TestStorageHandler_Delete(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMock      func(m *mockArtifactStore)
		wantStatusCode int
	}{
		{
			name:  "successful delete",
			query: "videoId=clip",
			setupMock: func(m *mockArtifactStore) {
				m.deleteFn = func(ctx context.Context, videoID string) error {
					if videoID != "clip" {
						t.Errorf("videoID = %q, want clip", videoID)
					}
					return nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			// Stores treat deleting an unknown namespace as a no-op, so the
			// endpoint reports success either way.
			name:  "unknown video is idempotent",
			query: "videoId=ghost",
			setupMock: func(m *mockArtifactStore) {
				m.deleteFn = func(ctx context.Context, videoID string) error {
					return nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing videoId",
			query:          "",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "unsafe videoId",
			query:          "videoId=a/b",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:  "store failure",
			query: "videoId=clip",
			setupMock: func(m *mockArtifactStore) {
				m.deleteFn = func(ctx context.Context, videoID string) error {
					return errors.New("disk error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockArtifactStore{}
			if tt.setupMock != nil {
				tt.setupMock(mock)
			}
			h := NewStorageHandler(mock)

			req := httptest.NewRequest(http.MethodDelete, "/v1/storage?"+tt.query, nil)
			rec := httptest.NewRecorder()

			h.Delete(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Errorf("status = %d, want %d, body %s", rec.Code, tt.wantStatusCode, rec.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var resp DeleteResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if !resp.Success {
					t.Error("Success should be true")
				}
			}
		})
	}
}
