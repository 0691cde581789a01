package handler

import (
	"net/http"

	"github.com/hszk-dev/clipstream/internal/domain/model"
	"github.com/hszk-dev/clipstream/internal/domain/repository"
)

// Response types

type ListFilesResponse struct {
	VideoID string   `json:"videoId"`
	Files   []string `json:"files"`
}

type ExistsResponse struct {
	VideoID string `json:"videoId"`
	Exists  bool   `json:"exists"`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StorageHandler exposes artifact store introspection endpoints.
type StorageHandler struct {
	store repository.ArtifactStore
}

// NewStorageHandler creates a new StorageHandler.
func NewStorageHandler(store repository.ArtifactStore) *StorageHandler {
	return &StorageHandler{store: store}
}

// Get handles GET /v1/storage?action={stats|list|exists}&videoId={id}
func (h *StorageHandler) Get(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	videoID := r.URL.Query().Get("videoId")

	switch action {
	case "stats":
		JSON(w, http.StatusOK, h.store.Stats(r.Context()))
	case "list":
		if !h.validVideoID(w, videoID) {
			return
		}
		files := h.store.List(r.Context(), videoID)
		if files == nil {
			files = []string{}
		}
		JSON(w, http.StatusOK, ListFilesResponse{VideoID: videoID, Files: files})
	case "exists":
		if !h.validVideoID(w, videoID) {
			return
		}
		JSON(w, http.StatusOK, ExistsResponse{
			VideoID: videoID,
			Exists:  h.store.Exists(r.Context(), videoID),
		})
	default:
		Error(w, http.StatusBadRequest, "invalid_action", "Action must be one of: stats, list, exists")
	}
}

// Delete handles DELETE /v1/storage?videoId={id}
func (h *StorageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("videoId")
	if !h.validVideoID(w, videoID) {
		return
	}

	// Deleting an unknown video is a no-op, not an error.
	if err := h.store.Delete(r.Context(), videoID); err != nil {
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	JSON(w, http.StatusOK, DeleteResponse{
		Success: true,
		Message: "Deleted video " + videoID,
	})
}

func (h *StorageHandler) validVideoID(w http.ResponseWriter, videoID string) bool {
	if videoID == "" {
		Error(w, http.StatusBadRequest, "missing_video_id", "videoId query parameter is required")
		return false
	}
	if err := model.ValidatePathComponent(videoID); err != nil {
		Error(w, http.StatusBadRequest, "invalid_video_id", "Video ID contains invalid characters")
		return false
	}
	return true
}
