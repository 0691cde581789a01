package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hszk-dev/clipstream/internal/domain/model"
	"github.com/hszk-dev/clipstream/internal/domain/repository"
	"github.com/hszk-dev/clipstream/internal/infrastructure/metrics"
)

// HLSHandler serves HLS artifacts (playlists and segments).
type HLSHandler struct {
	store repository.ArtifactStore
}

// NewHLSHandler creates a new HLSHandler.
func NewHLSHandler(store repository.ArtifactStore) *HLSHandler {
	return &HLSHandler{store: store}
}

// Serve handles GET /v1/hls/{videoID}/{filename}.
//
// Playlists must always be revalidated: a re-upload of the same video ID
// replaces the artifact set, and players polling a cached playlist would
// request segments that no longer exist.
func (h *HLSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	filename := chi.URLParam(r, "filename")

	kind := deliveryKind(filename)

	if err := model.ValidatePathComponent(videoID); err != nil {
		metrics.DeliveryRequestsTotal.WithLabelValues(metrics.DeliveryStatusBadRequest, kind).Inc()
		Error(w, http.StatusBadRequest, "invalid_video_id", "Video ID contains invalid characters")
		return
	}
	if err := model.ValidatePathComponent(filename); err != nil {
		metrics.DeliveryRequestsTotal.WithLabelValues(metrics.DeliveryStatusBadRequest, kind).Inc()
		Error(w, http.StatusBadRequest, "invalid_filename", "Filename contains invalid characters")
		return
	}

	file, err := h.store.Get(r.Context(), videoID, filename)
	if err != nil {
		if errors.Is(err, repository.ErrArtifactNotFound) {
			metrics.DeliveryRequestsTotal.WithLabelValues(metrics.DeliveryStatusNotFound, kind).Inc()
			Error(w, http.StatusNotFound, "not_found", "Video not found")
			return
		}
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	metrics.DeliveryRequestsTotal.WithLabelValues(metrics.DeliveryStatusOK, kind).Inc()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	setCORSHeaders(w)
	_, _ = w.Write(file.Content)
}

// Preflight handles OPTIONS requests on the delivery path.
func (h *HLSHandler) Preflight(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET")
	w.Header().Set("Access-Control-Allow-Headers", "Range")
}

func deliveryKind(filename string) string {
	switch {
	case filename == model.PlaylistFilename:
		return metrics.DeliveryKindPlaylist
	case model.IsArtifactFilename(filename):
		return metrics.DeliveryKindSegment
	default:
		return metrics.DeliveryKindOther
	}
}
