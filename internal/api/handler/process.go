package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hszk-dev/clipstream/internal/domain/model"
	"github.com/hszk-dev/clipstream/internal/domain/repository"
	"github.com/hszk-dev/clipstream/internal/transcoder"
	"github.com/hszk-dev/clipstream/internal/usecase"
)

// Request/Response types

type ProcessRequest struct {
	VideoURL string `json:"videoUrl"`
	FileName string `json:"fileName"`
}

type ProcessResponse struct {
	Success bool   `json:"success"`
	HLSURL  string `json:"hlsUrl,omitempty"`
	Error   string `json:"error,omitempty"`
}

type EnqueueResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type JobResponse struct {
	ID        string `json:"id"`
	VideoID   string `json:"video_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	HLSURL    string `json:"hls_url,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ProcessHandler handles video processing HTTP requests.
type ProcessHandler struct {
	svc usecase.ProcessService
}

// NewProcessHandler creates a new ProcessHandler.
func NewProcessHandler(svc usecase.ProcessService) *ProcessHandler {
	return &ProcessHandler{svc: svc}
}

// Process handles POST /v1/videos/process. It runs the whole pipeline
// synchronously and responds with the playback URL.
func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Process(r.Context(), req.VideoURL, req.FileName)
	if err != nil {
		status, msg := processErrorStatus(err)
		JSON(w, status, ProcessResponse{Success: false, Error: msg})
		return
	}

	JSON(w, http.StatusOK, ProcessResponse{
		Success: true,
		HLSURL:  result.HLSPath,
	})
}

// Enqueue handles POST /v1/videos/enqueue. It records a job and returns
// immediately; a worker picks the task up from the queue.
func (h *ProcessHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	job, err := h.svc.Enqueue(r.Context(), req.VideoURL, req.FileName)
	if err != nil {
		status, msg := processErrorStatus(err)
		JSON(w, status, ProcessResponse{Success: false, Error: msg})
		return
	}

	JSON(w, http.StatusAccepted, EnqueueResponse{
		JobID:  job.ID.String(),
		Status: job.Status.String(),
	})
}

// GetJob handles GET /v1/jobs/{id}
func (h *ProcessHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid_job_id", "Job ID must be a valid UUID")
		return
	}

	job, err := h.svc.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			Error(w, http.StatusNotFound, "job_not_found", "Job not found")
			return
		}
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	JSON(w, http.StatusOK, toJobResponse(job))
}

func (h *ProcessHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (ProcessRequest, bool) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSON(w, http.StatusBadRequest, ProcessResponse{Success: false, Error: "Invalid JSON body"})
		return req, false
	}

	if req.VideoURL == "" {
		JSON(w, http.StatusBadRequest, ProcessResponse{Success: false, Error: "videoUrl is required"})
		return req, false
	}
	if req.FileName == "" {
		JSON(w, http.StatusBadRequest, ProcessResponse{Success: false, Error: "fileName is required"})
		return req, false
	}

	return req, true
}

func processErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrEmptyFileName),
		errors.Is(err, model.ErrUnsafeVideoID),
		errors.Is(err, model.ErrUnsafeFilename),
		errors.Is(err, model.ErrEmptySourceURL):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, usecase.ErrDownloadFailure):
		return http.StatusInternalServerError, "Failed to download video"
	case errors.Is(err, transcoder.ErrTranscodeFailed):
		return http.StatusInternalServerError, "Failed to convert video"
	case errors.Is(err, usecase.ErrStorageFailure):
		return http.StatusInternalServerError, "Failed to store converted video"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func toJobResponse(j *model.ProcessJob) JobResponse {
	return JobResponse{
		ID:        j.ID.String(),
		VideoID:   j.VideoID,
		Status:    j.Status.String(),
		Error:     j.Error,
		HLSURL:    j.HLSPath,
		CreatedAt: j.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: j.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
