package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the processing state of a pipeline invocation.
type JobStatus string

const (
	JobPending     JobStatus = "PENDING"
	JobDownloading JobStatus = "DOWNLOADING"
	JobTranscoding JobStatus = "TRANSCODING"
	JobCommitting  JobStatus = "COMMITTING"
	JobDone        JobStatus = "DONE"
	JobFailed      JobStatus = "FAILED"
)

// Valid status transitions:
// PENDING -> DOWNLOADING -> TRANSCODING -> COMMITTING -> DONE
// and any non-terminal state -> FAILED.
var validJobTransitions = map[JobStatus][]JobStatus{
	JobPending:     {JobDownloading, JobFailed},
	JobDownloading: {JobTranscoding, JobFailed},
	JobTranscoding: {JobCommitting, JobFailed},
	JobCommitting:  {JobDone, JobFailed},
	JobDone:        {},
	JobFailed:      {},
}

func (s JobStatus) IsValid() bool {
	switch s {
	case JobPending, JobDownloading, JobTranscoding, JobCommitting, JobDone, JobFailed:
		return true
	default:
		return false
	}
}

func (s JobStatus) IsTerminal() bool {
	return s == JobDone || s == JobFailed
}

func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	allowed, exists := validJobTransitions[s]
	if !exists {
		return false
	}
	for _, status := range allowed {
		if status == next {
			return true
		}
	}
	return false
}

func (s JobStatus) String() string {
	return string(s)
}

// ProcessJob records a single pipeline invocation for introspection.
type ProcessJob struct {
	ID        uuid.UUID
	VideoID   string
	SourceURL string
	Status    JobStatus
	Error     string
	HLSPath   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	ErrEmptySourceURL    = errors.New("source URL cannot be empty")
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// NewProcessJob creates a job in PENDING state for the given source and
// derived video ID.
func NewProcessJob(videoID, sourceURL string) (*ProcessJob, error) {
	if sourceURL == "" {
		return nil, ErrEmptySourceURL
	}
	if err := ValidatePathComponent(videoID); err != nil {
		return nil, err
	}

	now := time.Now()
	return &ProcessJob{
		ID:        uuid.New(),
		VideoID:   videoID,
		SourceURL: sourceURL,
		Status:    JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// TransitionTo attempts to advance the job status.
func (j *ProcessJob) TransitionTo(next JobStatus) error {
	if !next.IsValid() {
		return ErrInvalidTransition
	}
	if !j.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	j.Status = next
	j.UpdatedAt = time.Now()
	return nil
}

// Fail marks the job FAILED with a human-readable cause.
func (j *ProcessJob) Fail(cause string) error {
	if err := j.TransitionTo(JobFailed); err != nil {
		return err
	}
	j.Error = cause
	return nil
}

// Retry resets a non-terminal job to PENDING for a fresh attempt. The linear
// stage order applies within one attempt; a retry starts over.
func (j *ProcessJob) Retry() error {
	if j.Status.IsTerminal() {
		return ErrInvalidTransition
	}
	j.Status = JobPending
	j.Error = ""
	j.UpdatedAt = time.Now()
	return nil
}

// Complete marks the job DONE and records the playback path.
func (j *ProcessJob) Complete(hlsPath string) error {
	if err := j.TransitionTo(JobDone); err != nil {
		return err
	}
	j.HLSPath = hlsPath
	return nil
}
