package repository

import (
	"context"

	"github.com/google/uuid"
)

// ProcessTask represents a queued video-processing job message.
type ProcessTask struct {
	JobID      uuid.UUID `json:"job_id"`
	SourceURL  string    `json:"source_url"`
	FileName   string    `json:"file_name"`
	RetryCount int       `json:"retry_count"`
}

// MessageQueue defines the interface for message queue operations.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type MessageQueue interface {
	// PublishProcessTask sends a processing task to the queue.
	// Used by the API server for async video submission.
	PublishProcessTask(ctx context.Context, task ProcessTask) error

	// ConsumeProcessTasks starts consuming processing tasks from the queue.
	// The handler function is called for each received task.
	// Used by the worker service; returns when the context is cancelled.
	ConsumeProcessTasks(ctx context.Context, handler func(task ProcessTask) error) error

	// Close gracefully closes the connection to the message queue.
	Close() error
}
