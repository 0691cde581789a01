package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hszk-dev/clipstream/internal/domain/model"
)

// JobRepository defines the interface for persisting processing-job records.
// Implementations should be provided by the infrastructure layer (e.g., PostgreSQL).
type JobRepository interface {
	// Create persists a new job record.
	Create(ctx context.Context, job *model.ProcessJob) error

	// GetByID retrieves a job by its unique identifier.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.ProcessJob, error)

	// Update persists changes to an existing job record.
	// Returns ErrJobNotFound if the job does not exist.
	Update(ctx context.Context, job *model.ProcessJob) error
}
