package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hszk-dev/clipstream/internal/domain/model"
	"github.com/hszk-dev/clipstream/internal/domain/repository"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// JobRepository implements repository.JobRepository using PostgreSQL.
type JobRepository struct {
	db DBTX
}

// Compile-time verification that JobRepository implements repository.JobRepository.
var _ repository.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a new JobRepository instance.
func NewJobRepository(db DBTX) *JobRepository {
	return &JobRepository{db: db}
}

// Create persists a new processing-job record.
func (r *JobRepository) Create(ctx context.Context, job *model.ProcessJob) error {
	const query = `
		INSERT INTO process_jobs (id, video_id, source_url, status, error, hls_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		job.ID,
		job.VideoID,
		job.SourceURL,
		job.Status.String(),
		nullString(job.Error),
		nullString(job.HLSPath),
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// GetByID retrieves a job by its unique identifier.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ProcessJob, error) {
	const query = `
		SELECT id, video_id, source_url, status, error, hls_path, created_at, updated_at
		FROM process_jobs
		WHERE id = $1
	`

	job, err := scanJob(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job by ID: %w", err)
	}

	return job, nil
}

// Update persists changes to an existing job record.
func (r *JobRepository) Update(ctx context.Context, job *model.ProcessJob) error {
	const query = `
		UPDATE process_jobs
		SET status = $2, error = $3, hls_path = $4, updated_at = $5
		WHERE id = $1
	`

	job.UpdatedAt = time.Now()

	tag, err := r.db.Exec(ctx, query,
		job.ID,
		job.Status.String(),
		nullString(job.Error),
		nullString(job.HLSPath),
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrJobNotFound
	}

	return nil
}

// scanJob scans a job from a single row.
func scanJob(row pgx.Row) (*model.ProcessJob, error) {
	var (
		job     model.ProcessJob
		status  string
		errMsg  sql.NullString
		hlsPath sql.NullString
	)

	err := row.Scan(
		&job.ID,
		&job.VideoID,
		&job.SourceURL,
		&status,
		&errMsg,
		&hlsPath,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status = model.JobStatus(status)
	job.Error = errMsg.String
	job.HLSPath = hlsPath.String

	return &job, nil
}

// nullString converts an empty string to a NULL-able value.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
