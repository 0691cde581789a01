package repository

import "errors"

var (
	// ErrArtifactNotFound is returned when an artifact or its namespace
	// cannot be found (or cannot be read; read paths degrade to not-found).
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrJobNotFound is returned when a processing job cannot be found.
	ErrJobNotFound = errors.New("processing job not found")

	// ErrBucketNotFound is returned when the configured object-storage bucket
	// does not exist.
	ErrBucketNotFound = errors.New("bucket not found")
)
