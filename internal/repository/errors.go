package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrStaleState is returned when a conditional trip update finds the
	// stored status no longer matches the expected one. Safe to retry
	// after re-reading.
	ErrStaleState = errors.New("trip status changed concurrently")
)
