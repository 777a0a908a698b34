package db

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrConcurrentUpdate is returned when a task changed since it was read
	ErrConcurrentUpdate = errors.New("task was modified concurrently")

	// ErrDuplicateAction is returned when an action with the same idempotency key was already recorded
	ErrDuplicateAction = errors.New("action already recorded")
)
