package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrStaleWrite is returned when a versioned update or status
	// compare-and-swap finds the row changed since it was read.
	ErrStaleWrite = errors.New("stale write")

	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("duplicate entity")
)

// ErrInUse is returned when an entity cannot be removed because other
// records still reference it.
var ErrInUse = errors.New("entity still referenced")
