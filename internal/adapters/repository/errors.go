package repository

import "errors"

// Store errors.
var (
	// ErrNotFound is returned when no result exists for an analysis id.
	ErrNotFound = errors.New("analysis not found")

	// ErrInvalidRange is returned when a range query has from > to.
	ErrInvalidRange = errors.New("invalid time range")
)
